package priority

import (
	"testing"

	"github.com/xlandscape/catchflow/internal/catchment"
)

func buildLinearChain(t *testing.T) *catchment.Catchment {
	t.Helper()
	c := catchment.NewCatchment()
	attrs := catchment.Attributes{HasDirectLoading: true}
	if err := c.AddReach("A", attrs, []catchment.ReachID{"B"}); err != nil {
		t.Fatal(err)
	}
	if err := c.AddReach("B", attrs, []catchment.ReachID{"C"}); err != nil {
		t.Fatal(err)
	}
	if err := c.AddReach("C", attrs, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestLinearChainPriorities(t *testing.T) {
	c := buildLinearChain(t)
	p := Compute(c)
	if p["A"] != 0 || p["B"] != 1 || p["C"] != 2 {
		t.Fatalf("expected A=0,B=1,C=2; got %v", p)
	}
}

func TestSingleReachPriorityIsOne(t *testing.T) {
	c := catchment.NewCatchment()
	_ = c.AddReach("A", catchment.Attributes{HasDirectLoading: true}, nil)
	_ = c.Finalize()

	p := Compute(c)
	if p["A"] != 1 {
		t.Fatalf("expected single-reach priority 1, got %d", p["A"])
	}
}

func TestDeterministic(t *testing.T) {
	c := buildLinearChain(t)
	p1 := Compute(c)
	p2 := Compute(c)
	for id, v := range p1 {
		if p2[id] != v {
			t.Fatalf("non-deterministic priority for %s: %d vs %d", id, v, p2[id])
		}
	}
}

func TestRankMonotonicityAcrossEdges(t *testing.T) {
	c := catchment.NewCatchment()
	attrs := catchment.Attributes{HasDirectLoading: true}
	_ = c.AddReach("A", attrs, []catchment.ReachID{"B", "C"})
	_ = c.AddReach("B", attrs, []catchment.ReachID{"D"})
	_ = c.AddReach("C", attrs, []catchment.ReachID{"D"})
	_ = c.AddReach("D", attrs, nil)
	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}

	p := Compute(c)
	for _, edge := range [][2]catchment.ReachID{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}} {
		if p[edge[0]] > p[edge[1]] {
			t.Errorf("expected priority(%s) <= priority(%s), got %d > %d", edge[0], edge[1], p[edge[0]], p[edge[1]])
		}
	}
}

func TestTieBrokenByReachID(t *testing.T) {
	c := catchment.NewCatchment()
	attrs := catchment.Attributes{HasDirectLoading: true}
	// Two independent roots, each a leaf: equal rank, tie-break by ID.
	_ = c.AddReach("Z", attrs, nil)
	_ = c.AddReach("A", attrs, nil)
	if err := c.Finalize(); err != nil {
		t.Fatal(err)
	}

	p := Compute(c)
	if p["A"] >= p["Z"] {
		t.Fatalf("expected A to sort before Z on tie, got priorities A=%d Z=%d", p["A"], p["Z"])
	}
}
