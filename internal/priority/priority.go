// Package priority computes a static, deterministic per-reach dispatch
// priority using a HEFT upward-rank reduced to unit compute cost and zero
// communication cost: rank(v) is the length, in nodes, of the longest path
// from v to any leaf.
package priority

import (
	"container/heap"
	"sort"

	"github.com/xlandscape/catchflow/internal/catchment"
)

// Graph is the minimal read-only view PriorityOracle needs from a
// catchment. *catchment.Catchment satisfies it directly.
type Graph interface {
	ReachIDs() []catchment.ReachID
	Children(id catchment.ReachID) []catchment.ReachID
}

// Compute returns a mapping from ReachID to a non-negative integer
// priority where 0 is dispatched first. Ties in rank are broken
// lexicographically ascending on ReachID. The computation is iterative
// (an explicit worklist over a reversed topological order), so it is safe
// on catchments far deeper than any reasonable goroutine call stack.
func Compute(g Graph) map[catchment.ReachID]int {
	ids := g.ReachIDs()
	n := len(ids)
	if n == 0 {
		return map[catchment.ReachID]int{}
	}
	if n == 1 {
		return map[catchment.ReachID]int{ids[0]: 1}
	}

	index := make(map[catchment.ReachID]int, n)
	for i, id := range ids {
		index[id] = i
	}

	children := make([][]int, n)
	indeg := make([]int, n) // indegree within the *reversed* graph, i.e. out-degree in the original
	for _, id := range ids {
		u := index[id]
		for _, c := range g.Children(id) {
			v := index[c]
			children[u] = append(children[u], v)
			indeg[u]++
		}
	}

	// Process nodes in order of increasing remaining out-degree (leaves
	// first): a min-heap over "ready" nodes (those whose children have all
	// been ranked already), keyed by canonical index for determinism.
	remaining := make([]int, n)
	copy(remaining, indeg)

	rank := make([]int, n)
	ready := &intMinHeap{}
	for i := 0; i < n; i++ {
		if remaining[i] == 0 {
			heap.Push(ready, i)
		}
	}

	// Track, for each node, how many of its children have yet to be
	// ranked in this reversed pass, so a parent becomes ready exactly
	// when all of its children have been ranked.
	parents := make([][]int, n)
	for u := 0; u < n; u++ {
		for _, v := range children[u] {
			parents[v] = append(parents[v], u)
		}
	}
	unrankedChildren := make([]int, n)
	copy(unrankedChildren, indeg)

	rankedCount := 0
	for ready.Len() > 0 {
		u := heap.Pop(ready).(int)
		if len(children[u]) == 0 {
			rank[u] = 1
		} else {
			maxChildRank := 0
			for _, v := range children[u] {
				if rank[v] > maxChildRank {
					maxChildRank = rank[v]
				}
			}
			rank[u] = 1 + maxChildRank
		}
		rankedCount++

		for _, p := range parents[u] {
			unrankedChildren[p]--
			if unrankedChildren[p] == 0 {
				heap.Push(ready, p)
			}
		}
	}
	_ = rankedCount // topology already validated acyclic by catchment.Finalize

	type rankedNode struct {
		id   catchment.ReachID
		rank int
	}
	nodes := make([]rankedNode, n)
	for i, id := range ids {
		nodes[i] = rankedNode{id: id, rank: rank[index[id]]}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].rank != nodes[j].rank {
			return nodes[i].rank > nodes[j].rank // descending rank first
		}
		return nodes[i].id < nodes[j].id // tie-break ascending ReachID
	})

	out := make(map[catchment.ReachID]int, n)
	for i, rn := range nodes {
		out[rn.id] = i
	}
	return out
}

type intMinHeap []int

func (h intMinHeap) Len() int            { return len(h) }
func (h intMinHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
