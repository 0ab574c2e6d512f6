package catchment

import "container/heap"

// intMinHeap is a min-heap of canonical node indices, used to obtain a
// deterministic processing order independent of map iteration order.
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

// topoOrderIndices returns a deterministic topological order of canonical
// node indices using Kahn's algorithm with a min-heap as the ready queue:
// among all currently-ready nodes the lowest canonical index always goes
// next, so the result does not depend on map iteration order.
//
// outgoing[i] lists the canonical indices of i's children.
func topoOrderIndices(outgoing [][]int, n int) []int {
	indeg := make([]int, n)
	for _, children := range outgoing {
		for _, c := range children {
			indeg[c]++
		}
	}

	ready := &intMinHeap{}
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	order := make([]int, 0, n)
	for ready.Len() > 0 {
		u := heap.Pop(ready).(int)
		order = append(order, u)
		for _, v := range outgoing[u] {
			indeg[v]--
			if indeg[v] == 0 {
				heap.Push(ready, v)
			}
		}
	}
	return order
}

// findCycleDeterministic returns one cycle (as canonical indices) via a
// DFS with white/gray/black coloring, visiting children in ascending
// canonical-index order so the witness is deterministic.
func findCycleDeterministic(outgoing [][]int, n int) []int {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, n)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}

	var cycleStart, cycleEnd int = -1, -1

	var visit func(u int) bool
	visit = func(u int) bool {
		color[u] = gray
		for _, v := range outgoing[u] {
			if color[v] == white {
				parent[v] = u
				if visit(v) {
					return true
				}
			} else if color[v] == gray {
				cycleStart, cycleEnd = v, u
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := 0; i < n; i++ {
		if color[i] == white {
			if visit(i) {
				break
			}
		}
	}

	if cycleStart == -1 {
		return nil
	}

	path := []int{cycleStart}
	for cur := cycleEnd; cur != cycleStart; cur = parent[cur] {
		path = append(path, cur)
	}
	// path is currently end->...->start order (reversed relative to traversal);
	// reverse it so it reads start -> ... -> end -> start.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	path = append(path, cycleStart)
	return path
}
