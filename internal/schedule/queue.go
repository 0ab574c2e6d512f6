// Package schedule implements the priority-dispatched command queue,
// report channel, scheduler coordinator, and worker pool that drive a
// Catchment to completion: a two-phase init/run flow over a
// heap-backed deterministic priority queue.
package schedule

import (
	"container/heap"
	"sync"

	"github.com/xlandscape/catchflow/internal/catchment"
)

// Command is one unit of work placed on the CommandQueue: dispatch
// Action on Snapshot at the given Priority. A Stop command carries no
// meaningful Snapshot/Priority and is used solely to terminate a worker.
type Command struct {
	Priority int
	Snapshot catchment.Snapshot
	Action   catchment.Action
}

// commandItem is the heap element: Command plus a monotonically
// increasing sequence number used as the tiebreaker so equal-priority
// items pop in submission order (stability is not required by the
// specification, but a deterministic rule makes tests reproducible).
type commandItem struct {
	cmd Command
	seq int
}

type commandHeap []commandItem

func (h commandHeap) Len() int { return len(h) }
func (h commandHeap) Less(i, j int) bool {
	if h[i].cmd.Priority != h[j].cmd.Priority {
		return h[i].cmd.Priority < h[j].cmd.Priority
	}
	return h[i].seq < h[j].seq
}
func (h commandHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *commandHeap) Push(x interface{}) { *h = append(*h, x.(commandItem)) }
func (h *commandHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// CommandQueue is a concurrent priority queue: non-blocking push,
// blocking pop, lowest Priority value first. Safe for multiple
// concurrent producers (the scheduler's coordinator is in fact the only
// producer) and multiple concurrent consumers (worker goroutines).
type CommandQueue struct {
	mu   sync.Mutex
	cond *sync.Cond
	h    commandHeap
	seq  int
}

// NewCommandQueue returns an empty CommandQueue.
func NewCommandQueue() *CommandQueue {
	q := &CommandQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues cmd. Never blocks.
func (q *CommandQueue) Push(cmd Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	heap.Push(&q.h, commandItem{cmd: cmd, seq: q.seq})
	q.cond.Signal()
}

// Pop blocks until a command is available, then returns the one with the
// lowest Priority value.
func (q *CommandQueue) Pop() Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.h.Len() == 0 {
		q.cond.Wait()
	}
	item := heap.Pop(&q.h).(commandItem)
	return item.cmd
}

// Len reports the number of commands currently queued (diagnostic use
// only; not part of the scheduling contract).
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.h.Len()
}
