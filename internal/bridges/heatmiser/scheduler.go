package heatmiser

import (
	"container/heap"
	"sync"
)

// Scheduler is the bridge's priority work queue.
//
// Ordering is strict: a lower Priority value always dequeues before a
// higher one, and tasks of equal priority dequeue in enqueue order
// (FIFO, via monotonic sequence numbers). Enqueue never blocks; the
// queue is unbounded because the PollGate already caps poll pressure
// and command volume is human-scale.
//
// Thread Safety: all methods are safe for concurrent use.
type Scheduler struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  taskHeap
	seq    uint64
	closed bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Enqueue adds a task to the queue, assigning its sequence number.
//
// Returns:
//   - error: ErrStopped if the scheduler has been closed
func (s *Scheduler) Enqueue(t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStopped
	}

	t.seq = s.seq
	s.seq++
	heap.Push(&s.tasks, t)
	s.cond.Signal()
	return nil
}

// Next blocks until a task is available or the scheduler is closed.
//
// Returns:
//   - *Task: The highest-priority, oldest task
//   - bool: false if the scheduler is closed and drained
func (s *Scheduler) Next() (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.tasks) == 0 && !s.closed {
		s.cond.Wait()
	}

	if len(s.tasks) == 0 {
		return nil, false
	}

	t := heap.Pop(&s.tasks).(*Task)
	return t, true
}

// Len returns the number of queued tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Close stops the scheduler. Queued tasks are still handed out by Next
// until the queue drains; further Enqueue calls fail with ErrStopped.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cond.Broadcast()
}

// taskHeap implements heap.Interface ordered by (priority, seq).
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(*Task))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
