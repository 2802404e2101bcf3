package heatmiser

import "sync"

// PollGate ensures at most one poll is queued or executing at a time.
//
// The poll timer calls TryStart before enqueueing; the worker calls
// Finish when a poll task completes (success or failure). If a poll is
// still pending when the timer fires again — a slow bus, or a burst of
// commands holding the queue — the new poll is skipped rather than
// stacked, so poll pressure coalesces instead of building a backlog.
//
// Thread Safety: all methods are safe for concurrent use.
type PollGate struct {
	mu      sync.Mutex
	pending bool
}

// TryStart attempts to claim the poll slot.
//
// Returns:
//   - bool: true if claimed (caller must ensure Finish is eventually
//     called), false if a poll is already pending
func (g *PollGate) TryStart() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending {
		return false
	}
	g.pending = true
	return true
}

// Finish releases the poll slot. Called by the worker when a poll task
// completes, whether it succeeded or failed.
func (g *PollGate) Finish() {
	g.mu.Lock()
	g.pending = false
	g.mu.Unlock()
}

// Pending reports whether a poll is currently queued or executing.
func (g *PollGate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}
