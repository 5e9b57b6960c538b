package coexec

import "sync"

// admissionQueue is the per-worker MPSC admission channel from spec.md §3:
// "Multi-producer single-consumer; yields Tasks in FIFO order; closes when
// all producers drop." Go's native channels already are MPSC-safe, but a
// buffered channel has a finite capacity, and the spec requires Submit to
// be non-blocking "independent of worker state" (spec.md §8) — a full
// channel would block a producer. So admissionQueue instead follows the
// teacher's own "GOJA-STYLE QUEUE" pattern (eventloop/loop.go: auxJobs /
// auxJobsSpare, a mutex-protected slice with buffer-swap draining), which
// is genuinely unbounded and whose push is a single O(1) append under a
// short-held lock.
type admissionQueue struct {
	mu     sync.Mutex
	active []admittedTask
	spare  []admittedTask
	closed bool
}

// push appends t to the queue. It reports false if the queue has already
// been closed (spec.md: "admission channel error is interpreted as no more
// tasks will arrive, not a crash" — callers treat a false return the same
// way, as ErrExecutorClosed).
func (q *admissionQueue) push(t admittedTask) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.active = append(q.active, t)
	return true
}

// closeQueue marks the queue closed; producers after this point are
// rejected by push.
func (q *admissionQueue) closeQueue() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// drain swaps out every task currently queued in one O(1) operation and
// reports whether the queue is closed (spec.md §4.1 step 4: "Break out of
// the drain when the receive future returns Pending... or yields a
// closed/error indication"). Because drain always empties the active
// buffer, "Pending" and "drained" are the same event here — there is
// nothing left to retry.
func (q *admissionQueue) drain() (items []admittedTask, closed bool) {
	q.mu.Lock()
	items, q.active = q.active, q.spare[:0]
	q.spare = items[:0]
	closed = q.closed
	q.mu.Unlock()
	return items, closed
}
