package coexec

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Executor is a fixed-size pool of N worker goroutines created eagerly at
// construction (spec.md §4.3). It is an owned value; multiple Executors may
// coexist, and there is no global state (spec.md §9).
type Executor struct {
	workers []*worker
	nextID  atomic.Uint64
	joined  atomic.Bool

	refs atomic.Int32 // reference count for JoinShared/Acquire/Release

	group *errgroup.Group
}

// New constructs an Executor with n worker goroutines, spawned immediately.
// n must be >= 1.
func New(n int, opts ...ExecutorOption) (*Executor, error) {
	if n < 1 {
		return nil, errInvalidWorkerCount
	}
	cfg, err := resolveExecutorOptions(opts)
	if err != nil {
		return nil, err
	}

	e := &Executor{
		workers: make([]*worker, n),
		group:   new(errgroup.Group),
	}

	for i := 0; i < n; i++ {
		w := newWorker(i, cfg.sink, cfg.log)
		e.workers[i] = w
		e.group.Go(func() error {
			if err := w.run(); err != nil {
				return &JoinError{WorkerIndex: w.index, Err: err}
			}
			return nil
		})
	}

	return e, nil
}

var errInvalidWorkerCount = &invalidWorkerCountError{}

type invalidWorkerCountError struct{}

func (*invalidWorkerCountError) Error() string { return "coexec: worker count must be >= 1" }

// Submit allocates a fresh [TaskId] (fetch-add on an internal counter),
// routes the task to worker `id mod N` by that id, and pushes it onto that
// worker's admission queue without blocking on worker state (spec.md
// §4.3, §8: "submit does not block").
//
// Submit fails only after Join has begun (see DESIGN.md's resolution of
// spec.md §9's open question on post-join submission).
func (e *Executor) Submit(f Future) error {
	return e.submit(f, "")
}

// SubmitNamed is like Submit but attaches a human-readable name, consumed
// only by the telemetry [Sink] (spec.md §6).
func (e *Executor) SubmitNamed(f Future, name string) error {
	return e.submit(f, name)
}

func (e *Executor) submit(f Future, name string) error {
	if e.joined.Load() {
		return ErrExecutorClosed
	}
	id := TaskId(e.nextID.Add(1) - 1)
	w := e.workers[int(id)%len(e.workers)]
	if !w.admit.push(admittedTask{id: id, name: name, fut: f}) {
		return ErrExecutorClosed
	}
	w.state.newTask.Store(true)
	w.state.unpark()
	return nil
}

// Join closes every worker's admission queue, waits for every worker
// goroutine to exit, and returns either nil (every worker finished
// cleanly) or the first observed worker failure (spec.md §4.3, §7).
//
// Join is idempotent: calling it more than once is safe and simply waits
// again (the second call observes the already-closed channels and already
// -exited goroutines).
func (e *Executor) Join() error {
	if e.joined.CompareAndSwap(false, true) {
		for _, w := range e.workers {
			w.admit.closeQueue()
			w.state.newTask.Store(true)
			w.state.unpark()
		}
	}
	return e.group.Wait()
}

// Acquire increments Executor's shared-handle reference count, for callers
// using [Executor.JoinShared]. Release must be called exactly once per
// Acquire.
func (e *Executor) Acquire() { e.refs.Add(1) }

// Release decrements the shared-handle reference count incremented by
// Acquire.
func (e *Executor) Release() { e.refs.Add(-1) }

// JoinShared is the alternative join form for callers that must share an
// Executor (spec.md §4.3's non-normative "alternative join-from-shared
// -handle form"): it polls the Acquire/Release reference count at the
// given interval until it observes sole ownership (count <= 0), then
// proceeds with a normal Join. Callers that force exclusive ownership at
// join time may simply use Join directly instead.
func (e *Executor) JoinShared(ctx context.Context, pollEvery time.Duration) error {
	if pollEvery <= 0 {
		pollEvery = 100 * time.Millisecond
	}
	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()
	for {
		if e.refs.Load() <= 0 {
			return e.Join()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// WorkerCount returns N, the number of workers this Executor was
// constructed with.
func (e *Executor) WorkerCount() int { return len(e.workers) }
