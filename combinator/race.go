package combinator

import (
	"sync"

	"github.com/joeycumines/go-coexec"
)

// Race returns a Future that becomes Ready as soon as any one of futures
// does (spec.md's no-value Future has nothing to report beyond which index
// won, so Race records that on RaceFuture for callers that care). This is
// the direct Go counterpart of `utils.rs`'s own `race`/`select2`/`select3`/
// `select4`: that poll loop walks its array of contenders once per call and
// returns the first one Ready, exactly the loop below — adapted from a
// fixed-size const-generic array of borrowed futures to a Go variadic
// slice, and from select's per-branch sum-type result (`Sel2`/`Sel3`/
// `Sel4`) to the plain winner index `RaceFuture.Winner` reports, since this
// domain's Future carries no output value to wrap.
func Race(futures ...coexec.Future) *RaceFuture {
	return &RaceFuture{remaining: futures, winner: -1}
}

// RaceFuture is returned by [Race].
type RaceFuture struct {
	mu        sync.Mutex
	remaining []coexec.Future
	done      bool
	winner    int
}

// Poll implements [coexec.Future]. Every still-pending branch is polled on
// every call with the same waker (spec.md §4.2: a Future may share one
// waker across several things it's waiting on); the first branch to return
// Ready wins and the rest are dropped.
func (r *RaceFuture) Poll(w *coexec.Waker) coexec.PollResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return coexec.Ready
	}
	for i, f := range r.remaining {
		if f == nil {
			continue
		}
		if f.Poll(w) == coexec.Ready {
			r.done = true
			r.winner = i
			return coexec.Ready
		}
	}
	return coexec.Pending
}

// Winner returns the index into the futures passed to Race of the branch
// that completed first. Valid only after Poll has returned Ready.
func (r *RaceFuture) Winner() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winner
}

// All returns a Future that becomes Ready once every one of futures has.
// Adapted from eventloop's JS.All, stripped of per-promise result
// aggregation since this domain's Future carries no value.
func All(futures ...coexec.Future) coexec.Future {
	remaining := make([]coexec.Future, len(futures))
	copy(remaining, futures)
	return &allFuture{remaining: remaining}
}

type allFuture struct {
	mu        sync.Mutex
	remaining []coexec.Future
}

func (a *allFuture) Poll(w *coexec.Waker) coexec.PollResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	live := a.remaining[:0]
	for _, f := range a.remaining {
		if f.Poll(w) == coexec.Ready {
			continue
		}
		live = append(live, f)
	}
	a.remaining = live
	if len(a.remaining) == 0 {
		return coexec.Ready
	}
	return coexec.Pending
}
