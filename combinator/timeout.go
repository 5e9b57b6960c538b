package combinator

import (
	"sync"
	"time"

	"github.com/joeycumines/go-coexec"
)

// Timeout is the Go counterpart of `time.rs`'s `FutureTimeout::timeout`,
// which races `self` against `sleep(duration)` via `futures_lite::or` and
// yields `None` if the sleep wins. This domain's Future has no output
// value to wrap in `Option`, so Timeout instead reports which side won via
// TimedOut, checked after Poll returns Ready.
//
// Timeout wraps inner so that polling it returns Ready either when inner
// does, or once d has elapsed, whichever comes first. TimedOut reports
// which one happened. If inner becomes Ready after the deadline has
// already fired, Timeout still reports TimedOut true — inner is not polled
// again once the deadline has fired, matching the "Poll is never called
// again for this task" contract a caller composing Timeout itself must
// honor for its own Future.
func Timeout(inner coexec.Future, d time.Duration) *TimeoutFuture {
	return &TimeoutFuture{inner: inner, d: d}
}

// TimeoutFuture is returned by [Timeout].
type TimeoutFuture struct {
	inner coexec.Future
	d     time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	expired  bool
	done     bool
	timedOut bool
}

// Poll implements [coexec.Future].
func (t *TimeoutFuture) Poll(w *coexec.Waker) coexec.PollResult {
	t.mu.Lock()
	if t.timer == nil {
		waker := w.Clone()
		t.timer = time.AfterFunc(t.d, func() {
			t.mu.Lock()
			t.expired = true
			t.mu.Unlock()
			waker.Wake()
		})
	}
	if t.done {
		t.mu.Unlock()
		return coexec.Ready
	}
	expired := t.expired
	t.mu.Unlock()

	if expired {
		t.mu.Lock()
		t.done = true
		t.timedOut = true
		t.mu.Unlock()
		t.timer.Stop()
		return coexec.Ready
	}

	if t.inner.Poll(w) == coexec.Ready {
		t.mu.Lock()
		t.done = true
		t.mu.Unlock()
		t.timer.Stop()
		return coexec.Ready
	}
	return coexec.Pending
}

// TimedOut reports whether the deadline fired before inner completed. Valid
// only after Poll has returned Ready.
func (t *TimeoutFuture) TimedOut() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timedOut
}
