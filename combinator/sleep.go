// Package combinator provides [coexec.Future] implementations built purely
// atop the core's public Future/Waker contract: Sleep, SleepUntil, Timeout,
// Race, and All — the same set `utils.rs` (race/select) and `time.rs`
// (sleep/sleep_until/timeout) provide in the original async-exec this
// module is derived from. None of these need access to coexec's internals
// — they are exactly the kind of user-level task a caller of the core
// package would write for themselves, kept here because they are common
// enough to share.
package combinator

import (
	"sync"
	"time"

	"github.com/joeycumines/go-coexec"
)

// Sleep returns a Future that becomes Ready once d has elapsed. It arms a
// single [time.Timer] on its first poll and wakes its waker from the
// timer's own goroutine, the same pattern eventloop's timer wheel uses at a
// larger scale (a per-task AfterFunc instead of a shared heap, since a
// single Future has no need for one).
func Sleep(d time.Duration) coexec.Future {
	return &sleepFuture{d: d}
}

type sleepFuture struct {
	d     time.Duration
	until time.Time // if set, d is recomputed from it at first poll
	mu    sync.Mutex
	timer *time.Timer
	fired bool
}

func (s *sleepFuture) Poll(w *coexec.Waker) coexec.PollResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fired {
		return coexec.Ready
	}
	if s.timer == nil {
		if !s.until.IsZero() {
			s.d = time.Until(s.until)
		}
		waker := w.Clone()
		s.timer = time.AfterFunc(s.d, func() {
			s.mu.Lock()
			s.fired = true
			s.mu.Unlock()
			waker.Wake()
		})
	}
	return coexec.Pending
}

// SleepUntil returns a Future that becomes Ready once the wall clock
// reaches when, the absolute-deadline counterpart to [Sleep] — the
// original `time.rs` exposes both `sleep(Duration)` and
// `sleep_until(Instant)` as thin wrappers around the same timer
// primitive, so this does likewise: it is [Sleep] handed a duration
// computed from when at first poll (a negative/zero duration, i.e. a
// deadline already in the past, fires on the next timer tick).
func SleepUntil(when time.Time) coexec.Future {
	return &sleepFuture{until: when}
}
