package combinator

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeycumines/go-coexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countdownFuture becomes Ready after a fixed number of polls.
type countdownFuture struct {
	remaining int32
}

func (f *countdownFuture) Poll(w *coexec.Waker) coexec.PollResult {
	if atomic.AddInt32(&f.remaining, -1) <= 0 {
		return coexec.Ready
	}
	w.Wake()
	return coexec.Pending
}

func pollToReady(t *testing.T, f coexec.Future, limit int) {
	t.Helper()
	w := &coexec.Waker{}
	for i := 0; i < limit; i++ {
		if f.Poll(w) == coexec.Ready {
			return
		}
	}
	t.Fatalf("future did not reach Ready within %d polls", limit)
}

func TestSleepBecomesReadyAfterDuration(t *testing.T) {
	exec, err := coexec.New(1)
	require.NoError(t, err)

	done := make(chan struct{})
	s := Sleep(10 * time.Millisecond)
	require.NoError(t, exec.Submit(coexec.FutureFunc(func(w *coexec.Waker) coexec.PollResult {
		if s.Poll(w) == coexec.Ready {
			close(done)
			return coexec.Ready
		}
		return coexec.Pending
	})))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sleep task never completed")
	}
	require.NoError(t, exec.Join())
}

func TestSleepUntilBecomesReadyAtDeadline(t *testing.T) {
	exec, err := coexec.New(1)
	require.NoError(t, err)

	done := make(chan struct{})
	s := SleepUntil(time.Now().Add(10 * time.Millisecond))
	require.NoError(t, exec.Submit(coexec.FutureFunc(func(w *coexec.Waker) coexec.PollResult {
		if s.Poll(w) == coexec.Ready {
			close(done)
			return coexec.Ready
		}
		return coexec.Pending
	})))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sleep-until task never completed")
	}
	require.NoError(t, exec.Join())
}

func TestSleepUntilPastDeadlineFiresImmediately(t *testing.T) {
	s := SleepUntil(time.Now().Add(-time.Second))
	pollToReady(t, s, 1000)
}

func TestTimeoutReportsWinner(t *testing.T) {
	fast := &countdownFuture{remaining: 2}
	to := Timeout(fast, time.Second)
	pollToReady(t, to, 10)
	assert.False(t, to.TimedOut())
}

func TestTimeoutFiresBeforeInnerCompletes(t *testing.T) {
	never := coexec.FutureFunc(func(w *coexec.Waker) coexec.PollResult { return coexec.Pending })
	to := Timeout(never, 10*time.Millisecond)

	w := &coexec.Waker{}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if to.Poll(w) == coexec.Ready {
			assert.True(t, to.TimedOut())
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timeout never fired")
}

func TestRacePicksFirstReady(t *testing.T) {
	slow := &countdownFuture{remaining: 100}
	fast := &countdownFuture{remaining: 1}
	r := Race(slow, fast)
	pollToReady(t, r, 200)
	assert.Equal(t, 1, r.Winner())
}

func TestAllWaitsForEveryBranch(t *testing.T) {
	a := &countdownFuture{remaining: 2}
	b := &countdownFuture{remaining: 5}
	c := &countdownFuture{remaining: 1}
	all := All(a, b, c)
	pollToReady(t, all, 50)
}
