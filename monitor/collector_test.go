package monitor

import (
	"testing"
	"time"

	"github.com/joeycumines/go-coexec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorImplementsSink(t *testing.T) {
	var _ coexec.Sink = (*Collector)(nil)
}

func TestCollectorRecordsRecentEventsInOrder(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, 16)

	c.TaskDecl(1, "alpha", 0)
	c.Polling(1, time.Now())
	c.PollReady(1, time.Now())

	events := c.Recent()
	require.Len(t, events, 2)
	assert.Equal(t, "declared", events[0].Kind)
	assert.Equal(t, "ready", events[1].Kind)
	assert.EqualValues(t, 1, events[0].TaskId)
}

func TestCollectorRecentWrapsAroundRingBuffer(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, 16) // the minimum ring size NewCollector allows

	for i := 0; i < 40; i++ {
		c.TaskDecl(coexec.TaskId(i), "", 0)
	}

	events := c.Recent()
	assert.Len(t, events, 16)
	// The oldest retained event should be TaskId 24 (40-16), the 25th declared.
	assert.EqualValues(t, 24, events[0].TaskId)
	assert.EqualValues(t, 39, events[len(events)-1].TaskId)
}

func TestCollectorUpdateSplitsDeclaredFromLifecycleEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, 16)

	c.TaskDecl(1, "alpha", 0)
	c.Polling(1, time.Now())
	c.PollReady(1, time.Now())

	u := c.Update()
	require.Len(t, u.NewTasks, 1)
	assert.Equal(t, "declared", u.NewTasks[0].Kind)
	require.Len(t, u.TaskEvents, 1)
	assert.Equal(t, "ready", u.TaskEvents[0].Kind)
	assert.False(t, u.CurrentTime.IsZero())
}

func TestCollectorEndToEndWithExecutor(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, 64)

	exec, err := coexec.New(2, coexec.WithMonitor(c))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, exec.Submit(coexec.FutureFunc(func(w *coexec.Waker) coexec.PollResult {
			return coexec.Ready
		})))
	}
	require.NoError(t, exec.Join())

	events := c.Recent()
	assert.NotEmpty(t, events)
}
