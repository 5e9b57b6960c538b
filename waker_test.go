package coexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWakerStateSwapAndClear(t *testing.T) {
	s := newWakerState()

	ready, newTask := s.swapAndClear()
	assert.Zero(t, ready)
	assert.False(t, newTask)

	s.ready.Or(1 << 3)
	s.newTask.Store(true)

	ready, newTask = s.swapAndClear()
	assert.Equal(t, uint64(1<<3), ready)
	assert.True(t, newTask)

	// A second swap observes a clean slate.
	ready, newTask = s.swapAndClear()
	assert.Zero(t, ready)
	assert.False(t, newTask)
}

func TestWakerWakeSetsBitAndUnparks(t *testing.T) {
	s := newWakerState()
	w := newWaker(s, 5)

	w.Wake()

	select {
	case <-s.parkToken:
	default:
		t.Fatal("expected a park token to be available after Wake")
	}

	ready, _ := s.swapAndClear()
	assert.Equal(t, uint64(1<<5), ready)
}

func TestWakerChannelSlotSetsNewTaskFlag(t *testing.T) {
	s := newWakerState()
	w := newWaker(s, channelSlot)

	w.Wake()

	_, newTask := s.swapAndClear()
	assert.True(t, newTask)
}

func TestWakerNilIsHarmless(t *testing.T) {
	var w *Waker
	assert.NotPanics(t, func() { w.Wake() })

	w2 := &Waker{}
	assert.NotPanics(t, func() { w2.Wake() })
}

func TestWakerCloneIsIndependentValue(t *testing.T) {
	s := newWakerState()
	w := newWaker(s, 2)
	clone := w.Clone()

	require.NotSame(t, w, clone)
	assert.Equal(t, w.index, clone.index)
	assert.Same(t, w.state, clone.state)

	clone.Wake()
	ready, _ := s.swapAndClear()
	assert.Equal(t, uint64(1<<2), ready)
}

func TestUnparkIsIdempotentBetweenIterations(t *testing.T) {
	s := newWakerState()
	s.unpark()
	s.unpark()
	s.unpark()

	select {
	case <-s.parkToken:
	default:
		t.Fatal("expected one buffered token")
	}
	select {
	case <-s.parkToken:
		t.Fatal("expected no second token")
	default:
	}
}
