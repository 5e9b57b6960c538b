package coexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerInstallReusesFreedSlots(t *testing.T) {
	w := newWorker(0, noopSink{}, defaultLogger())

	bit1 := w.install(admittedTask{id: 1, fut: FutureFunc(func(*Waker) PollResult { return Ready })})
	bit2 := w.install(admittedTask{id: 2, fut: FutureFunc(func(*Waker) PollResult { return Pending })})
	require.Len(t, w.slots, 2)

	// Sweep with the bits install itself returned, exactly as run() folds
	// drainAdmissions' return value into the same iteration's sweep.
	w.sweep(bit1 | bit2)
	assert.Nil(t, w.slots[0].fut)
	assert.NotNil(t, w.slots[1].fut)

	w.install(admittedTask{id: 3, fut: FutureFunc(func(*Waker) PollResult { return Pending })})
	require.Len(t, w.slots, 2, "slot 0 should have been reused rather than appending")
	assert.EqualValues(t, 3, w.slots[0].id)
}

func TestWorkerSweepOnlyPollsSetBits(t *testing.T) {
	w := newWorker(0, noopSink{}, defaultLogger())

	var polledA, polledB bool
	bitA := w.install(admittedTask{id: 1, fut: FutureFunc(func(*Waker) PollResult {
		polledA = true
		return Pending
	})})
	_ = w.install(admittedTask{id: 2, fut: FutureFunc(func(*Waker) PollResult {
		polledB = true
		return Pending
	})})

	w.sweep(bitA)
	assert.True(t, polledA)
	assert.False(t, polledB)
}

func TestWorkerDrainAdmissionsInstallsAndDetectsClose(t *testing.T) {
	w := newWorker(0, noopSink{}, defaultLogger())

	require.True(t, w.admit.push(admittedTask{id: 1, fut: FutureFunc(func(*Waker) PollResult { return Ready })}))
	bits := w.drainAdmissions()
	require.Len(t, w.slots, 1)
	assert.True(t, w.canRecv)
	assert.NotZero(t, bits, "newly installed task's bit must be reported for same-iteration sweep")

	w.admit.closeQueue()
	w.drainAdmissions()
	assert.False(t, w.canRecv)
}

func TestWorkerRunExitsWhenClosedAndDrained(t *testing.T) {
	w := newWorker(0, noopSink{}, defaultLogger())
	w.admit.closeQueue()
	w.state.newTask.Store(true)
	w.state.unpark()

	err := w.run()
	assert.NoError(t, err)
}

func TestWorkerRunRecoversPanicAndReportsTaskId(t *testing.T) {
	w := newWorker(0, noopSink{}, defaultLogger())
	require.True(t, w.admit.push(admittedTask{id: 42, fut: FutureFunc(func(*Waker) PollResult {
		panic("kaboom")
	})}))
	w.state.newTask.Store(true)
	w.state.unpark()

	err := w.run()
	require.Error(t, err)

	panicErr, ok := err.(PanicError)
	require.True(t, ok)
	assert.EqualValues(t, 42, panicErr.TaskId)
	assert.Equal(t, "kaboom", panicErr.Value)
}
