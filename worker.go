package coexec

import (
	"time"

	"github.com/joeycumines/logiface"
)

// worker owns one goroutine, its admission queue, and its slot table. It is
// never touched by any goroutine other than its own except via the atomics
// in its [wakerState] and a push onto admit (an [admissionQueue], safe for
// concurrent producers and a single consumer).
type worker struct {
	index int

	admit    *admissionQueue
	canRecv  bool
	state    *wakerState
	slots    []taskSlot
	numStart uint64
	numEnd   uint64

	curTaskID TaskId // id of the task currently being polled; valid only during pollOne

	sink Sink
	log  *logiface.Logger[logiface.Event]
}

func newWorker(index int, sink Sink, log *logiface.Logger[logiface.Event]) *worker {
	return &worker{
		index:   index,
		admit:   &admissionQueue{},
		canRecv: true,
		state:   newWakerState(),
		sink:    sink,
		log:     log,
	}
}

// run is the worker's main loop, implementing spec.md §4.1 verbatim:
//
//  1. Atomically read-and-reset the readiness bitmap and new-task flag.
//  2. Terminate if every started task has ended and the channel is closed.
//  3. Park if both reads were zero/false.
//  4. Drain the admission channel if the new-task flag was set.
//  5. Sweep every slot whose bit is set in the locally captured bitmap.
//
// run recovers a panicking task's poll, treats it as fatal to the worker,
// and returns it as the worker's failure (spec.md §7: a task panic is "a
// bug in the task"; it is fatal to the worker but other workers are
// unaffected, and Executor.Join surfaces the first such failure to the
// caller).
func (w *worker) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			panicErr := PanicError{WorkerIndex: w.index, TaskId: w.curTaskID, Value: r}
			w.log.Err().Int(`worker`, w.index).Err(panicErr).Log(`task poll panicked; worker exiting`)
			err = panicErr
		}
	}()

	for {
		ready, newTask := w.state.swapAndClear()

		if w.numStart == w.numEnd && !w.canRecv {
			return nil
		}

		if ready == 0 && !newTask {
			<-w.state.parkToken
			continue
		}

		if newTask {
			// OR the freshly installed tasks' bits into the *local* ready
			// value handed to sweep below, not just the shared atomic —
			// otherwise a task admitted this iteration is only discovered
			// on the *next* swapAndClear, one iteration late (the original
			// Rust runner folds install's bit into its own local
			// ready_flags for exactly this reason; lib.rs's runner, around
			// "ready_flags |= 1 << (i % FLAGS)").
			ready |= w.drainAdmissions()
		}

		w.sweep(ready)
	}
}

// drainAdmissions empties the admission queue in one shot (the "special
// waker with index = channelSlot" from spec.md §3 is realized here as the
// admissionQueue's own closed flag, which plays the role of the receive
// future's Pending/closed distinction) and returns the OR of every newly
// installed task's readiness bit, for the caller to fold into the ready
// value this same iteration's sweep acts on.
func (w *worker) drainAdmissions() (extra uint64) {
	items, closed := w.admit.drain()
	for _, t := range items {
		extra |= w.install(t)
	}
	if closed {
		w.canRecv = false
		w.log.Debug().Int(`worker`, w.index).Log(`admission channel closed`)
	}
	return extra
}

// install places t into the lowest-indexed free slot (or appends), emits
// the TaskDecl telemetry event, and returns the slot's readiness bit so it
// is polled this very iteration. It does not touch the shared wakerState
// bitmap directly: that bitmap exists so outstanding Wakers can resume a
// parked worker, but a task fresh off the admission queue is about to be
// swept by the very loop iteration that drained it, so there is nothing
// for a later iteration to rediscover.
func (w *worker) install(t admittedTask) uint64 {
	idx := -1
	for i := range w.slots {
		if w.slots[i].fut == nil {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = len(w.slots)
		w.slots = append(w.slots, taskSlot{})
	}
	w.slots[idx] = taskSlot{id: t.id, fut: t.fut}
	w.numStart++
	bit := uint64(1) << uint(idx%bits)
	w.sink.TaskDecl(t.id, t.name, w.index)
	w.log.Debug().
		Uint64(`task_id`, uint64(t.id)).
		Int(`slot`, idx).
		Int(`worker`, w.index).
		Log(`task admitted`)
	return bit
}

// sweep walks every occupied slot whose index maps to a set bit in ready
// and polls it. Slot indices are visited in ascending order (spec.md §5:
// "deterministic order but NOT a submission order").
func (w *worker) sweep(ready uint64) {
	for i := range w.slots {
		slot := &w.slots[i]
		if slot.fut == nil {
			continue
		}
		bit := uint64(1) << uint(i%bits)
		if ready&bit == 0 {
			continue
		}
		w.pollOne(i, slot)
	}
}

func (w *worker) pollOne(i int, slot *taskSlot) {
	w.sink.Polling(slot.id, time.Now())

	w.curTaskID = slot.id
	waker := newWaker(w.state, uint32(i%bits))
	result := slot.fut.Poll(waker)

	switch result {
	case Ready:
		w.sink.PollReady(slot.id, time.Now())
		*slot = taskSlot{}
		w.numEnd++
	default:
		w.sink.PollPending(slot.id, time.Now())
	}
}

// channelWaker returns the reserved waker used to signal "the admission
// queue may have new work". It is exposed only for tests that need to
// simulate an external producer waking a sleeping worker; Submit itself
// calls state.unpark directly rather than going through a Waker value.
func (w *worker) channelWaker() *Waker {
	return newWaker(w.state, channelSlot)
}
