package coexec

import "sync/atomic"

// bits is the fixed width of a worker's readiness bitmap, B in spec.md's
// terms. A slot index i shares readiness bit i mod bits; sharing a bit is a
// deliberate soundness optimization (spec.md §3 invariant 3): a set bit
// means "poll every slot that maps to it", false positives are tolerated,
// false negatives are forbidden. 64 is the natural choice for a 64-bit
// atomic word; the width is this package constant and is not configurable
// per worker.
const bits = 64

// channelSlot is the reserved waker index (== bits) used for the
// admission-channel's own readiness signal, per spec.md §3's WakerHandle
// row ("also one special waker per worker with index = B").
const channelSlot = bits

// wakerState is the coordination record shared between exactly one worker
// goroutine and any number of outstanding [*Waker] handles that worker has
// produced. It is the sole signal required to resume the worker: if either
// the bitmap or the newTask flag becomes true after the worker's last read,
// the worker must eventually observe that and wake (spec.md §3 invariant
// 4).
//
// All fields are mutated only via atomic operations; there is no lock.
// Ordering discipline: every access is sequentially consistent, which the
// Go memory model guarantees for sync/atomic operations on the same
// variable — a waker's update can never be lost across the worker's
// park/poll boundary (spec.md §5).
type wakerState struct {
	// ready is the B-bit readiness bitmap. Bit i is set by a Waker with
	// index i, and means "slot i, slot i+bits, slot i+2*bits, ... may be
	// ready; poll them".
	ready atomic.Uint64

	// newTask is set by the channelSlot waker to mean "the admission
	// channel may have work; drain it".
	newTask atomic.Bool

	// parkToken is the one-token unpark primitive described in spec.md
	// §4.1/§9: a non-blocking send is the unpark, a blocking receive is
	// the park. Because it is buffered to capacity 1, an unpark landing
	// between the worker's flag read and its park call is absorbed, and
	// the subsequent receive returns immediately — exactly the token
	// semantics the spec requires of whatever primitive is used. Go does
	// not expose OS-thread park/unpark to user code, so this channel is
	// the idiomatic substitute.
	parkToken chan struct{}
}

func newWakerState() *wakerState {
	return &wakerState{
		// parkToken starts empty. A Wake that lands before the worker's
		// first iteration is never lost even so, because the loop always
		// re-reads ready/newTask before deciding whether to park at all.
		parkToken: make(chan struct{}, 1),
	}
}

// unpark delivers one wake token, non-blocking. Calling it any number of
// times between two worker iterations has the same effect as calling it
// once (spec.md §8's idempotence law): the channel holds at most one
// buffered token.
func (s *wakerState) unpark() {
	select {
	case s.parkToken <- struct{}{}:
	default:
	}
}

// swapAndClear atomically reads and resets both the readiness bitmap and
// the new-task flag, returning the values observed. This must happen
// before the worker's polling sweep (spec.md §5 "ordering guarantees"): any
// wake that arrives during the sweep either finds a bit already set
// (harmless — it will simply be re-observed and cleared on the next
// iteration) or sets a bit that the *next* iteration will observe.
func (s *wakerState) swapAndClear() (ready uint64, newTask bool) {
	return s.ready.Swap(0), s.newTask.Swap(false)
}

// Waker is the handle a [Future] uses to signal that its next [Future.Poll]
// may now make progress. A fresh Waker is constructed for every poll call;
// tasks that need to wake themselves later must retain or clone it (cloning
// is simply copying the struct — it carries no per-call state of its own).
type Waker struct {
	state *wakerState
	index uint32
}

// newWaker constructs a waker addressing slot index i of state's bitmap
// (channelSlot for the reserved admission-channel waker).
func newWaker(state *wakerState, index uint32) *Waker {
	return &Waker{state: state, index: index}
}

// Wake signals that the task owning this handle may be ready to make
// progress. It is safe to call from any goroutine, any number of times,
// including from inside the very Poll call that produced it (spec.md §4.2).
// It never blocks and never allocates.
func (w *Waker) Wake() {
	if w == nil || w.state == nil {
		return
	}
	if w.index < bits {
		w.state.ready.Or(uint64(1) << w.index)
	} else {
		w.state.newTask.Store(true)
	}
	w.state.unpark()
}

// Clone returns a handle functionally interchangeable with w. Two wakers
// for the same slot index produced in different poll iterations are
// distinct values but interchangeable in effect (spec.md §4.2).
func (w *Waker) Clone() *Waker {
	if w == nil {
		return nil
	}
	return &Waker{state: w.state, index: w.index}
}
