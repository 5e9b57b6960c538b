// Package coexec implements a multi-threaded cooperative task executor: a
// fixed-size pool of worker goroutines, each polling a bounded set of
// independent [Future] values to completion, driven by a wakeup-flag
// protocol between external wakers and the worker's own park/resume cycle.
//
// # Architecture
//
// An [Executor] owns N workers, created eagerly at construction. Each
// worker owns a single-consumer admission queue, a growable slot table
// of live tasks, and a shared [wakerState] consisting of a fixed-width
// readiness bitmap and a "new task arrived" flag. Tasks never migrate
// between workers; the executor routes an incoming task to worker
// `id mod N` by the task's own monotonically increasing [TaskId].
//
// # Cooperative polling contract
//
// A [Future] is polled via [Future.Poll], given a fresh [*Waker] each call.
// Poll returns [Ready] when the task has finished, or [Pending] when it
// has arranged for the supplied waker (or a clone of it) to be invoked once
// progress is possible. Polling a Pending future with nothing new simply
// returns Pending again — this idempotence is what makes the readiness
// bitmap's false-positive sharing (spec: slot index mod B) safe.
//
// # Thread safety
//
// [Executor.Submit] is safe to call from any goroutine at any time. A
// [*Waker]'s Wake method is safe to call from any goroutine, including from
// inside the very poll call that produced it. A worker's slot table is
// touched only by that worker's own goroutine; no locking is needed there.
//
// # Scope
//
// This package is the core executor only. See the sibling packages
// [github.com/joeycumines/go-coexec/monitor] for the optional telemetry/HTTP
// collaborator, and [github.com/joeycumines/go-coexec/combinator] for
// race/timeout/sleep helpers built entirely atop this package's public
// [Future]/[Waker] contract.
package coexec
