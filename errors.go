package coexec

import (
	"errors"
	"fmt"
)

// Standard errors (spec.md §7).
var (
	// ErrExecutorClosed is returned by Submit once Join has begun.
	//
	// spec.md §9 leaves this as an open question ("the source defers
	// dropping of the admission channel producers until join, which means
	// tasks submitted after join begins may silently disappear... do not
	// guess"). This package resolves it by forbidding post-join submission
	// at the type level: Join sets an atomic flag Submit checks first,
	// since Go has no linear typing to "consume" the Executor the way the
	// source language's join(self) does.
	ErrExecutorClosed = errors.New("coexec: executor is closed")
)

// PanicError wraps a panic value recovered from a task's Poll call. A
// worker that observes one of these treats it as fatal to that worker
// (spec.md §7: "a bug in the task... other workers are not affected") and
// surfaces it via [Executor.Join].
type PanicError struct {
	// WorkerIndex identifies which worker's goroutine recovered the panic.
	WorkerIndex int
	// TaskId identifies the task being polled when the panic occurred, if
	// known (it always is — panics are recovered around a single poll
	// call, never around the whole sweep).
	TaskId TaskId
	// Value is the recovered panic value.
	Value any
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("coexec: worker %d: task %d panicked: %v", e.WorkerIndex, e.TaskId, e.Value)
}

// Unwrap returns the underlying error if Value is itself an error,
// enabling [errors.Is]/[errors.As] through the panic's cause chain.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// JoinError is returned by [Executor.Join] when one or more workers exited
// abnormally. It wraps the first such failure observed (spec.md §7: "the
// first observed worker failure").
type JoinError struct {
	WorkerIndex int
	Err         error
}

// Error implements the error interface.
func (e *JoinError) Error() string {
	return fmt.Sprintf("coexec: worker %d failed: %v", e.WorkerIndex, e.Err)
}

// Unwrap returns the wrapped worker failure.
func (e *JoinError) Unwrap() error {
	return e.Err
}
