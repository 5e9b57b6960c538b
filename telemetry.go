package coexec

import "time"

// Sink is the telemetry/monitor collaborator interface the core consumes
// but never implements (spec.md §6). An Executor holds at most one Sink,
// supplied via [WithMonitor]. Every method must be non-blocking and safe to
// call from any worker goroutine concurrently; the core never reads from a
// Sink and never waits on it. If no Sink is configured, the core emits
// nothing — callers pay zero overhead for telemetry they don't want.
//
// The sibling monitor package's Collector is one implementation: it updates
// Prometheus metrics and a mutex-guarded ring buffer of recent events. This
// interface only describes the push side spec.md requires of the core.
type Sink interface {
	// TaskDecl is emitted once per task, when its worker installs it into a
	// slot (i.e. once the admission queue has actually been drained, not at
	// Submit time).
	TaskDecl(id TaskId, name string, workerIndex int)
	// Polling is emitted immediately before a task's Poll is invoked.
	Polling(id TaskId, at time.Time)
	// PollReady is emitted immediately after a Poll call returns Ready.
	PollReady(id TaskId, at time.Time)
	// PollPending is emitted immediately after a Poll call returns Pending.
	PollPending(id TaskId, at time.Time)
}

// noopSink discards every event. It is the Executor's default Sink so that
// worker code never needs a nil check on the hot path.
type noopSink struct{}

func (noopSink) TaskDecl(TaskId, string, int)  {}
func (noopSink) Polling(TaskId, time.Time)     {}
func (noopSink) PollReady(TaskId, time.Time)   {}
func (noopSink) PollPending(TaskId, time.Time) {}
