// Package monitor is the telemetry collaborator referenced by spec.md §6:
// an optional [coexec.Sink] implementation that turns per-poll events into
// Prometheus metrics and a bounded recent-event tail, plus an HTTP server
// exposing both. The core package never imports this one; wiring it in is
// entirely the caller's choice, via coexec.WithMonitor.
package monitor

import (
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-coexec"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector is a [coexec.Sink] that records Prometheus counters/histograms
// for task lifecycle events and keeps a short ring buffer of recent events
// for the /events endpoint (see [Server]).
//
// A Collector is safe for concurrent use by every worker goroutine of the
// Executor(s) it is attached to.
type Collector struct {
	tasksDeclared prometheus.Counter
	pollsStarted  prometheus.Counter
	pollsReady    prometheus.Counter
	pollsPending  prometheus.Counter
	pollLatency   prometheus.Histogram
	tasksInFlight prometheus.Gauge

	// noisy rate-limits, per TaskId, which Pending events are recorded into
	// the recent-event tail, so one pathological task can't flood it.
	noisy *catrate.Limiter

	mu      sync.Mutex
	started map[coexec.TaskId]time.Time
	recent  []Event
	head    int
	filled  bool
}

// Event is one recorded lifecycle transition, kept for the /events tail.
type Event struct {
	TaskId TaskId    `json:"task_id"`
	Name   string    `json:"name,omitempty"`
	Kind   string    `json:"kind"`
	Worker int       `json:"worker,omitempty"`
	At     time.Time `json:"at"`
}

// TaskId mirrors coexec.TaskId to keep this package's exported surface free
// of a hard compile-time dependency on coexec's internals beyond the Sink
// interface it implements; the underlying type is identical.
type TaskId = coexec.TaskId

// NewCollector builds a Collector with ringSize recent events retained
// (minimum 16) and registers its metrics against reg. Pass
// prometheus.DefaultRegisterer to use the global registry, as
// ChuLiYu-raft-recovery's metrics.Collector does, or a fresh
// prometheus.NewRegistry() to keep multiple Executors' metrics isolated
// (the "no global state" requirement spec.md §9 imposes on the core
// extends naturally to this collaborator too).
func NewCollector(reg prometheus.Registerer, ringSize int) *Collector {
	if ringSize < 16 {
		ringSize = 16
	}
	c := &Collector{
		tasksDeclared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coexec_tasks_declared_total",
			Help: "Total number of tasks admitted to an executor.",
		}),
		pollsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coexec_polls_started_total",
			Help: "Total number of Future.Poll invocations started.",
		}),
		pollsReady: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coexec_polls_ready_total",
			Help: "Total number of polls that returned Ready.",
		}),
		pollsPending: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coexec_polls_pending_total",
			Help: "Total number of polls that returned Pending.",
		}),
		pollLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coexec_poll_latency_seconds",
			Help:    "Wall-clock duration of a single Poll call.",
			Buckets: prometheus.DefBuckets,
		}),
		tasksInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coexec_tasks_in_flight",
			Help: "Current number of admitted tasks that have not yet returned Ready.",
		}),
		noisy: catrate.NewLimiter(map[time.Duration]int{
			time.Second: 1,
			time.Minute: 10,
		}),
		started: make(map[coexec.TaskId]time.Time),
		recent:  make([]Event, ringSize),
	}

	reg.MustRegister(
		c.tasksDeclared,
		c.pollsStarted,
		c.pollsReady,
		c.pollsPending,
		c.pollLatency,
		c.tasksInFlight,
	)

	return c
}

// TaskDecl implements [coexec.Sink].
func (c *Collector) TaskDecl(id coexec.TaskId, name string, workerIndex int) {
	c.tasksDeclared.Inc()
	c.tasksInFlight.Inc()
	c.record(Event{TaskId: id, Name: name, Kind: "declared", Worker: workerIndex, At: time.Now()})
}

// Polling implements [coexec.Sink].
func (c *Collector) Polling(id coexec.TaskId, at time.Time) {
	c.pollsStarted.Inc()
	c.mu.Lock()
	c.started[id] = at
	c.mu.Unlock()
}

// PollReady implements [coexec.Sink].
func (c *Collector) PollReady(id coexec.TaskId, at time.Time) {
	c.pollsReady.Inc()
	c.tasksInFlight.Dec()
	c.observeLatency(id, at)
	c.record(Event{TaskId: id, Kind: "ready", At: at})
	c.mu.Lock()
	delete(c.started, id)
	c.mu.Unlock()
}

// PollPending implements [coexec.Sink]. A task polling Pending is normal,
// but one doing so at a high rate floods the recent-event tail with no
// added signal, so recording is itself rate-limited per TaskId: catrate's
// Allow is consulted as a "may I log this one" gate, and the event is kept
// only while the task is within its budget (ok == true) — once a task
// exceeds the budget, further pending events for it are silently dropped
// from the tail rather than flooding it.
func (c *Collector) PollPending(id coexec.TaskId, at time.Time) {
	c.pollsPending.Inc()
	c.observeLatency(id, at)
	if _, ok := c.noisy.Allow(id); ok {
		c.record(Event{TaskId: id, Kind: "pending-throttled", At: at})
	}
}

func (c *Collector) observeLatency(id coexec.TaskId, at time.Time) {
	c.mu.Lock()
	start, ok := c.started[id]
	c.mu.Unlock()
	if ok {
		c.pollLatency.Observe(at.Sub(start).Seconds())
	}
}

func (c *Collector) record(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recent[c.head] = e
	c.head = (c.head + 1) % len(c.recent)
	if c.head == 0 {
		c.filled = true
	}
}

// Recent returns the retained events in chronological order (oldest first).
func (c *Collector) Recent() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.filled {
		out := make([]Event, c.head)
		copy(out, c.recent[:c.head])
		return out
	}
	out := make([]Event, len(c.recent))
	copy(out, c.recent[c.head:])
	copy(out[len(c.recent)-c.head:], c.recent[:c.head])
	return out
}

// Update is a snapshot of the recent-event tail in the shape
// `monitor/mod.rs`'s `create_update` returns: newly declared tasks
// separated from poll-lifecycle events, plus the collector's notion of
// "now". The original drains two distinct FIFOs (`rx_decl`, `rx_exec`)
// into `new_tasks`/`task_events`; this partitions the one ring buffer by
// Kind instead, since Collector keeps a single combined tail rather than
// two channels.
type Update struct {
	NewTasks    []Event   `json:"new_tasks"`
	TaskEvents  []Event   `json:"task_events"`
	CurrentTime time.Time `json:"current_time"`
}

// Update returns the current recent-event tail split into NewTasks and
// TaskEvents, as served by [Server]'s /events endpoint.
func (c *Collector) Update() Update {
	recent := c.Recent()
	out := Update{CurrentTime: time.Now()}
	for _, e := range recent {
		if e.Kind == "declared" {
			out.NewTasks = append(out.NewTasks, e)
		} else {
			out.TaskEvents = append(out.TaskEvents, e)
		}
	}
	return out
}

var _ coexec.Sink = (*Collector)(nil)
