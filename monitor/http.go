package monitor

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps a Collector with an HTTP surface: /metrics in Prometheus
// exposition format, and /events returning a [Collector.Update] snapshot as
// JSON — the Go counterpart of `monitor/mod.rs`'s `/update.json` endpoint
// and its `{new_tasks, task_events, current_time}` body. The overall
// request/response-wrapping-a-core-component shape is adapted from
// ChuLiYu-raft-recovery's server struct, restructured from a gRPC service
// to plain net/http since this spec has no generated wire protocol to
// implement against; the /events payload shape itself comes from the
// original Rust monitor, not from the teacher.
type Server struct {
	collector *Collector
	mux       *http.ServeMux
	http      *http.Server
}

// NewServer builds a Server listening on addr (e.g. ":9090"). gatherer is
// the registry the Collector passed to NewCollector registered its metrics
// against (prometheus.DefaultGatherer for the global registry, or the
// *prometheus.Registry you created). Call ListenAndServe to start it.
func NewServer(collector *Collector, addr string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	s := &Server{collector: collector, mux: mux}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/events", s.handleEvents)
	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.collector.Update())
}

// ListenAndServe starts the HTTP server; it blocks until the server stops
// or returns an error other than [http.ErrServerClosed].
func (s *Server) ListenAndServe() error {
	if err := s.http.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, as http.Server.Shutdown does.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
