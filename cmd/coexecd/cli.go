package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joeycumines/go-coexec"
	"github.com/joeycumines/go-coexec/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var configFile string

func buildCLI() *cobra.Command {
	root := &cobra.Command{
		Use:   "coexecd",
		Short: "Run and benchmark a coexec task executor",
		Long: `coexecd wires a coexec.Executor to a YAML config file and, optionally,
a Prometheus/JSON monitor server.`,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (YAML); defaults are used if omitted")

	root.AddCommand(buildRunCommand())
	root.AddCommand(buildBenchCommand())

	return root
}

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an executor and idle until SIGINT/SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runExecutor(cfg)
		},
	}
	return cmd
}

func runExecutor(cfg *Config) error {
	var sink coexec.Sink
	var reg *prometheus.Registry
	var srv *monitor.Server
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		collector := monitor.NewCollector(reg, 256)
		sink = collector
		srv = monitor.NewServer(collector, cfg.Metrics.Addr, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("monitor server stopped: %v", err)
			}
		}()
		log.Printf("metrics listening on %s", cfg.Metrics.Addr)
	}

	opts := []coexec.ExecutorOption{}
	if sink != nil {
		opts = append(opts, coexec.WithMonitor(sink))
	}

	exec, err := coexec.New(cfg.Executor.Workers, opts...)
	if err != nil {
		return fmt.Errorf("start executor: %w", err)
	}
	log.Printf("executor started with %d workers", exec.WorkerCount())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("shutdown signal received, joining")

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}

	return exec.Join()
}

func buildBenchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Submit a batch of synthetic tasks and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			return runBench(cfg)
		},
	}
	return cmd
}

func runBench(cfg *Config) error {
	sleepEach, err := cfg.sleepEachDuration()
	if err != nil {
		return err
	}

	exec, err := coexec.New(cfg.Executor.Workers)
	if err != nil {
		return fmt.Errorf("start executor: %w", err)
	}

	start := time.Now()
	for i := 0; i < cfg.Bench.Tasks; i++ {
		task := &countdownTask{remaining: int32(cfg.Bench.PollsToIdle), sleepEach: sleepEach}
		if err := exec.Submit(task); err != nil {
			return fmt.Errorf("submit task %d: %w", i, err)
		}
	}

	if err := exec.Join(); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	elapsed := time.Since(start)
	fmt.Printf("completed %d tasks across %d workers in %s (%.0f tasks/sec)\n",
		cfg.Bench.Tasks, exec.WorkerCount(), elapsed, float64(cfg.Bench.Tasks)/elapsed.Seconds())
	return nil
}

// countdownTask is a minimal synthetic Future: it requires remaining polls
// (each immediately re-waking itself) before returning Ready, optionally
// sleeping sleepEach between polls to simulate real work.
type countdownTask struct {
	remaining int32
	sleepEach time.Duration
}

func (t *countdownTask) Poll(w *coexec.Waker) coexec.PollResult {
	if atomic.AddInt32(&t.remaining, -1) <= 0 {
		return coexec.Ready
	}
	if t.sleepEach > 0 {
		time.Sleep(t.sleepEach)
	}
	w.Wake()
	return coexec.Pending
}
