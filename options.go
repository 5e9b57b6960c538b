// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coexec

import "github.com/joeycumines/logiface"

// executorOptions holds configuration resolved at Executor construction
// time.
type executorOptions struct {
	sink Sink
	log  *logiface.Logger[logiface.Event]
}

// --- Executor Options ---

// ExecutorOption configures an Executor instance.
type ExecutorOption interface {
	applyExecutor(*executorOptions) error
}

// executorOptionImpl implements ExecutorOption.
type executorOptionImpl struct {
	applyExecutorFunc func(*executorOptions) error
}

func (o *executorOptionImpl) applyExecutor(opts *executorOptions) error {
	return o.applyExecutorFunc(opts)
}

// WithMonitor attaches a telemetry [Sink]. If never called, the Executor
// uses a no-op Sink and emits nothing (spec.md §6).
func WithMonitor(sink Sink) ExecutorOption {
	return &executorOptionImpl{func(opts *executorOptions) error {
		opts.sink = sink
		return nil
	}}
}

// WithLogger overrides the Executor's structured logger. If never called,
// a stumpy-backed JSON logger writing to stderr at info level is used (see
// defaultLogger).
func WithLogger(log *logiface.Logger[logiface.Event]) ExecutorOption {
	return &executorOptionImpl{func(opts *executorOptions) error {
		opts.log = log
		return nil
	}}
}

// resolveExecutorOptions applies ExecutorOption instances to
// executorOptions.
func resolveExecutorOptions(opts []ExecutorOption) (*executorOptions, error) {
	cfg := &executorOptions{
		sink: noopSink{},
		log:  defaultLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyExecutor(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
