package coexec

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// defaultLogger returns a stumpy-backed JSON logger writing to stderr at
// info level, type-erased to logiface.Logger[logiface.Event] so it can be
// stored on an Executor regardless of which concrete Event type a caller's
// own [WithLogger] option might otherwise choose.
//
// Unlike eventloop/logging.go's package-level global logger, this is
// constructed fresh per [Executor]: spec.md §9 is explicit that "there is
// no global state... the executor is an owned value; multiple executors
// may coexist", which rules out a process-wide logger singleton.
func defaultLogger() *logiface.Logger[logiface.Event] {
	l := stumpy.L.New(
		stumpy.L.WithStumpy(),
		logiface.WithLevel[*stumpy.Event](logiface.LevelInformational),
	)
	return l.Logger()
}
