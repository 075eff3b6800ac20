package commit

import (
	"log/slog"
	"runtime"
	"time"
)

// Options controls aggregation behavior.
//
// Default behavior (Options{}) is unblinded, collects every leaf failure,
// has no deadline and uses one worker per CPU.
type Options struct {
	// Workers is the size of the worker pool.
	Workers int
	// Buffer is the capacity of the results channel feeding the fold.
	Buffer int
	// Timeout bounds one Aggregate call. Zero means no deadline beyond ctx.
	Timeout time.Duration
	// FailFast cancels outstanding leaves on the first failure.
	FailFast bool
	// KeepTable records every per-leaf commitment on the Aggregate.
	KeepTable bool
	Blinding  BlindingSource
	Logger    *slog.Logger
}

// DefaultBuffer is the results channel capacity when Options.Buffer is zero.
const DefaultBuffer = 100

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Buffer <= 0 {
		o.Buffer = DefaultBuffer
	}
	if o.Blinding == nil {
		o.Blinding = NoBlinding{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
