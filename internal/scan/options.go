package scan

import (
	"io"
	"runtime"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/metric"
)

// Options configures a Scanner. Options are fixed at construction; the
// depth limit and filters are set through Scanner setters.
type Options struct {
	// Concurrency is the number of worker goroutines per run (0 = auto).
	Concurrency int
	// FollowSymlinks traverses symlinked directories, each canonical
	// directory at most once per run.
	FollowSymlinks bool
	// NotifyOnStop delivers OnComplete, tagged Stopped, for runs ended by
	// Stop. By default the completion of a stopped run is suppressed.
	NotifyOnStop bool
	// Dispatch runs OnBegin and OnComplete (and Group completion) on the
	// consumer's context. Nil calls them directly on the scanning goroutine.
	Dispatch func(func())
	// Logger receives run and per-entry diagnostics. Nil discards.
	Logger logrus.FieldLogger
	// MeterProvider supplies scan instruments. Nil uses the global provider.
	MeterProvider metric.MeterProvider
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Concurrency:    0,
		FollowSymlinks: false,
		NotifyOnStop:   false,
	}
}

func (o Options) workers() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return runtime.GOMAXPROCS(0) * 3
}

func (o Options) dispatch(fn func()) {
	if o.Dispatch != nil {
		o.Dispatch(fn)
		return
	}
	fn()
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
