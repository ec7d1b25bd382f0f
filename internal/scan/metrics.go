package scan

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/sadopc/fscan/internal/scan"

type metrics struct {
	entries  metric.Int64Counter
	matches  metric.Int64Counter
	errors   metric.Int64Counter
	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics(mp metric.MeterProvider) *metrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	entries, _ := meter.Int64Counter("fscan.scan.entries",
		metric.WithDescription("Entries visited by scan tasks"))
	matches, _ := meter.Int64Counter("fscan.scan.matches",
		metric.WithDescription("Entries emitted to listeners"))
	errs, _ := meter.Int64Counter("fscan.scan.errors",
		metric.WithDescription("Per-entry filesystem errors"))
	runs, _ := meter.Int64Counter("fscan.scan.runs",
		metric.WithDescription("Finished runs by outcome"))
	duration, _ := meter.Float64Histogram("fscan.scan.duration",
		metric.WithDescription("Run duration"), metric.WithUnit("s"))

	return &metrics{
		entries:  entries,
		matches:  matches,
		errors:   errs,
		runs:     runs,
		duration: duration,
	}
}

func (m *metrics) recordRun(s Summary, entries int64) {
	ctx := context.Background()
	outcome := "completed"
	switch {
	case s.RootMissing:
		outcome = "root_missing"
	case s.Stopped:
		outcome = "stopped"
	}
	// Roots are unbounded, so they go to the run log rather than labels.
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	m.runs.Add(ctx, 1, attrs)
	if s.RootMissing {
		return
	}
	m.entries.Add(ctx, entries, attrs)
	m.matches.Add(ctx, s.Matches, attrs)
	m.errors.Add(ctx, s.Errors, attrs)
	m.duration.Record(ctx, s.Elapsed.Seconds(), attrs)
}
