// Package telemetry configures the OpenTelemetry meter provider used by
// scans.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Options selects and configures the metrics exporter.
type Options struct {
	Exporter   string
	Writer     io.Writer
	Interval   time.Duration
	AppName    string
	AppVersion string
}

// ShutdownFunc flushes pending metrics and releases the exporter.
type ShutdownFunc func(context.Context) error

// Setup builds a meter provider for opts and installs it globally. With
// ExporterNone it returns a no-op provider.
func Setup(ctx context.Context, opts Options) (metric.MeterProvider, ShutdownFunc, error) {
	noShutdown := func(context.Context) error { return nil }

	switch opts.Exporter {
	case "", ExporterNone:
		return noop.NewMeterProvider(), noShutdown, nil
	case ExporterStdout:
	default:
		return nil, nil, fmt.Errorf("unknown metrics exporter %q", opts.Exporter)
	}

	exporterOpts := []stdoutmetric.Option{stdoutmetric.WithPrettyPrint()}
	if opts.Writer != nil {
		exporterOpts = append(exporterOpts, stdoutmetric.WithWriter(opts.Writer))
	}
	exp, err := stdoutmetric.New(exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create metrics exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.AppName),
		semconv.ServiceVersion(opts.AppVersion),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("cannot build metrics resource: %w", err)
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp)
	return mp, mp.Shutdown, nil
}
