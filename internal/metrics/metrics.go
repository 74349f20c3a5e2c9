// Package metrics records brew operation and streamed run metrics with
// OpenTelemetry.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ScopeName is the instrumentation scope of every cellar instrument.
const ScopeName = "github.com/deixis/cellar"

// Config configures OTLP export.
type Config struct {
	ServiceVersion string
	Endpoint       string // OTLP HTTP host:port, e.g. "localhost:4318"
	Insecure       bool
	Interval       time.Duration
}

// Init installs a global meter provider exporting to cfg.Endpoint. The
// returned shutdown flushes pending metrics.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg.ServiceVersion)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// newResource describes the cellar process. The service attributes are
// added schemaless so they merge with whatever schema the SDK detectors
// use. A partial resource (bad OTEL_RESOURCE_ATTRIBUTES) is still used.
func newResource(ctx context.Context, version string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName("cellar"),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil && !errors.Is(err, resource.ErrPartialResource) {
		return nil, err
	}
	return res, nil
}

// Recorder holds the cellar instruments. A nil *Recorder records nothing.
type Recorder struct {
	operations metric.Int64Counter
	runs       metric.Int64Counter
	lines      metric.Int64Counter
	duration   metric.Float64Histogram
}

// New creates the instruments on meter. A nil meter uses the global provider.
func New(meter metric.Meter) (*Recorder, error) {
	if meter == nil {
		meter = otel.Meter(ScopeName)
	}
	operations, err := meter.Int64Counter("brew.operations",
		metric.WithDescription("One-shot brew invocations by operation and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating brew.operations counter: %w", err)
	}
	runs, err := meter.Int64Counter("brew.runs",
		metric.WithDescription("Streamed brew runs by action and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating brew.runs counter: %w", err)
	}
	lines, err := meter.Int64Counter("brew.run.lines",
		metric.WithDescription("Output lines relayed from streamed runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating brew.run.lines counter: %w", err)
	}
	duration, err := meter.Float64Histogram("brew.duration",
		metric.WithDescription("Duration of brew invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating brew.duration histogram: %w", err)
	}
	return &Recorder{operations: operations, runs: runs, lines: lines, duration: duration}, nil
}

// Status labels an invocation outcome.
func Status(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

// RecordOperation records one one-shot invocation.
func (r *Recorder) RecordOperation(ctx context.Context, op, status string, d time.Duration) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", op), attribute.String("status", status))
	r.operations.Add(ctx, 1, attrs)
	r.duration.Record(ctx, d.Seconds(), attrs)
}

// RecordRun records one streamed run that produced lines output lines.
func (r *Recorder) RecordRun(ctx context.Context, action, status string, lines int, d time.Duration) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("action", action), attribute.String("status", status))
	r.runs.Add(ctx, 1, attrs)
	r.lines.Add(ctx, int64(lines), metric.WithAttributes(attribute.String("action", action)))
	r.duration.Record(ctx, d.Seconds(), attrs)
}
