package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func newRecorder(t *testing.T) (*Recorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	rec, err := New(mp.Meter("test"))
	require.NoError(t, err)
	return rec, reader
}

func TestRecorder_Run(t *testing.T) {
	rec, reader := newRecorder(t)
	ctx := context.Background()

	rec.RecordRun(ctx, "install", Status(true), 12, time.Second)
	rec.RecordRun(ctx, "install", Status(false), 0, time.Second)
	rec.RecordRun(ctx, "doctor", Status(true), 3, time.Second)

	got := collect(t, reader)

	runs, ok := got["brew.runs"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range runs.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, runs.DataPoints, 3)

	lines, ok := got["brew.run.lines"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byAction := map[string]int64{}
	for _, dp := range lines.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("action"))
		byAction[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"install": 12, "doctor": 3}, byAction)

	hist, ok := got["brew.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.NotEmpty(t, hist.DataPoints)
}

func TestRecorder_Operation(t *testing.T) {
	rec, reader := newRecorder(t)
	rec.RecordOperation(context.Background(), "list", "ok", 10*time.Millisecond)

	ops, ok := collect(t, reader)["brew.operations"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, ops.DataPoints, 1)
	assert.Equal(t, int64(1), ops.DataPoints[0].Value)
	v, _ := ops.DataPoints[0].Attributes.Value("operation")
	assert.Equal(t, "list", v.AsString())
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *Recorder
	rec.RecordRun(context.Background(), "install", "ok", 1, time.Second)
	rec.RecordOperation(context.Background(), "list", "ok", time.Second)
}

func TestNew_GlobalMeter(t *testing.T) {
	rec, err := New(nil)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestNewResource(t *testing.T) {
	res, err := newResource(context.Background(), "1.2.3")
	require.NoError(t, err)

	attrs := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "cellar", attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
	assert.Equal(t, "opentelemetry", attrs["telemetry.sdk.name"])
}

func TestInit_InstallsMeterProvider(t *testing.T) {
	ctx := context.Background()
	// Nothing listens there; export failures only surface at shutdown.
	shutdown, err := Init(ctx, Config{
		ServiceVersion: "test",
		Endpoint:       "127.0.0.1:1",
		Insecure:       true,
		Interval:       time.Hour,
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	_, ok := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, ok, "global meter provider is %T", otel.GetMeterProvider())

	rec, err := New(nil)
	require.NoError(t, err)
	rec.RecordOperation(ctx, "list", "ok", time.Millisecond)

	sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = shutdown(sctx)
}
