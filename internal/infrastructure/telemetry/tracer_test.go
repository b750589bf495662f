package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func restoreGlobalProvider(t *testing.T) {
	t.Helper()
	original := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(original) })
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	cfg := Config{Enabled: false, ServiceName: "anchala-pos"}

	tp, err := NewTracerProvider(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tp.Enabled())
	assert.Equal(t, "anchala-pos", tp.Config().ServiceName)
	assert.NoError(t, tp.EnableSpanProfiles())
	assert.False(t, tp.SpanProfilesEnabled())
	assert.NoError(t, tp.ForceFlush(context.Background()))
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.NotNil(t, tp.Tracer("test"))
	assert.Equal(t, otel.GetTracerProvider(), tp.Provider())
}

func TestNewTracerProvider_WithRecorder(t *testing.T) {
	restoreGlobalProvider(t)
	sr := tracetest.NewSpanRecorder()

	tp, err := newTracerProvider(Config{
		Enabled:       true,
		ServiceName:   "anchala-pos",
		Environment:   "test",
		SamplingRatio: 1.0,
	}, zap.NewNop(), sdktrace.WithSpanProcessor(sr))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	assert.True(t, tp.Enabled())

	_, span := StartSpan(context.Background(), "sales.list")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)

	var serviceName string
	for _, kv := range spans[0].Resource().Attributes() {
		if kv.Key == "service.name" {
			serviceName = kv.Value.AsString()
		}
	}
	assert.Equal(t, "anchala-pos", serviceName)
}

func TestNewTracerProvider_NeverSample(t *testing.T) {
	restoreGlobalProvider(t)
	sr := tracetest.NewSpanRecorder()

	tp, err := newTracerProvider(Config{Enabled: true, ServiceName: "anchala-pos", SamplingRatio: 0},
		zap.NewNop(), sdktrace.WithSpanProcessor(sr))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := StartSpan(context.Background(), "dropped")
	span.End()
	assert.Empty(t, sr.Ended())
}

func TestEnableSpanProfiles(t *testing.T) {
	restoreGlobalProvider(t)

	tp, err := newTracerProvider(Config{Enabled: true, ServiceName: "anchala-pos", SamplingRatio: 1},
		zap.NewNop(), sdktrace.WithSpanProcessor(tracetest.NewSpanRecorder()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	sdk := tp.Provider()
	require.NoError(t, tp.EnableSpanProfiles())
	assert.True(t, tp.SpanProfilesEnabled())
	assert.NotEqual(t, sdk, tp.Provider())
	assert.Equal(t, otel.GetTracerProvider(), tp.Provider())
	// second call is a no-op
	require.NoError(t, tp.EnableSpanProfiles())
	assert.True(t, tp.SpanProfilesEnabled())
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(2).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), samplerFor(0.25).Description())
}
