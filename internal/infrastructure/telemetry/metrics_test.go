package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestMeterProvider(t *testing.T) (*MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp, err := newMeterProvider(Config{ServiceName: "anchala-pos"}, zap.NewNop(), reader)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{
		Config:         Config{Enabled: false, ServiceName: "anchala-pos"},
		ExportInterval: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mp.Enabled())
	assert.NotNil(t, mp.Meter("till"))
	assert.NoError(t, mp.ForceFlush(context.Background()))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMeterProvider_RecordsThroughReader(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	require.True(t, mp.Enabled())

	counter, err := mp.Meter("till").Int64Counter("sales_confirmed_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)
	counter.Add(context.Background(), 1)

	rm := collect(t, reader)
	m, ok := findMetric(rm, "sales_confirmed_total")
	require.True(t, ok)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	name, ok := rm.Resource.Set().Value(attribute.Key("service.name"))
	require.True(t, ok)
	assert.Equal(t, "anchala-pos", name.AsString())
}
