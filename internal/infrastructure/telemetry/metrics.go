package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const defaultExportInterval = 60 * time.Second

// Histogram buckets in seconds. Till requests are short; PDF rendering sits
// in the upper buckets.
var (
	HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	DBDurationBuckets   = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}
	SizeBuckets         = []float64{128, 512, 1024, 4096, 16384, 65536, 262144, 1048576}
)

// MetricsConfig is the shared telemetry config plus the push interval
type MetricsConfig struct {
	Config
	ExportInterval time.Duration
}

// MeterProvider owns the SDK meter provider. Disabled, it hands out no-op
// meters so instruments can be created unconditionally.
type MeterProvider struct {
	logger *zap.Logger
	sdk    *sdkmetric.MeterProvider
}

// NewMeterProvider pushes metrics over OTLP gRPC every ExportInterval and
// installs the provider globally.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	if !cfg.Enabled {
		logger.Info("Metrics disabled")
		return &MeterProvider{logger: logger}, nil
	}

	interval := cfg.ExportInterval
	if interval <= 0 {
		interval = defaultExportInterval
	}
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp metric exporter: %w", err)
	}

	mp, err := newMeterProvider(cfg.Config, logger, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(mp.sdk)
	logger.Info("Metrics enabled",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
	)
	return mp, nil
}

// newMeterProvider builds an SDK provider around reader. Tests pass a
// manual reader and collect from it directly.
func newMeterProvider(cfg Config, logger *zap.Logger, reader sdkmetric.Reader) (*MeterProvider, error) {
	res, err := serviceResource(cfg)
	if err != nil {
		return nil, err
	}
	sdk := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	return &MeterProvider{logger: logger, sdk: sdk}, nil
}

// Meter returns a named meter, a no-op one when metrics are disabled
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.sdk == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.sdk.Meter(name, opts...)
}

// Enabled reports whether metrics are exported
func (mp *MeterProvider) Enabled() bool {
	return mp.sdk != nil
}

// ForceFlush pushes every pending measurement
func (mp *MeterProvider) ForceFlush(ctx context.Context) error {
	if mp.sdk == nil {
		return nil
	}
	return mp.sdk.ForceFlush(ctx)
}

// Shutdown flushes and stops the exporter, waiting at most shutdownGrace
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.sdk == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	if err := mp.sdk.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}
	return nil
}
