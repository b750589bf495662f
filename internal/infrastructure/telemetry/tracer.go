// Package telemetry wires OpenTelemetry traces, metrics and logs plus
// Pyroscope profiling into the till. Every part is optional; disabled
// components are no-ops.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const shutdownGrace = 10 * time.Second

// Config holds telemetry configuration.
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	ServiceVersion    string
	Environment       string
	Insecure          bool
}

// TracerProvider owns the SDK provider and whatever is installed as the
// global provider (the SDK itself, or the span-profile wrapper around it).
type TracerProvider struct {
	cfg    Config
	logger *zap.Logger
	sdk    *sdktrace.TracerProvider

	mu           sync.RWMutex
	installed    trace.TracerProvider
	spanProfiles bool
}

// NewTracerProvider exports spans over OTLP gRPC and installs the provider
// globally. When disabled the global no-op provider stays in place.
func NewTracerProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*TracerProvider, error) {
	if !cfg.Enabled {
		logger.Info("Tracing disabled")
		return &TracerProvider{cfg: cfg, logger: logger}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter: %w", err)
	}

	tp, err := newTracerProvider(cfg, logger, sdktrace.WithBatcher(exporter))
	if err != nil {
		return nil, err
	}
	logger.Info("Tracing enabled",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
	)
	return tp, nil
}

// newTracerProvider installs an SDK provider built from opts. Tests pass a
// span recorder here.
func newTracerProvider(cfg Config, logger *zap.Logger, opts ...sdktrace.TracerProviderOption) (*TracerProvider, error) {
	res, err := serviceResource(cfg)
	if err != nil {
		return nil, err
	}
	sdk := sdktrace.NewTracerProvider(append(opts,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(samplerFor(cfg.SamplingRatio))),
	)...)

	tp := &TracerProvider{cfg: cfg, logger: logger, sdk: sdk}
	tp.install(sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

func (tp *TracerProvider) install(p trace.TracerProvider) {
	tp.installed = p
	otel.SetTracerProvider(p)
}

func serviceResource(cfg Config) (*resource.Resource, error) {
	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	attrs := []resource.Option{resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(version),
	)}
	if cfg.Environment != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.DeploymentEnvironmentName(cfg.Environment)))
	}
	own, err := resource.New(context.Background(), attrs...)
	if err != nil {
		return nil, fmt.Errorf("service resource: %w", err)
	}
	return resource.Merge(resource.Default(), own)
}

func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(ratio)
	}
}

// Provider returns the provider spans should be started from: the installed
// one when tracing is on, otherwise the global (no-op) provider.
func (tp *TracerProvider) Provider() trace.TracerProvider {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	if tp.installed == nil {
		return otel.GetTracerProvider()
	}
	return tp.installed
}

// Tracer returns a named tracer from Provider
func (tp *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return tp.Provider().Tracer(name, opts...)
}

// Enabled reports whether spans are exported
func (tp *TracerProvider) Enabled() bool {
	return tp.sdk != nil
}

// Config returns the configuration the provider was built with
func (tp *TracerProvider) Config() Config {
	return tp.cfg
}

// EnableSpanProfiles labels profiler samples with the active span id. Call
// after the profiler has started; a no-op when tracing is off.
func (tp *TracerProvider) EnableSpanProfiles() error {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.sdk == nil || tp.spanProfiles {
		return nil
	}
	tp.install(otelpyroscope.NewTracerProvider(tp.sdk))
	tp.spanProfiles = true
	tp.logger.Info("Span profiles enabled")
	return nil
}

// SpanProfilesEnabled reports whether EnableSpanProfiles took effect
func (tp *TracerProvider) SpanProfilesEnabled() bool {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.spanProfiles
}

// ForceFlush exports every span not yet exported
func (tp *TracerProvider) ForceFlush(ctx context.Context) error {
	if tp.sdk == nil {
		return nil
	}
	return tp.sdk.ForceFlush(ctx)
}

// Shutdown flushes and stops the exporter, waiting at most shutdownGrace
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.sdk == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	if err := tp.sdk.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}
