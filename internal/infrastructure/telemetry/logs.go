package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logScope = "github.com/anchala/pos"

// LoggerProvider ships zap entries to the collector as OTLP log records,
// next to whatever sinks the logger already writes to.
type LoggerProvider struct {
	logger *zap.Logger
	sdk    *sdklog.LoggerProvider
}

// NewLoggerProvider batches records to the collector over gRPC. Disabled,
// Bridge leaves loggers untouched.
func NewLoggerProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*LoggerProvider, error) {
	if !cfg.Enabled {
		return &LoggerProvider{logger: logger}, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp log exporter: %w", err)
	}

	lp, err := newLoggerProvider(cfg, logger, sdklog.NewBatchProcessor(exporter))
	if err != nil {
		return nil, err
	}
	logger.Info("Log export enabled", zap.String("collector_endpoint", cfg.CollectorEndpoint))
	return lp, nil
}

func newLoggerProvider(cfg Config, logger *zap.Logger, processor sdklog.Processor) (*LoggerProvider, error) {
	res, err := serviceResource(cfg)
	if err != nil {
		return nil, err
	}
	sdk := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(processor),
	)
	return &LoggerProvider{logger: logger, sdk: sdk}, nil
}

// Enabled reports whether log records are exported
func (lp *LoggerProvider) Enabled() bool {
	return lp.sdk != nil
}

// Bridge returns log with an otelzap core teed in. The bridge honours the
// level log already runs at, so debug entries stay local unless enabled.
func (lp *LoggerProvider) Bridge(log *zap.Logger) *zap.Logger {
	if lp.sdk == nil {
		return log
	}
	bridge := otelzap.NewCore(logScope, otelzap.WithLoggerProvider(lp.sdk))
	return log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, &leveledCore{Core: bridge, level: c})
	}))
}

// Shutdown flushes buffered records, waiting at most shutdownGrace
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if lp.sdk == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	if err := lp.sdk.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown logger provider: %w", err)
	}
	return nil
}

// leveledCore gates a core on another level enabler
type leveledCore struct {
	zapcore.Core
	level zapcore.LevelEnabler
}

func (c *leveledCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *leveledCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.level.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return &leveledCore{Core: c.Core.With(fields), level: c.level}
}
