package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	attrRowsAffected  attribute.Key = "db.rows_affected"
	attrTable         attribute.Key = "db.sql.table"
	attrSlowQuery     attribute.Key = "db.slow_query"
	attrQueryDuration attribute.Key = "db.query_duration_ms"

	queryStartKey = "pos:query_start"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include bound values in db.statement; never in production
	SlowQueryThresh time.Duration // slower statements get a slow_query event
	DBSystem        string

	// TracerProvider overrides the global provider
	TracerProvider trace.TracerProvider
}

// DefaultDBTracingConfig is disabled, with a 200ms slow threshold
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin installs otelgorm and annotates its spans with the row
// count, table, failures and slow statements of the sale and ledger writes.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin fills unset fields from DefaultDBTracingConfig
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	def := DefaultDBTracingConfig()
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = def.SlowQueryThresh
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = def.DBSystem
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Register installs the plugin on db. A disabled config is a no-op.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem), otelgorm.WithoutMetrics()}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if p.config.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.config.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.hook(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh))
	return nil
}

// hook wraps each gorm operation: a timer starts before it and the span is
// annotated after it, while otelgorm still holds the span open.
func (p *DBTracingPlugin) hook(db *gorm.DB) error {
	type register = func(string, func(*gorm.DB)) error
	cb := db.Callback()
	ops := []struct {
		name          string
		before, after register
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Before("otel:after:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Before("otel:after:select").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Before("otel:after:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Before("otel:after:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Before("otel:after:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Before("otel:after:raw").Register},
	}
	for _, op := range ops {
		if err := op.before("pos:start_"+op.name, startTimer); err != nil {
			return err
		}
		if err := op.after("pos:annotate_"+op.name, p.annotate); err != nil {
			return err
		}
	}
	return nil
}

func startTimer(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *DBTracingPlugin) annotate(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}

	if rows := db.Statement.RowsAffected; rows >= 0 {
		span.SetAttributes(attrRowsAffected.Int64(rows))
	}
	if table := db.Statement.Table; table != "" {
		span.SetAttributes(attrTable.String(table))
	}
	if err := db.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	v, ok := db.InstanceGet(queryStartKey)
	start, _ := v.(time.Time)
	if !ok || start.IsZero() {
		return
	}
	elapsed := time.Since(start)
	if elapsed <= p.config.SlowQueryThresh {
		return
	}
	span.SetAttributes(attrSlowQuery.Bool(true), attrQueryDuration.Int64(elapsed.Milliseconds()))
	span.AddEvent("slow_query_warning", trace.WithAttributes(
		attribute.Int64("duration_ms", elapsed.Milliseconds()),
		attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
	))
}
