package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

const (
	attrOperation attribute.Key = "db.operation"
	attrFailed    attribute.Key = "db.failed"
	attrPoolState attribute.Key = "state"

	metricsStartKey = "pos:metrics_start"
)

// DBMetricsConfig holds configuration for database metrics
type DBMetricsConfig struct {
	SlowQueryThresh time.Duration
}

// DBMetrics counts and times every gorm statement and reports the pool
// statistics of the underlying *sql.DB on each collection.
type DBMetrics struct {
	cfg      DBMetricsConfig
	queries  metric.Int64Counter
	duration metric.Float64Histogram
	slow     metric.Int64Counter
	pool     metric.Registration
}

// NewDBMetrics creates the instruments on meter. A nil sqlDB skips the pool
// gauges.
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, cfg DBMetricsConfig) (*DBMetrics, error) {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = DefaultDBTracingConfig().SlowQueryThresh
	}
	m := &DBMetrics{cfg: cfg}

	var err error
	if m.queries, err = meter.Int64Counter("db_query_total",
		metric.WithDescription("Statements executed"),
	); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram("db_query_duration_seconds",
		metric.WithDescription("Statement latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DBDurationBuckets...),
	); err != nil {
		return nil, err
	}
	if m.slow, err = meter.Int64Counter("db_slow_query_total",
		metric.WithDescription("Statements slower than the slow query threshold"),
	); err != nil {
		return nil, err
	}

	if sqlDB == nil {
		return m, nil
	}
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Pooled connections by state"))
	if err != nil {
		return nil, err
	}
	maxConns, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Configured connection limit"))
	if err != nil {
		return nil, err
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connection requests that had to wait"))
	if err != nil {
		return nil, err
	}
	m.pool, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(attrPoolState.String("idle")))
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(attrPoolState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.OpenConnections), metric.WithAttributes(attrPoolState.String("open")))
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, conns, maxConns, waits)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Name implements gorm.Plugin
func (m *DBMetrics) Name() string {
	return "pos:db_metrics"
}

// Initialize implements gorm.Plugin
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	type register = func(string, func(*gorm.DB)) error
	cb := db.Callback()
	ops := []struct {
		name          string
		before, after register
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, op := range ops {
		if err := op.before("pos_metrics:start_"+op.name, startMetricsTimer); err != nil {
			return err
		}
		if err := op.after("pos_metrics:record_"+op.name, m.record); err != nil {
			return err
		}
	}
	return nil
}

// Close stops reporting pool statistics
func (m *DBMetrics) Close() error {
	if m.pool == nil {
		return nil
	}
	return m.pool.Unregister()
}

func startMetricsTimer(db *gorm.DB) {
	db.InstanceSet(metricsStartKey, time.Now())
}

func (m *DBMetrics) record(db *gorm.DB) {
	v, ok := db.InstanceGet(metricsStartKey)
	start, _ := v.(time.Time)
	if !ok || start.IsZero() {
		return
	}
	elapsed := time.Since(start)

	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	table := db.Statement.Table
	if table == "" {
		table = "unknown"
	}
	failed := db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound)
	attrs := metric.WithAttributes(
		attrOperation.String(operationOf(db.Statement.SQL.String())),
		attrTable.String(table),
		attrFailed.Bool(failed),
	)

	m.queries.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	if elapsed > m.cfg.SlowQueryThresh {
		m.slow.Add(ctx, 1, metric.WithAttributes(attrTable.String(table)))
	}
}

// operationOf returns the lower-cased SQL verb, "other" when it is not one
// the till issues.
func operationOf(stmt string) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(stmt), " ")
	switch verb = strings.ToLower(verb); verb {
	case "select", "insert", "update", "delete", "with":
		return verb
	default:
		return "other"
	}
}
