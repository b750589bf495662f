package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedSale struct {
	BillNo   string `gorm:"primaryKey"`
	Customer string
}

func (tracedSale) TableName() string { return "sales" }

func setupTracedDB(t *testing.T, cfg DBTracingConfig) (*gorm.DB, *tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&tracedSale{}))

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	cfg.TracerProvider = tp
	require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).Register(db))
	return db, sr, tp
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())
	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
	assert.Equal(t, "postgresql", p.config.DBSystem)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop()).Register(db))
	_, registered := db.Plugins["otelgorm"]
	assert.False(t, registered)
}

func TestDBTracingPlugin_RecordsQuerySpans(t *testing.T) {
	db, sr, tp := setupTracedDB(t, DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Hour})

	ctx, parent := tp.Tracer("test").Start(context.Background(), "checkout.confirm_sale")
	require.NoError(t, db.WithContext(ctx).Create(&tracedSale{BillNo: "1", Customer: "Meena"}).Error)
	parent.End()

	var insert sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.Parent().SpanID() == parent.SpanContext().SpanID() {
			insert = s
		}
	}
	require.NotNil(t, insert, "expected a child span for the insert")

	attrs := spanAttrs(insert)
	assert.Equal(t, int64(1), attrs[attrRowsAffected].AsInt64())
	assert.Equal(t, "sales", attrs[attrTable].AsString())
	_, slow := attrs[attrSlowQuery]
	assert.False(t, slow)
}

func TestDBTracingPlugin_MarksSlowQueries(t *testing.T) {
	db, sr, tp := setupTracedDB(t, DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Nanosecond})

	ctx, parent := tp.Tracer("test").Start(context.Background(), "sales.list")
	var rows []tracedSale
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	parent.End()

	found := false
	for _, s := range sr.Ended() {
		if spanAttrs(s)[attrSlowQuery].AsBool() {
			found = true
			require.NotEmpty(t, s.Events())
			assert.Equal(t, "slow_query_warning", s.Events()[len(s.Events())-1].Name)
		}
	}
	assert.True(t, found)
}

func TestDBTracingPlugin_MarksErrorsButNotMisses(t *testing.T) {
	db, sr, tp := setupTracedDB(t, DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Hour})

	ctx, parent := tp.Tracer("test").Start(context.Background(), "sales.get")
	var sale tracedSale
	err := db.WithContext(ctx).Where("bill_no = ?", "missing").First(&sale).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	err = db.WithContext(ctx).Table("no_such_table").Find(&[]tracedSale{}).Error
	require.Error(t, err)
	parent.End()

	var errored int
	for _, s := range sr.Ended() {
		if s.Status().Code == codes.Error {
			errored++
		}
	}
	assert.GreaterOrEqual(t, errored, 1)
}
