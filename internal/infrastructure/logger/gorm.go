package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes GORM's statement log into zap. Every entry carries the
// statement verb and table so till activity can be filtered without the
// full SQL.
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	logNotFound   bool
	fullSQL       bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a statement is logged as slow
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		if threshold > 0 {
			l.slowThreshold = threshold
		}
	}
}

// WithIgnoreRecordNotFoundError controls whether lookups that find nothing
// are logged as errors. Unknown product codes and bill numbers are routine
// at the till, so they are ignored by default.
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.logNotFound = !ignore
	}
}

// WithFullSQL includes the interpolated statement, which contains customer
// names and amounts
func WithFullSQL(enabled bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.fullSQL = enabled
	}
}

// NewGormLogger creates a GORM logger backed by zap
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:        zapLogger.Named("gorm"),
		level:         level,
		slowThreshold: 200 * time.Millisecond,
		fullSQL:       true,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.logger.Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.logger.Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	if err != nil && !l.logNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold
	switch {
	case err != nil && l.level >= gormlogger.Error:
	case slow && l.level >= gormlogger.Warn:
	case l.level >= gormlogger.Info:
	default:
		return
	}

	sql, rows := fc()
	op, table := summarizeStatement(sql)
	fields := append(contextFields(ctx),
		zap.String("op", op),
		zap.String("table", table),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)
	if l.fullSQL {
		fields = append(fields, zap.String("sql", sql))
	}

	switch {
	case err != nil:
		l.logger.Error("Query failed", append(fields, zap.Error(err))...)
	case slow:
		l.logger.Warn("Slow query", append(fields, zap.Duration("threshold", l.slowThreshold))...)
	default:
		l.logger.Debug("Query", fields...)
	}
}

// contextFields collects the correlation ids stored on ctx
func contextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	for _, f := range []struct{ key, value string }{
		{FieldRequestID, GetRequestID(ctx)},
		{FieldSessionID, GetSessionID(ctx)},
		{FieldOperator, GetOperator(ctx)},
	} {
		if f.value != "" {
			fields = append(fields, zap.String(f.key, f.value))
		}
	}
	return append(fields, traceFields(ctx)...)
}

// summarizeStatement returns the lower-cased verb of a statement and the
// first table it names, e.g. ("update", "sales")
func summarizeStatement(sql string) (op, table string) {
	words := strings.Fields(sql)
	if len(words) == 0 {
		return "", ""
	}
	op = strings.ToLower(words[0])

	marker := ""
	switch op {
	case "select", "delete":
		marker = "from"
	case "insert":
		marker = "into"
	case "update":
		if len(words) > 1 {
			return op, strings.Trim(words[1], `"`)
		}
		return op, ""
	default:
		return op, ""
	}
	for i, w := range words[:len(words)-1] {
		if strings.EqualFold(w, marker) {
			return op, strings.Trim(words[i+1], `"`)
		}
	}
	return op, ""
}

// MapGormLogLevel maps the application log level onto GORM's
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
