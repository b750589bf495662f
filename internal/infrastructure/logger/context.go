package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
	sessionIDKey
	operatorKey
)

// Correlation field names shared by request, query and service logs
const (
	FieldRequestID = "request_id"
	FieldSessionID = "session_id"
	FieldOperator  = "operator"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
)

// WithContext stores logger on ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext is the logger stored on ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithRequestID tags ctx and its logger with the request id
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return tag(ctx, logger, requestIDKey, FieldRequestID, requestID)
}

// WithSessionID tags ctx and its logger with the cart session
func WithSessionID(ctx context.Context, logger *zap.Logger, sessionID string) (context.Context, *zap.Logger) {
	return tag(ctx, logger, sessionIDKey, FieldSessionID, sessionID)
}

// WithOperator tags ctx and its logger with the signed-in operator
func WithOperator(ctx context.Context, logger *zap.Logger, operator string) (context.Context, *zap.Logger) {
	return tag(ctx, logger, operatorKey, FieldOperator, operator)
}

func tag(ctx context.Context, logger *zap.Logger, key contextKey, field, value string) (context.Context, *zap.Logger) {
	enriched := logger.With(zap.String(field, value))
	ctx = context.WithValue(ctx, key, value)
	return WithContext(ctx, enriched), enriched
}

func valueOf(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// GetRequestID is the request id on ctx, or ""
func GetRequestID(ctx context.Context) string { return valueOf(ctx, requestIDKey) }

// GetSessionID is the cart session on ctx, or ""
func GetSessionID(ctx context.Context) string { return valueOf(ctx, sessionIDKey) }

// GetOperator is the operator on ctx, or ""
func GetOperator(ctx context.Context) string { return valueOf(ctx, operatorKey) }

// traceFields holds trace_id and span_id of the span on ctx, if any
func traceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String(FieldTraceID, sc.TraceID().String()),
		zap.String(FieldSpanID, sc.SpanID().String()),
	}
}

// L is the context logger with trace correlation fields added
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	if fields := traceFields(ctx); fields != nil {
		return l.With(fields...)
	}
	return l
}
