package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of business spans
const TracerName = "github.com/anchala/pos"

// Attribute keys carried by till spans
const (
	SpanAttrBillNo      attribute.Key = "pos.bill_no"
	SpanAttrCustomer    attribute.Key = "pos.customer"
	SpanAttrProductCode attribute.Key = "pos.product_code"
	SpanAttrQuantity    attribute.Key = "pos.quantity"
	SpanAttrAmount      attribute.Key = "pos.amount"
	SpanAttrSessionID   attribute.Key = "pos.session_id"
	SpanAttrLineCount   attribute.Key = "pos.line_count"
)

// SpanOption configures a span at start
type SpanOption func(*spanConfig)

type spanConfig struct {
	attrs []attribute.KeyValue
	kind  trace.SpanKind
}

// WithAttribute adds an attribute to the span
func WithAttribute(key attribute.Key, value any) SpanOption {
	return func(c *spanConfig) {
		c.attrs = append(c.attrs, attr(key, value))
	}
}

// WithSpanKind overrides SpanKindInternal
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// StartSpan starts a span on the global provider. The caller ends it.
//
//	ctx, span := telemetry.StartSpan(ctx, "checkout.confirm_sale")
//	defer span.End()
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, trace.Span) {
	c := spanConfig{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(&c)
	}
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(c.kind),
		trace.WithAttributes(c.attrs...))
}

// StartServiceSpan starts a span named {service}.{method}
func StartServiceSpan(ctx context.Context, service, method string, opts ...SpanOption) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, opts...)
}

// SetAttributes adds alternating key/value pairs to a span. Keys may be
// attribute.Key or string; anything else drops the pair.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(pairs(keyValues)...)
}

// RecordError records err on the span and marks it failed
func RecordError(span trace.Span, err error, opts ...trace.EventOption) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent adds an event with alternating key/value attributes
func AddEvent(span trace.Span, name string, keyValues ...any) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(pairs(keyValues)...))
}

func pairs(keyValues []any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		var key attribute.Key
		switch k := keyValues[i].(type) {
		case attribute.Key:
			key = k
		case string:
			key = attribute.Key(k)
		default:
			continue
		}
		out = append(out, attr(key, keyValues[i+1]))
	}
	return out
}

// attr keeps decimal amounts in their exact textual form via Stringer
func attr(key attribute.Key, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return key.String(v)
	case int:
		return key.Int(v)
	case int64:
		return key.Int64(v)
	case float64:
		return key.Float64(v)
	case bool:
		return key.Bool(v)
	case []string:
		return key.StringSlice(v)
	case fmt.Stringer:
		return key.String(v.String())
	default:
		return key.String(fmt.Sprint(v))
	}
}
