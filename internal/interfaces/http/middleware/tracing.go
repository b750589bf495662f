// Package middleware provides the HTTP middleware of the till server.
package middleware

import (
	"net/http"

	"github.com/anchala/pos/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength bounds the request id copied into span attributes
const MaxRequestIDLength = 128

const (
	attrRequestID = attribute.Key("request_id")
	attrOperator  = attribute.Key("pos.operator")
	attrStatus    = attribute.Key("http.status_code")
	attrErrorMsg  = attribute.Key("error.message")
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// TracerProvider overrides the global provider
	TracerProvider trace.TracerProvider
}

// Tracing opens a server span per request through otelgin. Spans are named
// "METHOD /route/:pattern". Pair it with SpanAnnotator to attach till
// context to the span.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	var opts []otelgin.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanAnnotator runs the rest of the chain and then, while the request span
// is still open, records the request id, operator, cart session and bill
// number. Responses of 400 and above record their status; 5xx also fail the
// span.
func SpanAnnotator() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(requestAttributes(c)...)

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetAttributes(attrStatus.Int(status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		if last := c.Errors.Last(); last != nil {
			span.SetAttributes(attrErrorMsg.String(last.Error()))
		}
	}
}

func requestAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	add := func(key attribute.Key, value string) {
		if value != "" {
			attrs = append(attrs, key.String(value))
		}
	}
	add(attrRequestID, getRequestID(c))
	add(attrOperator, GetOperator(c))
	add(telemetry.SpanAttrSessionID, c.Param("session"))
	add(telemetry.SpanAttrBillNo, c.Param("bill_no"))
	return attrs
}

// getRequestID is the request id from the context or header, cut to
// MaxRequestIDLength.
func getRequestID(c *gin.Context) string {
	id := getRequestIDFromContext(c)
	if len(id) > MaxRequestIDLength {
		return id[:MaxRequestIDLength]
	}
	return id
}
