package middleware

import (
	"time"

	"github.com/anchala/pos/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod     = attribute.Key("http.request.method")
	attrRoute      = attribute.Key("http.route")
	attrStatusCode = attribute.Key("http.response.status_code")

	unmatchedRoute = "unmatched"
)

type httpMetrics struct {
	requests     metric.Int64Counter
	duration     metric.Float64Histogram
	requestSize  metric.Int64Histogram
	responseSize metric.Int64Histogram
	active       metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	m := &httpMetrics{}
	var err error
	if m.requests, err = meter.Int64Counter("http_server_request_total",
		metric.WithDescription("Requests served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram("http_server_request_duration_seconds",
		metric.WithDescription("Request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(telemetry.HTTPDurationBuckets...),
	); err != nil {
		return nil, err
	}
	if m.requestSize, err = meter.Int64Histogram("http_server_request_size_bytes",
		metric.WithDescription("Request body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(telemetry.SizeBuckets...),
	); err != nil {
		return nil, err
	}
	if m.responseSize, err = meter.Int64Histogram("http_server_response_size_bytes",
		metric.WithDescription("Response body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(telemetry.SizeBuckets...),
	); err != nil {
		return nil, err
	}
	if m.active, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Requests in flight"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// HTTPMetrics counts and times requests per route pattern, so
// /sales/41 and /sales/42 share one series. Requests that match no route
// are grouped under "unmatched". A nil meter returns a pass-through.
func HTTPMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }, nil
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		inFlight := metric.WithAttributes(attrMethod.String(c.Request.Method), attrRoute.String(route))
		m.active.Add(ctx, 1, inFlight)
		defer m.active.Add(ctx, -1, inFlight)

		c.Next()

		attrs := metric.WithAttributes(
			attrMethod.String(c.Request.Method),
			attrRoute.String(route),
			attrStatusCode.Int(c.Writer.Status()),
		)
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		if n := c.Request.ContentLength; n > 0 {
			m.requestSize.Record(ctx, n, attrs)
		}
		m.responseSize.Record(ctx, int64(max(c.Writer.Size(), 0)), attrs)
	}, nil
}
