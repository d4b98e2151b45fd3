package middleware

import (
	"time"

	"github.com/erp/focco-sync/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// HTTPMetrics records request count, latency and in-flight requests of the
// sync API. Without exported metrics it is a pass-through.
func HTTPMetrics(p *telemetry.Providers) gin.HandlerFunc {
	if !p.MetricsEnabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return HTTPMetricsWithMeter(p.Meter("http.server"))
}

// HTTPMetricsWithMeter is HTTPMetrics on an explicit meter.
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	requests, err := telemetry.NewRequestInstruments(meter, "http_server_request", "Sync API requests")
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}
	inFlight, err := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Sync API requests in flight"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		method := semconv.HTTPRequestMethodKey.String(c.Request.Method)

		inFlight.Add(ctx, 1, metric.WithAttributes(method))
		c.Next()
		inFlight.Add(ctx, -1, metric.WithAttributes(method))

		// unmatched paths collapse into one series
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requests.Observe(ctx, time.Since(start),
			semconv.HTTPResponseStatusCode(c.Writer.Status()),
			method, semconv.HTTPRoute(route),
		)
	}
}
