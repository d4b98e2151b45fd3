package middleware

import (
	"net/http"

	"github.com/erp/focco-sync/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// untracedPaths are polled by health checkers and scrapers.
var untracedPaths = map[string]bool{"/health": true, "/metrics": true}

// Tracing starts a server span per request when p exports traces.
func Tracing(p *telemetry.Providers, serviceName string) gin.HandlerFunc {
	if !p.TracingEnabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return TracingWithProvider(p.TracerProvider(), serviceName)
}

// TracingWithProvider wraps otelgin with an explicit provider. The span is
// named after the route and continues a W3C traceparent sent by the caller.
func TracingWithProvider(tp trace.TracerProvider, serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithTracerProvider(tp),
		otelgin.WithFilter(func(r *http.Request) bool { return !untracedPaths[r.URL.Path] }),
	)
}

// TracingAttributes tags the span with the request id and the calling
// system, and fails it on 5xx. It runs after ServiceAuth.
func TracingAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		span.SetAttributes(attribute.String("request_id", GetRequestID(c)))
		if subject := CallerSubject(c); subject != "" {
			span.SetAttributes(attribute.String("enduser.id", subject))
		}

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
