package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of spans started by this service
const TracerName = "github.com/erp/focco-sync"

// Span attribute keys shared by the sync services and the scheduler
var (
	AttrOrderNumber     = attribute.Key("order.number")
	AttrExternalOrderID = attribute.Key("focco.order_id")
	AttrProductCode     = attribute.Key("product.code")
	AttrJob             = attribute.Key("scheduler.job")
	AttrBatchTotal      = attribute.Key("batch.total")
	AttrBatchFailed     = attribute.Key("batch.failed")
)

// StartSpan starts an internal span on the global tracer provider.
// The caller ends the span.
//
//	ctx, span := telemetry.StartSpan(ctx, "scheduler.invoice_poll", telemetry.AttrJob.String(name))
//	defer span.End()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError records err on the span and marks it failed. Nil err is a no-op.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
