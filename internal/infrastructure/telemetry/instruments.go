package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LatencyBuckets covers both the inbound API and Focco round trips, in seconds.
var LatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// RequestInstruments pairs a request counter with a latency histogram.
// The counter carries an outcome attribute on top of the shared ones so the
// histogram series stay few.
type RequestInstruments struct {
	count    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewRequestInstruments registers "<prefix>_total" and
// "<prefix>_duration_seconds" on meter.
func NewRequestInstruments(meter metric.Meter, prefix, subject string) (*RequestInstruments, error) {
	count, err := meter.Int64Counter(prefix+"_total",
		metric.WithDescription(subject+" handled"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("counter %s_total: %w", prefix, err)
	}
	duration, err := meter.Float64Histogram(prefix+"_duration_seconds",
		metric.WithDescription(subject+" latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(LatencyBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("histogram %s_duration_seconds: %w", prefix, err)
	}
	return &RequestInstruments{count: count, duration: duration}, nil
}

// Observe counts one request with outcome and records its latency. A nil
// receiver is a no-op.
func (r *RequestInstruments) Observe(ctx context.Context, elapsed time.Duration, outcome attribute.KeyValue, attrs ...attribute.KeyValue) {
	if r == nil {
		return
	}
	r.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	r.count.Add(ctx, 1, metric.WithAttributes(append(attrs[:len(attrs):len(attrs)], outcome)...))
}
