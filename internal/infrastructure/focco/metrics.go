package focco

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/erp/focco-sync/internal/domain/integration"
	"github.com/erp/focco-sync/internal/infrastructure/telemetry"
)

// Request outcomes reported on focco_client_request_total
const (
	outcomeSuccess         = "success"
	outcomeNoContent       = "no_content"
	outcomeRemoteError     = "remote_error"
	outcomeTransportError  = "transport_error"
	outcomeInvalidResponse = "invalid_response"
	outcomeClientError     = "client_error"
)

var (
	attrOperation = attribute.Key("focco.operation")
	attrOutcome   = attribute.Key("focco.outcome")
)

type clientMetrics struct {
	requests *telemetry.RequestInstruments
}

func newClientMetrics(meter metric.Meter) (*clientMetrics, error) {
	requests, err := telemetry.NewRequestInstruments(meter, "focco_client_request", "Focco ERP API requests")
	if err != nil {
		return nil, err
	}
	return &clientMetrics{requests: requests}, nil
}

func (m *clientMetrics) record(ctx context.Context, op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.Observe(ctx, d, attrOutcome.String(outcome), attrOperation.String(op))
}

func outcomeOf(status int, err error) string {
	switch {
	case err == nil && status == 204:
		return outcomeNoContent
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, integration.ErrRemoteRequest):
		return outcomeRemoteError
	case errors.Is(err, integration.ErrTransport):
		return outcomeTransportError
	case errors.Is(err, integration.ErrInvalidResponse):
		return outcomeInvalidResponse
	}
	return outcomeClientError
}
