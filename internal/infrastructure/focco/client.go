package focco

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/erp/focco-sync/internal/domain/integration"
	"github.com/erp/focco-sync/internal/infrastructure/telemetry"
)

// maxResponseSize is the maximum allowed response size from the Focco API (10MB)
const maxResponseSize = 10 * 1024 * 1024

const instrumentationName = "github.com/erp/focco-sync/internal/infrastructure/focco"

// Client is a thin HTTP client for the Focco ERP REST API.
// It holds no mutable state besides what is set at construction.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
	tracer     trace.Tracer
	metrics    *clientMetrics
}

// ClientOption customizes a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTracer sets the tracer used for request spans
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// WithMeter sets the meter used for request metrics
func WithMeter(meter metric.Meter) ClientOption {
	return func(c *Client) {
		if m, err := newClientMetrics(meter); err == nil {
			c.metrics = m
		}
	}
}

// NewClient creates a Focco client from a validated configuration
func NewClient(config *Config, opts ...ClientOption) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    config.BaseURL,
		authHeader: "Bearer " + config.Token,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		tracer: otel.Tracer(instrumentationName),
	}
	WithMeter(otel.Meter(instrumentationName))(c)

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SubmitQuoteForTax sends a quote so Focco fills in the tax values.
// POST /api/v1/cotacoes
func (c *Client) SubmitQuoteForTax(ctx context.Context, payload any) (json.RawMessage, error) {
	_, body, err := c.do(ctx, "submit_quote", http.MethodPost, pathQuotes, payload)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: quote response is not json", integration.ErrInvalidResponse)
	}
	return json.RawMessage(body), nil
}

// SubmitSalesOrder sends a confirmed order for invoicing.
// POST /api/v1/pedidos-venda
func (c *Client) SubmitSalesOrder(ctx context.Context, payload any) (*SalesOrderResponse, error) {
	_, body, err := c.do(ctx, "submit_sales_order", http.MethodPost, pathSalesOrders, payload)
	if err != nil {
		return nil, err
	}
	resp, err := parseSalesOrderResponse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrInvalidResponse, err)
	}
	return resp, nil
}

// PollInvoices lists the invoices of an order. A 204 answer means
// "not invoiced yet" and is returned as NoContent without error.
// GET /api/v1/pedidos-venda/{id}/invoices
func (c *Client) PollInvoices(ctx context.Context, orderID string) (*InvoicesResponse, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("focco: order id is required")
	}

	path := fmt.Sprintf(pathInvoicesFmt, url.PathEscape(orderID))
	status, body, err := c.do(ctx, "poll_invoices", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return &InvoicesResponse{NoContent: true}, nil
	}

	resp, err := parseInvoicesResponse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrInvalidResponse, err)
	}
	return resp, nil
}

// GetProductStock returns the stock balance records of a product.
// GET /api/v1/produtos/{code}/saldo
func (c *Client) GetProductStock(ctx context.Context, productCode string) ([]integration.BalanceRecord, error) {
	productCode = strings.TrimSpace(productCode)
	if productCode == "" {
		return nil, fmt.Errorf("focco: product code is required")
	}

	path := fmt.Sprintf(pathStockFmt, url.PathEscape(productCode))
	_, body, err := c.do(ctx, "get_product_stock", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var records []integration.BalanceRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: stock response: %v", integration.ErrInvalidResponse, err)
	}
	return records, nil
}

// do performs one request inside a client span and records its metrics
func (c *Client) do(ctx context.Context, op, method, path string, payload any) (int, []byte, error) {
	ctx, span := c.tracer.Start(ctx, "focco."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(method),
			semconv.URLPath(path),
		),
	)
	defer span.End()

	start := time.Now()
	status, body, err := c.roundTrip(ctx, method, path, payload)
	c.metrics.record(ctx, op, outcomeOf(status, err), time.Since(start))

	if status != 0 {
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
	}
	telemetry.RecordError(span, err)
	return status, body, err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("focco: failed to encode payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("focco: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &integration.TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, &integration.TransportError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, body, &integration.RemoteRequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}
	return resp.StatusCode, body, nil
}
