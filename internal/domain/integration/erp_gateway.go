package integration

import (
	"context"
	"encoding/json"

	"github.com/erp/focco-sync/internal/domain/trade"
)

// ERPGateway is the port through which the application talks to the ERP.
// Every method performs exactly one remote call and never retries.
type ERPGateway interface {
	// SubmitSalesOrder sends a confirmed order for invoicing
	SubmitSalesOrder(ctx context.Context, order *trade.SalesOrder) (*SubmissionResult, error)

	// CalculateQuoteTax asks the ERP to compute taxes for an order treated as a quote
	CalculateQuoteTax(ctx context.Context, order *trade.SalesOrder) (*QuoteTaxResult, error)

	// PollInvoices returns the invoices issued for an accepted order.
	// "Not invoiced yet" is an empty result, not an error.
	PollInvoices(ctx context.Context, externalOrderID string) (*InvoiceQueryResult, error)

	// GetProductStock returns the balance records of a product across all warehouses
	GetProductStock(ctx context.Context, productCode string) ([]BalanceRecord, error)
}

// SubmissionResult is what the ERP answers to an accepted order
type SubmissionResult struct {
	ExternalOrderID string
	InvoiceID       string
	Status          string
	ItemsInvoiced   int
}

// QuoteTaxResult carries the quote as returned by the ERP, tax values filled in
type QuoteTaxResult struct {
	Quote json.RawMessage
}

// InvoiceRecord is one invoice as returned by the ERP, kept opaque
type InvoiceRecord = json.RawMessage

// InvoiceQueryResult is the transient outcome of an invoice poll
type InvoiceQueryResult struct {
	// NoContent is set when the ERP answered 204
	NoContent bool
	Invoices  []InvoiceRecord
}

// IsEmpty reports whether no invoice exists yet
func (r *InvoiceQueryResult) IsEmpty() bool {
	return r == nil || len(r.Invoices) == 0
}
