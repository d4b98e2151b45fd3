package focco

import (
	"context"
	"fmt"

	"github.com/erp/focco-sync/internal/domain/integration"
	"github.com/erp/focco-sync/internal/domain/trade"
)

// Gateway implements integration.ERPGateway on top of the Focco client and mapper
type Gateway struct {
	client *Client
	mapper *Mapper
}

var _ integration.ERPGateway = (*Gateway)(nil)

// NewGateway creates a gateway
func NewGateway(client *Client, mapper *Mapper) *Gateway {
	return &Gateway{client: client, mapper: mapper}
}

// SubmitSalesOrder maps and sends a confirmed order
func (g *Gateway) SubmitSalesOrder(ctx context.Context, order *trade.SalesOrder) (*integration.SubmissionResult, error) {
	payload, err := g.mapper.BuildSalesOrder(order)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.SubmitSalesOrder(ctx, payload)
	if err != nil {
		return nil, err
	}
	if resp.PedidoVendaID == "" {
		return nil, fmt.Errorf("%w: order %s", integration.ErrMissingExternalID, order.OrderNumber)
	}

	return &integration.SubmissionResult{
		ExternalOrderID: resp.PedidoVendaID.String(),
		InvoiceID:       resp.InvoiceID.String(),
		Status:          resp.Status,
		ItemsInvoiced:   resp.ItemsInvoicedCount(),
	}, nil
}

// CalculateQuoteTax sends the order as a quote and returns Focco's answer as is
func (g *Gateway) CalculateQuoteTax(ctx context.Context, order *trade.SalesOrder) (*integration.QuoteTaxResult, error) {
	payload, err := g.mapper.BuildQuote(order)
	if err != nil {
		return nil, err
	}

	quote, err := g.client.SubmitQuoteForTax(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &integration.QuoteTaxResult{Quote: quote}, nil
}

// PollInvoices lists invoices for an accepted order
func (g *Gateway) PollInvoices(ctx context.Context, externalOrderID string) (*integration.InvoiceQueryResult, error) {
	resp, err := g.client.PollInvoices(ctx, externalOrderID)
	if err != nil {
		return nil, err
	}

	invoices := make([]integration.InvoiceRecord, 0, len(resp.Invoices))
	for _, inv := range resp.Invoices {
		invoices = append(invoices, integration.InvoiceRecord(inv))
	}
	return &integration.InvoiceQueryResult{NoContent: resp.NoContent, Invoices: invoices}, nil
}

// GetProductStock returns the balance records of a product
func (g *Gateway) GetProductStock(ctx context.Context, productCode string) ([]integration.BalanceRecord, error) {
	return g.client.GetProductStock(ctx, productCode)
}
