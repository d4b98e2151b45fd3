package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/focco-sync/internal/domain/integration"
	"github.com/erp/focco-sync/internal/domain/shared"
	"github.com/erp/focco-sync/internal/domain/trade"
	"go.uber.org/zap"
)

// InvoiceReconciliationService polls the ERP for invoices of accepted orders.
//
// An order counts as invoiced as soon as any invoice exists: it is then marked
// invoiced_full. Partial invoicing is not detected.
type InvoiceReconciliationService struct {
	orderRepo trade.SalesOrderRepository
	gateway   integration.ERPGateway
	logger    *zap.Logger
	opts      options
}

// NewInvoiceReconciliationService creates a new InvoiceReconciliationService
func NewInvoiceReconciliationService(
	orderRepo trade.SalesOrderRepository,
	gateway integration.ERPGateway,
	logger *zap.Logger,
	opts ...Option,
) *InvoiceReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceReconciliationService{
		orderRepo: orderRepo,
		gateway:   gateway,
		logger:    logger,
		opts:      buildOptions(opts),
	}
}

// Reconcile polls every order awaiting an invoice, one after the other.
// A failing order is logged and counted; the batch goes on. Only a cancelled
// context stops the run early.
func (s *InvoiceReconciliationService) Reconcile(ctx context.Context) (*BatchSummary, error) {
	orders, err := s.orderRepo.FindAwaitingInvoice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders awaiting invoice: %w", err)
	}

	summary := newBatchSummary(len(orders), s.opts.now())
	defer func() { summary.FinishedAt = s.opts.now() }()

	for i := range orders {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		order := &orders[i]
		outcome, err := s.reconcileOrder(ctx, order)
		if err != nil {
			s.logger.Error("focco invoice reconciliation failed",
				zap.String("order_id", order.ID.String()),
				zap.String("order_number", order.OrderNumber),
				zap.String("external_order_id", order.ExternalSync.ExternalOrderID),
				zap.Error(err),
			)
			summary.fail(order.ID, order.OrderNumber, err)
			continue
		}
		summary.record(outcome)
	}

	s.logger.Info("focco invoice reconciliation finished",
		zap.Int("total", summary.Total),
		zap.Int("invoiced", summary.Updated),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (s *InvoiceReconciliationService) reconcileOrder(ctx context.Context, order *trade.SalesOrder) (string, error) {
	if !order.ExternalSync.AwaitingInvoice() {
		return OutcomeSkipped, nil
	}

	result, err := s.gateway.PollInvoices(ctx, order.ExternalSync.ExternalOrderID)
	if err != nil {
		return "", err
	}
	if result.IsEmpty() {
		return OutcomeUnchanged, nil
	}

	now := s.opts.now()
	if err := order.ExternalSync.MarkInvoiced(trade.ExternalStatusInvoicedFull, now); err != nil {
		return "", err
	}
	order.Touch(now)
	if err := s.orderRepo.SaveExternalSync(ctx, order); err != nil {
		if errors.Is(err, shared.ErrStaleVersion) {
			// an overlapping run stored the invoice first
			s.logger.Info("focco invoice already recorded",
				zap.String("order_id", order.ID.String()),
				zap.String("external_order_id", order.ExternalSync.ExternalOrderID),
			)
			return OutcomeSkipped, nil
		}
		return "", fmt.Errorf("persist invoice state: %w", err)
	}

	s.logger.Info("focco invoice received",
		zap.String("order_id", order.ID.String()),
		zap.String("external_order_id", order.ExternalSync.ExternalOrderID),
		zap.Int("invoices", len(result.Invoices)),
	)
	return OutcomeUpdated, nil
}
