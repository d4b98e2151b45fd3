package integration

import (
	"context"
	"encoding/json"

	"github.com/erp/focco-sync/internal/domain/integration"
	"github.com/erp/focco-sync/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuoteTaxService asks the ERP to compute taxes for an order sent as a quote.
// Nothing is persisted; the ERP answer is handed back to the caller.
type QuoteTaxService struct {
	orderRepo trade.SalesOrderRepository
	gateway   integration.ERPGateway
	logger    *zap.Logger
}

// NewQuoteTaxService creates a new QuoteTaxService
func NewQuoteTaxService(orderRepo trade.SalesOrderRepository, gateway integration.ERPGateway, logger *zap.Logger) *QuoteTaxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteTaxService{orderRepo: orderRepo, gateway: gateway, logger: logger}
}

// CalculateTax submits the order as a quote and returns the ERP response.
// Unlike order submission, ERP errors are returned to the caller.
func (s *QuoteTaxService) CalculateTax(ctx context.Context, orderID uuid.UUID) (*QuoteTaxResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == trade.OrderStatusCancelled {
		return nil, trade.ErrOrderCancelled
	}

	result, err := s.gateway.CalculateQuoteTax(ctx, order)
	if err != nil {
		s.logger.Warn("focco quote tax calculation failed",
			zap.String("order_id", order.ID.String()),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return nil, err
	}

	var quote any = json.RawMessage(result.Quote)
	if len(result.Quote) == 0 {
		quote = nil
	}
	return &QuoteTaxResponse{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Quote:       quote,
	}, nil
}
