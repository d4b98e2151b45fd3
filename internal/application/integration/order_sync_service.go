package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/focco-sync/internal/domain/integration"
	"github.com/erp/focco-sync/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// syncSaveTimeout bounds persisting a submission outcome once the request
// context no longer applies.
const syncSaveTimeout = 10 * time.Second

// OrderSyncService owns the sales order lifecycle on this side and pushes
// confirmed orders to the ERP.
//
// Submission is best effort: whatever goes wrong while talking to the ERP is
// recorded on the order (status error + last error) and logged, never returned.
// There is no automatic retry; ResubmitOrder is the only way to try again.
type OrderSyncService struct {
	orderRepo trade.SalesOrderRepository
	gateway   integration.ERPGateway
	logger    *zap.Logger
	opts      options
}

// NewOrderSyncService creates a new OrderSyncService
func NewOrderSyncService(
	orderRepo trade.SalesOrderRepository,
	gateway integration.ERPGateway,
	logger *zap.Logger,
	opts ...Option,
) *OrderSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderSyncService{
		orderRepo: orderRepo,
		gateway:   gateway,
		logger:    logger,
		opts:      buildOptions(opts),
	}
}

// CreateOrder creates a draft sales order
func (s *OrderSyncService) CreateOrder(ctx context.Context, req CreateSalesOrderRequest) (*SalesOrderResponse, error) {
	exists, err := s.orderRepo.ExistsByOrderNumber(ctx, strings.TrimSpace(req.OrderNumber))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrOrderNumberTaken
	}

	order, err := trade.NewSalesOrder(req.OrderNumber, req.OrderDate, trade.OrderTerms{
		OrderTypeCode:    req.OrderTypeCode,
		PaymentTermsCode: req.PaymentTermsCode,
		TaxCode:          req.TaxCode,
		WarehouseCode:    req.WarehouseCode,
		CurrencyCode:     strings.ToUpper(req.CurrencyCode),
	})
	if err != nil {
		return nil, err
	}

	billing, err := req.BillingAddress.ToAddress()
	if err != nil {
		return nil, err
	}
	shipping := billing
	if req.ShippingAddress != nil {
		if shipping, err = req.ShippingAddress.ToAddress(); err != nil {
			return nil, err
		}
	}
	if !billing.IsEmpty() {
		if err := order.SetAddresses(billing, shipping); err != nil {
			return nil, err
		}
	}

	for _, item := range req.Items {
		if _, err := order.AddItem(item.ProductCode, item.ProductName, item.Unit, item.Quantity, item.UnitPrice); err != nil {
			return nil, err
		}
	}
	order.Remark = req.Remark

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// GetOrder retrieves a sales order with its sync state
func (s *OrderSyncService) GetOrder(ctx context.Context, orderID uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToSalesOrderResponse(order)
	return &response, nil
}

// ConfirmOrder confirms a draft order and submits it to the ERP once.
// Only the confirmation can fail; the submission outcome is on the returned order.
func (s *OrderSyncService) ConfirmOrder(ctx context.Context, orderID uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.Confirm(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("sales order confirmed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("items_count", order.ItemCount()),
	)

	if order.ExternalSync.CanSubmit() {
		s.submit(ctx, order)
	}

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// ResubmitOrder retries the submission of a confirmed order the ERP never accepted
func (s *OrderSyncService) ResubmitOrder(ctx context.Context, orderID uuid.UUID) (*SalesOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsConfirmed() {
		return nil, ErrOrderNotConfirmed
	}
	if !order.ExternalSync.CanSubmit() {
		return nil, ErrOrderAlreadySubmitted
	}

	s.logger.Info("resubmitting sales order to focco",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("previous_status", order.ExternalSync.Status.String()),
	)
	s.submit(ctx, order)

	response := ToSalesOrderResponse(order)
	return &response, nil
}

// submit performs exactly one submission and persists its outcome
func (s *OrderSyncService) submit(ctx context.Context, order *trade.SalesOrder) {
	log := s.logger.With(
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
	)

	result, err := s.gateway.SubmitSalesOrder(ctx, order)
	now := s.opts.now()
	if err == nil {
		if markErr := order.ExternalSync.MarkSent(result.ExternalOrderID, now); markErr != nil {
			err = fmt.Errorf("%w: %v", integration.ErrInvalidResponse, markErr)
		}
	}

	if err != nil {
		log.Error("focco sales order submission failed",
			zap.Error(err),
			zap.String("reason", failureReason(err)),
		)
		if markErr := order.ExternalSync.MarkFailed(err.Error(), now); markErr != nil {
			log.Error("cannot record submission failure", zap.Error(markErr))
			return
		}
	} else {
		log.Info("focco sales order accepted",
			zap.String("external_order_id", order.ExternalSync.ExternalOrderID),
			zap.String("invoice_id", result.InvoiceID),
			zap.String("focco_status", result.Status),
			zap.Int("items_invoiced", result.ItemsInvoiced),
		)
	}

	order.Touch(now)
	// The outcome must reach the database even when the caller went away
	// mid-submission; an accepted order would otherwise be sent twice.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), syncSaveTimeout)
	defer cancel()
	if err := s.orderRepo.SaveExternalSync(saveCtx, order); err != nil {
		log.Error("cannot persist focco sync state",
			zap.Error(err),
			zap.String("external_status", order.ExternalSync.Status.String()),
		)
	}
}

// failureReason classifies a submission error for log aggregation
func failureReason(err error) string {
	var remoteErr *integration.RemoteRequestError
	var transportErr *integration.TransportError
	switch {
	case errors.As(err, &remoteErr):
		return fmt.Sprintf("remote_%d", remoteErr.StatusCode)
	case errors.As(err, &transportErr):
		return "transport"
	case errors.Is(err, integration.ErrMapping):
		return "mapping"
	case errors.Is(err, integration.ErrMissingExternalID):
		return "missing_external_id"
	case errors.Is(err, integration.ErrInvalidResponse):
		return "invalid_response"
	default:
		return "unknown"
	}
}
