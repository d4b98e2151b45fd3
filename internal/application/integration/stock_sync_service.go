package integration

import (
	"context"
	"fmt"

	"github.com/erp/focco-sync/internal/domain/catalog"
	"github.com/erp/focco-sync/internal/domain/integration"
	"go.uber.org/zap"
)

// StockSyncService copies the ERP on-hand quantity of each product into
// ExternalQtyOnHand. The value is overwritten, never merged.
type StockSyncService struct {
	productRepo catalog.ProductRepository
	gateway     integration.ERPGateway
	logger      *zap.Logger
	opts        options
}

// NewStockSyncService creates a new StockSyncService
func NewStockSyncService(
	productRepo catalog.ProductRepository,
	gateway integration.ERPGateway,
	logger *zap.Logger,
	opts ...Option,
) *StockSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockSyncService{
		productRepo: productRepo,
		gateway:     gateway,
		logger:      logger,
		opts:        buildOptions(opts),
	}
}

// SyncAll synchronizes every active product
func (s *StockSyncService) SyncAll(ctx context.Context) (*BatchSummary, error) {
	products, err := s.productRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active products: %w", err)
	}
	return s.SyncProducts(ctx, products)
}

// SyncProducts synchronizes the given products sequentially.
// Products without an ERP code are skipped. A failing product is logged and
// counted and does not affect the others.
func (s *StockSyncService) SyncProducts(ctx context.Context, products []catalog.Product) (*BatchSummary, error) {
	summary := newBatchSummary(len(products), s.opts.now())
	defer func() { summary.FinishedAt = s.opts.now() }()

	for i := range products {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		product := &products[i]
		if !product.HasExternalCode() {
			s.logger.Debug("skipping product without focco code",
				zap.String("product_id", product.ID.String()),
				zap.String("product_name", product.Name),
			)
			summary.record(OutcomeSkipped)
			continue
		}

		if err := s.syncProduct(ctx, product); err != nil {
			s.logger.Error("focco stock sync failed",
				zap.String("product_id", product.ID.String()),
				zap.String("product_code", product.Code),
				zap.Error(err),
			)
			summary.fail(product.ID, product.Code, err)
			continue
		}
		summary.record(OutcomeUpdated)
	}

	s.logger.Info("focco stock sync finished",
		zap.Int("total", summary.Total),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (s *StockSyncService) syncProduct(ctx context.Context, product *catalog.Product) error {
	records, err := s.gateway.GetProductStock(ctx, product.Code)
	if err != nil {
		return err
	}
	qty, err := integration.SumBalances(records)
	if err != nil {
		return err
	}

	now := s.opts.now()
	if err := product.UpdateExternalStock(qty, now); err != nil {
		return err
	}
	if err := s.productRepo.UpdateExternalStock(ctx, product.ID, qty, now); err != nil {
		return fmt.Errorf("persist stock: %w", err)
	}

	s.logger.Debug("focco stock updated",
		zap.String("product_code", product.Code),
		zap.Float64("qty_on_hand", qty),
		zap.Int("records", len(records)),
	)
	return nil
}
