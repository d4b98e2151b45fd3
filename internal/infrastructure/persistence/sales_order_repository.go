package persistence

import (
	"context"
	"errors"

	"github.com/erp/focco-sync/internal/domain/shared"
	"github.com/erp/focco-sync/internal/domain/trade"
	"github.com/erp/focco-sync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSalesOrderRepository implements trade.SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

var _ trade.SalesOrderRepository = (*GormSalesOrderRepository)(nil)

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// FindByID finds a sales order by its ID
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber finds a sales order by its host reference
func (r *GormSalesOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("order_number = ?", orderNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByOrderNumber checks if an order number is already taken
func (r *GormSalesOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SalesOrderModel{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAwaitingInvoice returns accepted orders without an invoice, oldest first
func (r *GormSalesOrderRepository) FindAwaitingInvoice(ctx context.Context) ([]trade.SalesOrder, error) {
	var rows []models.SalesOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("external_order_id <> '' AND invoice_received = ?", false).
		Order("confirmed_at ASC, order_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	orders := make([]trade.SalesOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// Save creates or updates a sales order and its items
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	model := models.SalesOrderModelFromDomain(order)
	items := model.Items
	model.Items = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(model).Error; err != nil {
			return err
		}

		// Delete items no longer on the order
		currentItemIDs := make([]uuid.UUID, len(items))
		for i := range items {
			currentItemIDs[i] = items[i].ID
		}
		del := tx.Where("order_id = ?", order.ID)
		if len(currentItemIDs) > 0 {
			del = del.Where("id NOT IN ?", currentItemIDs)
		}
		if err := del.Delete(&models.SalesOrderItemModel{}).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Save(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveExternalSync persists only the ERP sync columns, leaving the host
// columns as they are in the database. The write is conditioned on the
// version the order was loaded with; on success the in-memory version is
// bumped, otherwise shared.ErrStaleVersion is returned.
func (r *GormSalesOrderRepository) SaveExternalSync(ctx context.Context, order *trade.SalesOrder) error {
	model := models.SalesOrderModelFromDomain(order)
	columns := model.ExternalSyncColumns()
	columns["version"] = gorm.Expr("version + 1")

	result := r.db.WithContext(ctx).
		Model(&models.SalesOrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.SalesOrderModel{}).
			Where("id = ?", order.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrStaleVersion
	}
	order.IncrementVersion()
	return nil
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}
