package trade

import (
	"context"

	"github.com/google/uuid"
)

// SalesOrderRepository defines the interface for sales order persistence
type SalesOrderRepository interface {
	// FindByID finds a sales order by ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)

	// FindByOrderNumber finds a sales order by its host reference
	FindByOrderNumber(ctx context.Context, orderNumber string) (*SalesOrder, error)

	// ExistsByOrderNumber checks if an order number is already taken
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// FindAwaitingInvoice returns orders that were accepted by the ERP
	// (external order id set) and have not received an invoice yet
	FindAwaitingInvoice(ctx context.Context) ([]SalesOrder, error)

	// Save creates or updates a sales order and its items
	Save(ctx context.Context, order *SalesOrder) error

	// SaveExternalSync persists only the ERP sync columns of the order. It
	// fails with shared.ErrStaleVersion when the stored version moved on.
	SaveExternalSync(ctx context.Context, order *SalesOrder) error
}
