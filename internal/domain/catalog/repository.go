package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindActive returns all active products ordered by code
	FindActive(ctx context.Context) ([]Product, error)

	// ExistsByCode checks if a non-empty product code is already taken
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// UpdateExternalStock writes only the ERP stock columns of a product
	UpdateExternalStock(ctx context.Context, id uuid.UUID, qty float64, syncedAt time.Time) error
}
