package catalog

import (
	"math"
	"strings"
	"time"

	"github.com/erp/focco-sync/internal/domain/shared"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product is a catalog item mirrored against the ERP stock.
// Code is the ERP product code and may be empty for products the ERP does not know.
type Product struct {
	shared.BaseAggregateRoot
	Code   string
	Name   string
	Unit   string
	Status ProductStatus

	// ExternalQtyOnHand is the ERP on-hand total, overwritten on every sync
	ExternalQtyOnHand     float64
	ExternalStockSyncedAt *time.Time
}

// NewProduct creates a new active product
func NewProduct(code, name, unit string) (*Product, error) {
	code = strings.TrimSpace(code)
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	if strings.TrimSpace(unit) == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Unit:              unit,
		Status:            ProductStatusActive,
	}, nil
}

// HasExternalCode reports whether the product can be looked up in the ERP
func (p *Product) HasExternalCode() bool {
	return p.Code != ""
}

// UpdateExternalStock overwrites the cached ERP on-hand quantity
func (p *Product) UpdateExternalStock(qty float64, at time.Time) error {
	if math.IsNaN(qty) || math.IsInf(qty, 0) {
		return shared.NewDomainError("INVALID_QUANTITY", "On-hand quantity must be a finite number")
	}
	p.ExternalQtyOnHand = qty
	p.ExternalStockSyncedAt = &at
	p.UpdatedAt = at
	return nil
}

// Deactivate marks the product inactive
func (p *Product) Deactivate() {
	p.Status = ProductStatusInactive
	p.UpdatedAt = time.Now()
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}
