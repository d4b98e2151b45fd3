package models

import (
	"time"

	"github.com/erp/focco-sync/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product aggregate root.
// Code is unique among non-empty values (partial index in the migrations).
type ProductModel struct {
	AggregateModel
	Code                  string                `gorm:"type:varchar(50);not null;default:'';index"`
	Name                  string                `gorm:"type:varchar(200);not null"`
	Unit                  string                `gorm:"type:varchar(20);not null"`
	Status                catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active'"`
	ExternalQtyOnHand     float64               `gorm:"type:double precision;not null;default:0"`
	ExternalStockSyncedAt *time.Time
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot:     m.aggregateRoot(),
		Code:                  m.Code,
		Name:                  m.Name,
		Unit:                  m.Unit,
		Status:                m.Status,
		ExternalQtyOnHand:     m.ExternalQtyOnHand,
		ExternalStockSyncedAt: m.ExternalStockSyncedAt,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.setAggregateRoot(p.BaseAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.Unit = p.Unit
	m.Status = p.Status
	m.ExternalQtyOnHand = p.ExternalQtyOnHand
	m.ExternalStockSyncedAt = p.ExternalStockSyncedAt
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
