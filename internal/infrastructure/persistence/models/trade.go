package models

import (
	"time"

	"github.com/erp/focco-sync/internal/domain/shared/valueobject"
	"github.com/erp/focco-sync/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
// The external_* columns hold the ERP sync state and are written on their own
// by the sync services.
type SalesOrderModel struct {
	AggregateModel
	OrderNumber      string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status           trade.OrderStatus     `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	OrderDate        time.Time             `gorm:"not null"`
	OrderTypeCode    string                `gorm:"type:varchar(50);not null;default:''"`
	PaymentTermsCode string                `gorm:"type:varchar(50);not null;default:''"`
	TaxCode          string                `gorm:"type:varchar(50);not null;default:''"`
	WarehouseCode    string                `gorm:"type:varchar(50);not null;default:''"`
	CurrencyCode     string                `gorm:"type:varchar(3);not null"`
	BillingAddress   valueobject.Address   `gorm:"type:jsonb"`
	ShippingAddress  valueobject.Address   `gorm:"type:jsonb"`
	Items            []SalesOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
	TotalAmount      decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Remark           string                `gorm:"type:text"`
	ConfirmedAt      *time.Time            `gorm:"index"`
	CancelledAt      *time.Time
	CancelReason     string `gorm:"type:varchar(500)"`

	ExternalOrderID   string               `gorm:"type:varchar(64);not null;default:'';index"`
	ExternalStatus    trade.ExternalStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	InvoiceReceived   bool                 `gorm:"not null;default:false"`
	ExternalLastError string               `gorm:"type:text"`
	ExternalSyncedAt  *time.Time
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder entity.
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	order := &trade.SalesOrder{
		BaseAggregateRoot: m.aggregateRoot(),
		OrderNumber:       m.OrderNumber,
		Status:            m.Status,
		OrderDate:         m.OrderDate,
		Terms: trade.OrderTerms{
			OrderTypeCode:    m.OrderTypeCode,
			PaymentTermsCode: m.PaymentTermsCode,
			TaxCode:          m.TaxCode,
			WarehouseCode:    m.WarehouseCode,
			CurrencyCode:     m.CurrencyCode,
		},
		BillingAddress:  m.BillingAddress,
		ShippingAddress: m.ShippingAddress,
		TotalAmount:     m.TotalAmount,
		Remark:          m.Remark,
		ConfirmedAt:     m.ConfirmedAt,
		CancelledAt:     m.CancelledAt,
		CancelReason:    m.CancelReason,
		Items:           make([]trade.SalesOrderItem, len(m.Items)),
		ExternalSync:    m.ExternalSyncToDomain(),
	}
	for i, item := range m.Items {
		order.Items[i] = *item.ToDomain()
	}
	return order
}

// ExternalSyncToDomain rebuilds the ERP sync state of the order
func (m *SalesOrderModel) ExternalSyncToDomain() trade.ExternalSync {
	return trade.ExternalSync{
		ExternalOrderID: m.ExternalOrderID,
		Status:          m.ExternalStatus,
		InvoiceReceived: m.InvoiceReceived,
		LastError:       m.ExternalLastError,
		LastSyncedAt:    m.ExternalSyncedAt,
	}
}

// FromDomain populates the persistence model from a domain SalesOrder entity.
func (m *SalesOrderModel) FromDomain(o *trade.SalesOrder) {
	m.setAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.Status = o.Status
	m.OrderDate = o.OrderDate
	m.OrderTypeCode = o.Terms.OrderTypeCode
	m.PaymentTermsCode = o.Terms.PaymentTermsCode
	m.TaxCode = o.Terms.TaxCode
	m.WarehouseCode = o.Terms.WarehouseCode
	m.CurrencyCode = o.Terms.CurrencyCode
	m.BillingAddress = o.BillingAddress
	m.ShippingAddress = o.ShippingAddress
	m.TotalAmount = o.TotalAmount
	m.Remark = o.Remark
	m.ConfirmedAt = o.ConfirmedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.ExternalOrderID = o.ExternalSync.ExternalOrderID
	m.ExternalStatus = o.ExternalSync.Status
	m.InvoiceReceived = o.ExternalSync.InvoiceReceived
	m.ExternalLastError = o.ExternalSync.LastError
	m.ExternalSyncedAt = o.ExternalSync.LastSyncedAt
	m.Items = make([]SalesOrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = *SalesOrderItemModelFromDomain(&o.Items[i])
	}
}

// ExternalSyncColumns returns the column values written by SaveExternalSync
func (m *SalesOrderModel) ExternalSyncColumns() map[string]any {
	return map[string]any{
		"external_order_id":   m.ExternalOrderID,
		"external_status":     m.ExternalStatus,
		"invoice_received":    m.InvoiceReceived,
		"external_last_error": m.ExternalLastError,
		"external_synced_at":  m.ExternalSyncedAt,
		"updated_at":          m.UpdatedAt,
	}
}

// SalesOrderModelFromDomain creates a new persistence model from a domain SalesOrder entity.
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{}
	m.FromDomain(o)
	return m
}

// SalesOrderItemModel is the persistence model for the SalesOrderItem entity.
type SalesOrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductCode string          `gorm:"type:varchar(50);not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit        string          `gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalesOrderItemModel) TableName() string {
	return "sales_order_items"
}

// ToDomain converts the persistence model to a domain SalesOrderItem entity.
func (m *SalesOrderItemModel) ToDomain() *trade.SalesOrderItem {
	return &trade.SalesOrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductCode: m.ProductCode,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Amount:      m.Amount,
		UnitCode:    m.Unit,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SalesOrderItem entity.
func (m *SalesOrderItemModel) FromDomain(i *trade.SalesOrderItem) {
	m.ID = i.ID
	m.OrderID = i.OrderID
	m.ProductCode = i.ProductCode
	m.ProductName = i.ProductName
	m.Quantity = i.Quantity
	m.UnitPrice = i.UnitPrice
	m.Amount = i.Amount
	m.Unit = i.UnitCode
	m.CreatedAt = i.CreatedAt
	m.UpdatedAt = i.UpdatedAt
}

// SalesOrderItemModelFromDomain creates a new persistence model from a domain SalesOrderItem entity.
func SalesOrderItemModelFromDomain(i *trade.SalesOrderItem) *SalesOrderItemModel {
	m := &SalesOrderItemModel{}
	m.FromDomain(i)
	return m
}
