package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/focco-sync/internal/domain/shared"
	"github.com/erp/focco-sync/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the host-side status of a sales order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ErrOrderCancelled is returned for operations on cancelled orders
var ErrOrderCancelled = shared.NewDomainError("ORDER_CANCELLED", "Order is cancelled")

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusConfirmed, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return target == OrderStatusConfirmed || target == OrderStatusCancelled
	case OrderStatusConfirmed, OrderStatusCancelled:
		return false
	}
	return false
}

// OrderTerms groups the commercial codes the ERP needs to accept an order.
// The values are host codes; translation happens in the De-Para tables.
type OrderTerms struct {
	OrderTypeCode    string
	PaymentTermsCode string
	TaxCode          string
	WarehouseCode    string
	CurrencyCode     string
}

// SalesOrderItem represents a line item in a sales order
type SalesOrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductCode string
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal // Quantity * UnitPrice
	UnitCode    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSalesOrderItem creates a new sales order item
func NewSalesOrderItem(orderID uuid.UUID, productCode, productName, unitCode string, quantity, unitPrice decimal.Decimal) (*SalesOrderItem, error) {
	productCode = strings.TrimSpace(productCode)
	if productCode == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_CODE", "Product code cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if unitCode == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}

	now := time.Now()
	return &SalesOrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductCode: productCode,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      quantity.Mul(unitPrice),
		UnitCode:    unitCode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SalesOrder represents a sales order aggregate root.
// It carries the host lifecycle (draft, confirmed, cancelled) and the ERP
// synchronization state in ExternalSync.
type SalesOrder struct {
	shared.BaseAggregateRoot
	OrderNumber     string
	Status          OrderStatus
	OrderDate       time.Time
	Terms           OrderTerms
	BillingAddress  valueobject.Address
	ShippingAddress valueobject.Address
	Items           []SalesOrderItem
	TotalAmount     decimal.Decimal
	Remark          string
	ConfirmedAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string
	ExternalSync    ExternalSync
}

// NewSalesOrder creates a new draft sales order
func NewSalesOrder(orderNumber string, orderDate time.Time, terms OrderTerms) (*SalesOrder, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if orderDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ORDER_DATE", "Order date is required")
	}
	if terms.CurrencyCode == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency code is required")
	}

	return &SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		Status:            OrderStatusDraft,
		OrderDate:         orderDate,
		Terms:             terms,
		Items:             make([]SalesOrderItem, 0),
		TotalAmount:       decimal.Zero,
		ExternalSync:      NewExternalSync(),
	}, nil
}

// SetAddresses sets the billing and shipping addresses.
// An empty shipping address falls back to the billing address.
func (o *SalesOrder) SetAddresses(billing, shipping valueobject.Address) error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot change addresses of a non-draft order")
	}
	if billing.IsEmpty() {
		return shared.NewDomainError("INVALID_ADDRESS", "Billing address is required")
	}
	if shipping.IsEmpty() {
		shipping = billing
	}
	o.BillingAddress = billing
	o.ShippingAddress = shipping
	o.UpdatedAt = time.Now()
	return nil
}

// AddItem adds a new item to the order.
// Only allowed in DRAFT status.
func (o *SalesOrder) AddItem(productCode, productName, unitCode string, quantity, unitPrice decimal.Decimal) (*SalesOrderItem, error) {
	if o.Status != OrderStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-draft order")
	}

	item, err := NewSalesOrderItem(o.ID, productCode, productName, unitCode, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.UpdatedAt = time.Now()
	return item, nil
}

// Confirm confirms the order, transitioning from DRAFT to CONFIRMED
func (o *SalesOrder) Confirm() error {
	if !o.Status.CanTransitionTo(OrderStatusConfirmed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm order in %s status", o.Status))
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot confirm order without items")
	}

	now := time.Now()
	o.Status = OrderStatusConfirmed
	o.ConfirmedAt = &now
	o.UpdatedAt = now
	return nil
}

// Cancel cancels a draft order
func (o *SalesOrder) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now
	return nil
}

func (o *SalesOrder) recalculateTotals() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	o.TotalAmount = total
}

// IsDraft returns true if the order is in draft status
func (o *SalesOrder) IsDraft() bool {
	return o.Status == OrderStatusDraft
}

// IsConfirmed returns true if the order is confirmed
func (o *SalesOrder) IsConfirmed() bool {
	return o.Status == OrderStatusConfirmed
}

// ItemCount returns the number of items in the order
func (o *SalesOrder) ItemCount() int {
	return len(o.Items)
}
