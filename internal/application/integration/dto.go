package integration

import (
	"time"

	"github.com/erp/focco-sync/internal/domain/catalog"
	"github.com/erp/focco-sync/internal/domain/shared/valueobject"
	"github.com/erp/focco-sync/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Sales Order DTOs ====================

// CreateSalesOrderRequest represents a request to create a draft sales order
type CreateSalesOrderRequest struct {
	OrderNumber      string                      `json:"order_number" binding:"required,min=1,max=50" example:"SO-2024-0001"`
	OrderDate        time.Time                   `json:"order_date" binding:"required" example:"2024-03-05T00:00:00Z"`
	OrderTypeCode    string                      `json:"order_type_code" binding:"max=50,erpcode" example:"VENDA"`
	PaymentTermsCode string                      `json:"payment_terms_code" binding:"max=50,erpcode" example:"30D"`
	TaxCode          string                      `json:"tax_code" binding:"max=50,erpcode" example:"ICMS18"`
	WarehouseCode    string                      `json:"warehouse_code" binding:"max=50,erpcode" example:"CD01"`
	CurrencyCode     string                      `json:"currency_code" binding:"required,len=3" example:"BRL"`
	BillingAddress   valueobject.AddressDTO      `json:"billing_address"`
	ShippingAddress  *valueobject.AddressDTO     `json:"shipping_address"`
	Items            []CreateSalesOrderItemInput `json:"items" binding:"dive"`
	Remark           string                      `json:"remark" binding:"max=500"`
}

// CreateSalesOrderItemInput represents an item in the create order request
type CreateSalesOrderItemInput struct {
	ProductCode string          `json:"product_code" binding:"required,min=1,max=50,erpcode" example:"A1"`
	ProductName string          `json:"product_name" binding:"required,min=1,max=200" example:"Parafuso sextavado"`
	Unit        string          `json:"unit" binding:"required,min=1,max=20" example:"UN"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required" swaggertype:"string" example:"3"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required" swaggertype:"string" example:"12.50"`
}

// SalesOrderItemResponse represents a sales order item in API responses
type SalesOrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity" swaggertype:"string"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string"`
}

// ExternalSyncResponse is the ERP synchronization state of an order
type ExternalSyncResponse struct {
	ExternalOrderID string     `json:"external_order_id,omitempty"`
	Status          string     `json:"status"`
	InvoiceReceived bool       `json:"invoice_received"`
	LastError       string     `json:"last_error,omitempty"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
}

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID               uuid.UUID                `json:"id"`
	OrderNumber      string                   `json:"order_number"`
	Status           string                   `json:"status"`
	OrderDate        time.Time                `json:"order_date"`
	OrderTypeCode    string                   `json:"order_type_code"`
	PaymentTermsCode string                   `json:"payment_terms_code"`
	TaxCode          string                   `json:"tax_code"`
	WarehouseCode    string                   `json:"warehouse_code"`
	CurrencyCode     string                   `json:"currency_code"`
	BillingAddress   valueobject.AddressDTO   `json:"billing_address"`
	ShippingAddress  valueobject.AddressDTO   `json:"shipping_address"`
	Items            []SalesOrderItemResponse `json:"items"`
	TotalAmount      decimal.Decimal          `json:"total_amount" swaggertype:"string"`
	Remark           string                   `json:"remark,omitempty"`
	ConfirmedAt      *time.Time               `json:"confirmed_at,omitempty"`
	Focco            ExternalSyncResponse     `json:"focco"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
	Version          int                      `json:"version"`
}

// QuoteTaxResponse carries the ERP answer to a quote, untouched
type QuoteTaxResponse struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Quote       any       `json:"quote" swaggertype:"object"`
}

// ToSalesOrderResponse converts a domain SalesOrder to its response DTO
func ToSalesOrderResponse(order *trade.SalesOrder) SalesOrderResponse {
	items := make([]SalesOrderItemResponse, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		items[i] = SalesOrderItemResponse{
			ID:          item.ID,
			ProductCode: item.ProductCode,
			ProductName: item.ProductName,
			Unit:        item.UnitCode,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}

	return SalesOrderResponse{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		Status:           string(order.Status),
		OrderDate:        order.OrderDate,
		OrderTypeCode:    order.Terms.OrderTypeCode,
		PaymentTermsCode: order.Terms.PaymentTermsCode,
		TaxCode:          order.Terms.TaxCode,
		WarehouseCode:    order.Terms.WarehouseCode,
		CurrencyCode:     order.Terms.CurrencyCode,
		BillingAddress:   order.BillingAddress.ToDTO(),
		ShippingAddress:  order.ShippingAddress.ToDTO(),
		Items:            items,
		TotalAmount:      order.TotalAmount,
		Remark:           order.Remark,
		ConfirmedAt:      order.ConfirmedAt,
		Focco: ExternalSyncResponse{
			ExternalOrderID: order.ExternalSync.ExternalOrderID,
			Status:          string(order.ExternalSync.Status),
			InvoiceReceived: order.ExternalSync.InvoiceReceived,
			LastError:       order.ExternalSync.LastError,
			LastSyncedAt:    order.ExternalSync.LastSyncedAt,
		},
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
		Version:   order.Version,
	}
}

// ==================== Product DTOs ====================

// CreateProductRequest represents a request to create a product.
// Code may be left empty for products that are not stocked in the ERP.
type CreateProductRequest struct {
	Code string `json:"code" binding:"max=50,erpcode" example:"A1"`
	Name string `json:"name" binding:"required,min=1,max=200" example:"Parafuso sextavado"`
	Unit string `json:"unit" binding:"required,min=1,max=20" example:"UN"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                    uuid.UUID  `json:"id"`
	Code                  string     `json:"code"`
	Name                  string     `json:"name"`
	Unit                  string     `json:"unit"`
	Status                string     `json:"status"`
	ExternalQtyOnHand     float64    `json:"external_qty_on_hand"`
	ExternalStockSyncedAt *time.Time `json:"external_stock_synced_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// ToProductResponse converts a domain Product to its response DTO
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                    p.ID,
		Code:                  p.Code,
		Name:                  p.Name,
		Unit:                  p.Unit,
		Status:                string(p.Status),
		ExternalQtyOnHand:     p.ExternalQtyOnHand,
		ExternalStockSyncedAt: p.ExternalStockSyncedAt,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}
