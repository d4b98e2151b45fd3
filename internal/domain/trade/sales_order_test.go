package trade

import (
	"testing"
	"time"

	"github.com/erp/focco-sync/internal/domain/shared"
	"github.com/erp/focco-sync/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTerms() OrderTerms {
	return OrderTerms{
		OrderTypeCode:    "VENDA",
		PaymentTermsCode: "30D",
		TaxCode:          "ICMS18",
		WarehouseCode:    "CD01",
		CurrencyCode:     "BRL",
	}
}

func createTestOrder(t *testing.T) *SalesOrder {
	order, err := NewSalesOrder("SO-2024-001", time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), testTerms())
	require.NoError(t, err)
	return order
}

func addTestItem(t *testing.T, order *SalesOrder, code string, quantity, price float64) *SalesOrderItem {
	item, err := order.AddItem(code, "Item "+code, "UN", decimal.NewFromFloat(quantity), decimal.NewFromFloat(price))
	require.NoError(t, err)
	return item
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     OrderStatus
		to       OrderStatus
		canTrans bool
	}{
		{OrderStatusDraft, OrderStatusConfirmed, true},
		{OrderStatusDraft, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusDraft, false},
		{OrderStatusConfirmed, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
	assert.False(t, OrderStatus("SHIPPED").IsValid())
}

func TestNewSalesOrder(t *testing.T) {
	t.Run("valid order starts as draft and pending", func(t *testing.T) {
		order := createTestOrder(t)
		assert.Equal(t, OrderStatusDraft, order.Status)
		assert.Equal(t, ExternalStatusPending, order.ExternalSync.Status)
		assert.Empty(t, order.ExternalSync.ExternalOrderID)
		assert.False(t, order.ExternalSync.InvoiceReceived)
		assert.Equal(t, 1, order.Version)
	})

	tests := []struct {
		name    string
		number  string
		date    time.Time
		terms   OrderTerms
		errCode string
	}{
		{"empty number", "  ", time.Now(), testTerms(), "INVALID_ORDER_NUMBER"},
		{"missing date", "SO-1", time.Time{}, testTerms(), "INVALID_ORDER_DATE"},
		{"missing currency", "SO-1", time.Now(), OrderTerms{}, "INVALID_CURRENCY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSalesOrder(tt.number, tt.date, tt.terms)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.errCode, domainErr.Code)
		})
	}
}

func TestSalesOrder_AddItem(t *testing.T) {
	order := createTestOrder(t)
	addTestItem(t, order, "A1", 2, 10.5)
	addTestItem(t, order, "B2", 1.5, 4)

	assert.Equal(t, 2, order.ItemCount())
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(27)))
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	_, err := order.AddItem("", "x", "UN", decimal.NewFromInt(1), decimal.NewFromInt(1))
	assert.Error(t, err)
	_, err = order.AddItem("C3", "x", "UN", decimal.Zero, decimal.NewFromInt(1))
	assert.Error(t, err)
	_, err = order.AddItem("C3", "x", "UN", decimal.NewFromInt(1), decimal.NewFromInt(-1))
	assert.Error(t, err)
}

func TestSalesOrder_Confirm(t *testing.T) {
	t.Run("requires items", func(t *testing.T) {
		order := createTestOrder(t)
		err := order.Confirm()
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NO_ITEMS", domainErr.Code)
	})

	t.Run("confirms once", func(t *testing.T) {
		order := createTestOrder(t)
		addTestItem(t, order, "A1", 1, 1)
		require.NoError(t, order.Confirm())
		assert.True(t, order.IsConfirmed())
		require.NotNil(t, order.ConfirmedAt)

		assert.Error(t, order.Confirm())
		_, err := order.AddItem("B2", "x", "UN", decimal.NewFromInt(1), decimal.NewFromInt(1))
		assert.Error(t, err)
	})
}

func TestSalesOrder_Cancel(t *testing.T) {
	order := createTestOrder(t)
	assert.Error(t, order.Cancel(""))
	require.NoError(t, order.Cancel("customer gave up"))
	assert.Equal(t, OrderStatusCancelled, order.Status)
	assert.Error(t, order.Confirm())
}

func TestSalesOrder_SetAddresses(t *testing.T) {
	order := createTestOrder(t)
	billing := valueobject.MustNewAddress("Rua A", "Joinville", "SC")

	assert.Error(t, order.SetAddresses(valueobject.EmptyAddress(), billing))

	require.NoError(t, order.SetAddresses(billing, valueobject.EmptyAddress()))
	assert.True(t, order.ShippingAddress.Equals(billing))
}
