package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	appintegration "github.com/erp/focco-sync/internal/application/integration"
	"github.com/erp/focco-sync/internal/domain/integration"
	"github.com/erp/focco-sync/internal/domain/shared"
	"github.com/erp/focco-sync/internal/domain/shared/valueobject"
	"github.com/erp/focco-sync/internal/domain/trade"
	"github.com/erp/focco-sync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSalesOrderEngine(repo *MockSalesOrderRepository, gateway *MockERPGateway) *gin.Engine {
	h := NewSalesOrderHandler(
		appintegration.NewOrderSyncService(repo, gateway, nil),
		appintegration.NewQuoteTaxService(repo, gateway, nil),
	)
	engine := newTestEngine()
	engine.POST("/sales-orders", h.Create)
	engine.GET("/sales-orders/:id", h.GetByID)
	engine.POST("/sales-orders/:id/confirm", h.Confirm)
	engine.POST("/sales-orders/:id/focco/resubmit", h.Resubmit)
	engine.POST("/sales-orders/:id/focco/quote-tax", h.QuoteTax)
	return engine
}

func newDraftOrder(t *testing.T) *trade.SalesOrder {
	t.Helper()
	order, err := trade.NewSalesOrder("SO-100", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), trade.OrderTerms{
		OrderTypeCode:    "VENDA",
		PaymentTermsCode: "30D",
		TaxCode:          "ICMS18",
		WarehouseCode:    "CD01",
		CurrencyCode:     "BRL",
	})
	require.NoError(t, err)
	require.NoError(t, order.SetAddresses(valueobject.MustNewAddress("Rua A", "Joinville", "SC"), valueobject.EmptyAddress()))
	_, err = order.AddItem("A1", "Parafuso", "UN", decimal.NewFromInt(3), decimal.NewFromFloat(2.5))
	require.NoError(t, err)
	return order
}

func TestSalesOrderHandler_Create(t *testing.T) {
	body := gin.H{
		"order_number":  "SO-100",
		"order_date":    "2024-03-05T00:00:00Z",
		"currency_code": "brl",
		"billing_address": gin.H{
			"street": "Rua A", "city": "Joinville", "state": "SC",
		},
		"items": []gin.H{
			{"product_code": "A1", "product_name": "Parafuso", "unit": "UN", "quantity": "3", "unit_price": "2.5"},
		},
	}

	t.Run("creates draft order", func(t *testing.T) {
		repo := new(MockSalesOrderRepository)
		repo.On("ExistsByOrderNumber", mock.Anything, "SO-100").Return(false, nil)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*trade.SalesOrder")).Return(nil)

		w := perform(newSalesOrderEngine(repo, new(MockERPGateway)), http.MethodPost, "/sales-orders", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp appintegration.SalesOrderResponse
		decodeData(t, w, &resp)
		assert.Equal(t, "DRAFT", resp.Status)
		assert.Equal(t, "BRL", resp.CurrencyCode)
		assert.Equal(t, "pending", resp.Focco.Status)
		assert.True(t, resp.TotalAmount.Equal(decimal.NewFromFloat(7.5)))
		repo.AssertExpectations(t)
	})

	t.Run("duplicate number", func(t *testing.T) {
		repo := new(MockSalesOrderRepository)
		repo.On("ExistsByOrderNumber", mock.Anything, "SO-100").Return(true, nil)

		w := perform(newSalesOrderEngine(repo, new(MockERPGateway)), http.MethodPost, "/sales-orders", body)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeAlreadyExists, errorCode(t, w))
	})

	t.Run("validation details", func(t *testing.T) {
		w := perform(newSalesOrderEngine(new(MockSalesOrderRepository), new(MockERPGateway)),
			http.MethodPost, "/sales-orders", gin.H{"order_number": "SO-1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		env := decode(t, w)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		fields := make([]string, 0, len(env.Error.Details))
		for _, d := range env.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.Contains(t, fields, "currency_code")
	})

	t.Run("malformed body", func(t *testing.T) {
		engine := newSalesOrderEngine(new(MockSalesOrderRepository), new(MockERPGateway))
		w := perform(engine, http.MethodPost, "/sales-orders", "not an object")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))
	})
}

func TestSalesOrderHandler_GetByID(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		w := perform(newSalesOrderEngine(new(MockSalesOrderRepository), new(MockERPGateway)),
			http.MethodGet, "/sales-orders/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidID, errorCode(t, w))
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockSalesOrderRepository)
		id := uuid.New()
		repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		w := perform(newSalesOrderEngine(repo, new(MockERPGateway)), http.MethodGet, "/sales-orders/"+id.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
	})

	t.Run("found", func(t *testing.T) {
		repo := new(MockSalesOrderRepository)
		order := newDraftOrder(t)
		repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		w := perform(newSalesOrderEngine(repo, new(MockERPGateway)), http.MethodGet, "/sales-orders/"+order.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp appintegration.SalesOrderResponse
		decodeData(t, w, &resp)
		assert.Equal(t, order.ID, resp.ID)
		assert.Len(t, resp.Items, 1)
	})
}

func TestSalesOrderHandler_Confirm(t *testing.T) {
	t.Run("submission failure still answers 200", func(t *testing.T) {
		repo := new(MockSalesOrderRepository)
		gateway := new(MockERPGateway)
		order := newDraftOrder(t)

		repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		repo.On("Save", mock.Anything, order).Return(nil)
		repo.On("SaveExternalSync", mock.Anything, order).Return(nil)
		gateway.On("SubmitSalesOrder", mock.Anything, order).
			Return(nil, &integration.RemoteRequestError{Method: "POST", Path: "/api/v1/Vendas/PedidoVenda", StatusCode: 400, Body: "bad"})

		w := perform(newSalesOrderEngine(repo, gateway), http.MethodPost, "/sales-orders/"+order.ID.String()+"/confirm", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp appintegration.SalesOrderResponse
		decodeData(t, w, &resp)
		assert.Equal(t, "CONFIRMED", resp.Status)
		assert.Equal(t, "error", resp.Focco.Status)
		assert.Empty(t, resp.Focco.ExternalOrderID)
		assert.NotEmpty(t, resp.Focco.LastError)
	})

	t.Run("already confirmed", func(t *testing.T) {
		repo := new(MockSalesOrderRepository)
		order := newDraftOrder(t)
		require.NoError(t, order.Confirm())
		repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		w := perform(newSalesOrderEngine(repo, new(MockERPGateway)), http.MethodPost, "/sales-orders/"+order.ID.String()+"/confirm", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, errorCode(t, w))
	})
}

func TestSalesOrderHandler_Resubmit(t *testing.T) {
	t.Run("accepted order cannot be resubmitted", func(t *testing.T) {
		repo := new(MockSalesOrderRepository)
		gateway := new(MockERPGateway)
		order := newDraftOrder(t)
		require.NoError(t, order.Confirm())
		require.NoError(t, order.ExternalSync.MarkSent("4711", time.Now()))
		repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		w := perform(newSalesOrderEngine(repo, gateway), http.MethodPost, "/sales-orders/"+order.ID.String()+"/focco/resubmit", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeConflict, errorCode(t, w))
		gateway.AssertNotCalled(t, "SubmitSalesOrder", mock.Anything, mock.Anything)
	})

	t.Run("draft order", func(t *testing.T) {
		repo := new(MockSalesOrderRepository)
		order := newDraftOrder(t)
		repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		w := perform(newSalesOrderEngine(repo, new(MockERPGateway)), http.MethodPost, "/sales-orders/"+order.ID.String()+"/focco/resubmit", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("failed order is sent again", func(t *testing.T) {
		repo := new(MockSalesOrderRepository)
		gateway := new(MockERPGateway)
		order := newDraftOrder(t)
		require.NoError(t, order.Confirm())
		require.NoError(t, order.ExternalSync.MarkFailed("timeout", time.Now()))

		repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		repo.On("SaveExternalSync", mock.Anything, order).Return(nil)
		gateway.On("SubmitSalesOrder", mock.Anything, order).
			Return(&integration.SubmissionResult{ExternalOrderID: "555"}, nil)

		w := perform(newSalesOrderEngine(repo, gateway), http.MethodPost, "/sales-orders/"+order.ID.String()+"/focco/resubmit", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp appintegration.SalesOrderResponse
		decodeData(t, w, &resp)
		assert.Equal(t, "sent", resp.Focco.Status)
		assert.Equal(t, "555", resp.Focco.ExternalOrderID)
	})
}

func TestSalesOrderHandler_QuoteTax(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"remote error", &integration.RemoteRequestError{Method: "POST", Path: "/q", StatusCode: 500}, http.StatusBadGateway, dto.ErrCodeERPRequest},
		{"unreachable", &integration.TransportError{Method: "POST", Path: "/q", Err: errors.New("dial tcp: refused")}, http.StatusGatewayTimeout, dto.ErrCodeERPUnavailable},
		{"unmappable", &integration.MappingError{Field: "tipoPedido", Reason: "no translation"}, http.StatusUnprocessableEntity, dto.ErrCodeERPMapping},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockSalesOrderRepository)
			gateway := new(MockERPGateway)
			order := newDraftOrder(t)
			repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
			gateway.On("CalculateQuoteTax", mock.Anything, order).Return(nil, tt.err)

			w := perform(newSalesOrderEngine(repo, gateway), http.MethodPost, "/sales-orders/"+order.ID.String()+"/focco/quote-tax", nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	t.Run("passes the erp answer through", func(t *testing.T) {
		repo := new(MockSalesOrderRepository)
		gateway := new(MockERPGateway)
		order := newDraftOrder(t)
		repo.On("FindByID", mock.Anything, order.ID).Return(order, nil)
		gateway.On("CalculateQuoteTax", mock.Anything, order).
			Return(&integration.QuoteTaxResult{Quote: []byte(`{"valorTotal":7.5}`)}, nil)

		w := perform(newSalesOrderEngine(repo, gateway), http.MethodPost, "/sales-orders/"+order.ID.String()+"/focco/quote-tax", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"quote":{"valorTotal":7.5}`)
	})
}
