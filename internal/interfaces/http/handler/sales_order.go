package handler

import (
	appintegration "github.com/erp/focco-sync/internal/application/integration"
	"github.com/gin-gonic/gin"
)

// SalesOrderHandler handles the sales order endpoints and their Focco actions
type SalesOrderHandler struct {
	BaseHandler
	orderService *appintegration.OrderSyncService
	quoteService *appintegration.QuoteTaxService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(orderService *appintegration.OrderSyncService, quoteService *appintegration.QuoteTaxService) *SalesOrderHandler {
	return &SalesOrderHandler{
		orderService: orderService,
		quoteService: quoteService,
	}
}

// Create godoc
// @Summary      Create a draft sales order
// @Description  Create a draft sales order with its items. Codes are translated to Focco codes only on submission.
// @Tags         sales-orders
// @Accept       json
// @Produce      json
// @Param        request body appintegration.CreateSalesOrderRequest true "Sales order creation request"
// @Success      201 {object} dto.Response{data=appintegration.SalesOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders [post]
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req appintegration.CreateSalesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// GetByID godoc
// @Summary      Get sales order by ID
// @Description  Retrieve a sales order with its Focco sync state
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=appintegration.SalesOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id} [get]
func (h *SalesOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Confirm godoc
// @Summary      Confirm a sales order
// @Description  Confirm a draft order and submit it to Focco once. A rejected submission still answers 200; the outcome is in focco.status.
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=appintegration.SalesOrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/confirm [post]
func (h *SalesOrderHandler) Confirm(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	order, err := h.orderService.ConfirmOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Resubmit godoc
// @Summary      Resubmit a sales order to Focco
// @Description  Retry the submission of a confirmed order Focco never accepted
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=appintegration.SalesOrderResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/focco/resubmit [post]
func (h *SalesOrderHandler) Resubmit(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	order, err := h.orderService.ResubmitOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// QuoteTax godoc
// @Summary      Quote taxes in Focco
// @Description  Ask Focco to compute taxes for the order as a quote. Nothing is stored.
// @Tags         sales-orders
// @Produce      json
// @Param        id path string true "Sales order ID" format(uuid)
// @Success      200 {object} dto.Response{data=appintegration.QuoteTaxResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      504 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /sales-orders/{id}/focco/quote-tax [post]
func (h *SalesOrderHandler) QuoteTax(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}

	quote, err := h.quoteService.CalculateTax(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quote)
}
