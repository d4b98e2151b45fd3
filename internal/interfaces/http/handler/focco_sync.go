package handler

import (
	"errors"
	"net/http"

	appintegration "github.com/erp/focco-sync/internal/application/integration"
	"github.com/erp/focco-sync/internal/infrastructure/scheduler"
	"github.com/erp/focco-sync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// JobScheduler is the part of the scheduler the API exposes
type JobScheduler interface {
	Jobs() []string
	History() []scheduler.Run
	Trigger(name string) error
}

// FoccoSyncHandler runs the batch synchronizations on demand
type FoccoSyncHandler struct {
	BaseHandler
	reconciliation *appintegration.InvoiceReconciliationService
	stockSync      *appintegration.StockSyncService
	scheduler      JobScheduler
}

// NewFoccoSyncHandler creates a new FoccoSyncHandler. jobs may be nil when
// the scheduler is not wired.
func NewFoccoSyncHandler(
	reconciliation *appintegration.InvoiceReconciliationService,
	stockSync *appintegration.StockSyncService,
	jobs JobScheduler,
) *FoccoSyncHandler {
	return &FoccoSyncHandler{
		reconciliation: reconciliation,
		stockSync:      stockSync,
		scheduler:      jobs,
	}
}

// ReconcileInvoices godoc
// @Summary      Reconcile invoices
// @Description  Poll Focco for every order awaiting an invoice and answer with the batch summary once the run is over
// @Tags         focco
// @Produce      json
// @Success      200 {object} dto.Response{data=appintegration.BatchSummary}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /focco/invoices/reconcile [post]
func (h *FoccoSyncHandler) ReconcileInvoices(c *gin.Context) {
	summary, err := h.reconciliation.Reconcile(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// SyncStock godoc
// @Summary      Sync stock
// @Description  Refresh the Focco stock of every active product
// @Tags         focco
// @Produce      json
// @Success      200 {object} dto.Response{data=appintegration.BatchSummary}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /focco/stock/sync [post]
func (h *FoccoSyncHandler) SyncStock(c *gin.Context) {
	summary, err := h.stockSync.SyncAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// JobsResponse lists the scheduled jobs and their recent runs
type JobsResponse struct {
	Jobs []string        `json:"jobs" example:"invoice_reconciliation,stock_sync"`
	Runs []scheduler.Run `json:"runs"`
}

// JobQueuedResponse acknowledges a manual trigger
type JobQueuedResponse struct {
	Job    string `json:"job" example:"stock_sync"`
	Queued bool   `json:"queued" example:"true"`
}

// ListJobs godoc
// @Summary      List scheduled jobs
// @Description  Return the registered jobs and the run history, newest first
// @Tags         focco
// @Produce      json
// @Success      200 {object} dto.Response{data=JobsResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /focco/jobs [get]
func (h *FoccoSyncHandler) ListJobs(c *gin.Context) {
	if h.scheduler == nil {
		h.Success(c, JobsResponse{Jobs: []string{}, Runs: []scheduler.Run{}})
		return
	}
	h.Success(c, JobsResponse{Jobs: h.scheduler.Jobs(), Runs: h.scheduler.History()})
}

// TriggerJob godoc
// @Summary      Trigger a scheduled job
// @Description  Queue a run of a scheduled job and return immediately
// @Tags         focco
// @Produce      json
// @Param        name path string true "Job name" Enums(invoice_reconciliation, stock_sync)
// @Success      202 {object} dto.Response{data=JobQueuedResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /focco/jobs/{name}/run [post]
func (h *FoccoSyncHandler) TriggerJob(c *gin.Context) {
	if h.scheduler == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeSchedulerStopped, "Scheduler is not running")
		return
	}

	name := c.Param("name")
	err := h.scheduler.Trigger(name)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, dto.OK(JobQueuedResponse{Job: name, Queued: true}))
	case errors.Is(err, scheduler.ErrUnknownJob):
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Unknown job "+name)
	case errors.Is(err, scheduler.ErrJobAlreadyQueued):
		h.Error(c, http.StatusConflict, dto.ErrCodeJobQueued, "A run of "+name+" is already queued")
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeSchedulerStopped, "Scheduler is not running")
	default:
		h.HandleError(c, err)
	}
}
