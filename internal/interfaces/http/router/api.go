// Package router assembles the gin engine of the sync API.
package router

import (
	"net/http"

	"github.com/erp/focco-sync/internal/infrastructure/auth"
	"github.com/erp/focco-sync/internal/infrastructure/logger"
	"github.com/erp/focco-sync/internal/infrastructure/telemetry"
	"github.com/erp/focco-sync/internal/interfaces/http/handler"
	"github.com/erp/focco-sync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers are the API handlers served under /api/v1
type Handlers struct {
	SalesOrders *handler.SalesOrderHandler
	Products    *handler.ProductHandler
	FoccoSync   *handler.FoccoSyncHandler
	System      *handler.SystemHandler
}

// EngineConfig carries everything the engine needs besides the handlers
type EngineConfig struct {
	ServiceName    string
	Logger         *zap.Logger
	JWTService     *auth.JWTService
	Telemetry      *telemetry.Providers
	MaxBodySize    int64
	TrustedProxies []string
	// Gatherer backs /metrics; nil disables the endpoint
	Gatherer prometheus.Gatherer
	// Swagger serves the API docs under /swagger
	Swagger bool
}

// NewEngine builds the gin engine: global middleware, the unauthenticated
// /health, /metrics and /swagger endpoints and the JWT protected API.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	middleware.SetupValidator()

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Telemetry, cfg.ServiceName),
		logger.AccessLog(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.HTTPMetrics(cfg.Telemetry),
		middleware.Secure(),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.GET("/health", h.System.Health)
	if cfg.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	if cfg.Swagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := engine.Group(APIPrefix,
		middleware.ServiceAuth(cfg.JWTService, cfg.Logger),
		middleware.TracingAttributes(),
	)
	for _, rt := range routes(h) {
		api.Handle(rt.method, rt.path, middleware.RequireScope(rt.scope), rt.handler)
	}

	return engine, nil
}

// APIPrefix is where the authenticated routes are mounted
const APIPrefix = "/api/v1"

// route is one authenticated endpoint and the token scope it requires
type route struct {
	method  string
	path    string
	scope   string
	handler gin.HandlerFunc
}

// routes lists the API. Reads, including the tax quote which changes nothing,
// need orders:read; changes to orders and products need orders:write; anything
// that drives the Focco batches needs sync:run.
func routes(h Handlers) []route {
	const (
		read  = auth.ScopeOrdersRead
		write = auth.ScopeOrdersWrite
		run   = auth.ScopeSyncRun
	)
	return []route{
		{http.MethodPost, "/sales-orders", write, h.SalesOrders.Create},
		{http.MethodGet, "/sales-orders/:id", read, h.SalesOrders.GetByID},
		{http.MethodPost, "/sales-orders/:id/confirm", write, h.SalesOrders.Confirm},
		{http.MethodPost, "/sales-orders/:id/focco/resubmit", write, h.SalesOrders.Resubmit},
		{http.MethodPost, "/sales-orders/:id/focco/quote-tax", read, h.SalesOrders.QuoteTax},

		{http.MethodPost, "/products", write, h.Products.Create},
		{http.MethodGet, "/products/:id", read, h.Products.GetByID},

		{http.MethodPost, "/focco/invoices/reconcile", run, h.FoccoSync.ReconcileInvoices},
		{http.MethodPost, "/focco/stock/sync", run, h.FoccoSync.SyncStock},
		{http.MethodGet, "/focco/jobs", read, h.FoccoSync.ListJobs},
		{http.MethodPost, "/focco/jobs/:name/run", run, h.FoccoSync.TriggerJob},
	}
}
