package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/erp/focco-sync/docs"
	appintegration "github.com/erp/focco-sync/internal/application/integration"
	"github.com/erp/focco-sync/internal/domain/integration"
	"github.com/erp/focco-sync/internal/infrastructure/auth"
	"github.com/erp/focco-sync/internal/infrastructure/config"
	"github.com/erp/focco-sync/internal/infrastructure/focco"
	"github.com/erp/focco-sync/internal/infrastructure/logger"
	"github.com/erp/focco-sync/internal/infrastructure/migration"
	"github.com/erp/focco-sync/internal/infrastructure/persistence"
	"github.com/erp/focco-sync/internal/infrastructure/scheduler"
	"github.com/erp/focco-sync/internal/infrastructure/telemetry"
	"github.com/erp/focco-sync/internal/interfaces/http/handler"
	"github.com/erp/focco-sync/internal/interfaces/http/router"
	"github.com/erp/focco-sync/migrations"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 30 * time.Second

//	@title			Focco Sync API
//	@version		1.0
//	@description	Pushes confirmed sales orders to the Focco ERP and mirrors invoices and stock back.

//	@contact.name	API Support

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Service token. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

func main() {
	var (
		configPath string
		migrate    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.BoolVar(&migrate, "migrate", false, "Apply the embedded migrations before serving")
	flag.Parse()

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewForEnvironment(cfg.App.Env, logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log, migrate); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(cfg *config.Config, log *zap.Logger, migrate bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting focco-sync",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", telemetry.ServiceVersion),
	)

	// Telemetry first so every later component picks up the global providers
	otelProviders, err := telemetry.Setup(ctx, telemetry.Settings{
		Enabled:       cfg.Telemetry.Enabled,
		Endpoint:      cfg.Telemetry.CollectorEndpoint,
		Insecure:      cfg.Telemetry.Insecure,
		ServiceName:   cfg.Telemetry.ServiceName,
		SamplingRatio: cfg.Telemetry.SamplingRatio,
		ExportLogs:    cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	log = logger.Tee(log, otelProviders.ZapCore(zapcore.InfoLevel))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProviders.Shutdown(ctx); err != nil {
			log.Error("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(ctx, &cfg.Database,
		persistence.WithSQLLogger(log, logger.SQLLogConfig{
			Level:         cfg.Log.Level,
			SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
			FullSQL:       cfg.Telemetry.DBLogFullSQL,
		}),
		persistence.WithTracing(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         otelProviders.TracingEnabled() && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
			TracerProvider:  otelProviders.TracerProvider(),
		}, log)),
	)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	if migrate {
		if err := applyMigrations(ctx, db, log); err != nil {
			return err
		}
	}

	gateway, err := newFoccoGateway(cfg, otelProviders)
	if err != nil {
		return err
	}

	orderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)

	orderSync := appintegration.NewOrderSyncService(orderRepo, gateway, log.Named("order_sync"))
	quoteTax := appintegration.NewQuoteTaxService(orderRepo, gateway, log.Named("quote_tax"))
	reconciliation := appintegration.NewInvoiceReconciliationService(orderRepo, gateway, log.Named("invoice_reconciliation"))
	stockSync := appintegration.NewStockSyncService(productRepo, gateway, log.Named("stock_sync"))
	products := appintegration.NewProductService(productRepo)

	registry := prometheus.NewRegistry()
	poolStats, err := db.StatsCollector(cfg.Database.DBName)
	if err != nil {
		return err
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		poolStats,
	)

	sched, err := newScheduler(cfg.Scheduler, registry, log, reconciliation, stockSync)
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Logger:         log,
		JWTService:     auth.NewJWTService(cfg.JWT),
		Telemetry:      otelProviders,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Gatherer:       registry,
		Swagger:        !cfg.App.IsProduction(),
	}, router.Handlers{
		SalesOrders: handler.NewSalesOrderHandler(orderSync, quoteTax),
		Products:    handler.NewProductHandler(products),
		FoccoSync:   handler.NewFoccoSyncHandler(reconciliation, stockSync, sched),
		System:      handler.NewSystemHandler(db),
	})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	return nil
}

func newFoccoGateway(cfg *config.Config, otelProviders *telemetry.Providers) (*focco.Gateway, error) {
	clientCfg := focco.NewConfig(cfg.Focco.BaseURL, cfg.Focco.Token)
	clientCfg.TimeoutSeconds = cfg.Focco.TimeoutSeconds

	client, err := focco.NewClient(clientCfg,
		focco.WithTracer(otelProviders.Tracer("focco")),
		focco.WithMeter(otelProviders.Meter("focco")),
	)
	if err != nil {
		return nil, fmt.Errorf("focco client: %w", err)
	}

	tables := integration.NewDeParaTables(
		cfg.Focco.DePara.OrderType,
		cfg.Focco.DePara.PaymentTerms,
		cfg.Focco.DePara.Tax,
		cfg.Focco.DePara.Strict,
	)
	mapper := focco.NewMapper(tables, focco.WithLocation(cfg.Focco.Location()))
	return focco.NewGateway(client, mapper), nil
}

func newScheduler(
	cfg config.SchedulerConfig,
	reg prometheus.Registerer,
	log *zap.Logger,
	reconciliation *appintegration.InvoiceReconciliationService,
	stockSync *appintegration.StockSyncService,
) (*scheduler.Scheduler, error) {
	sched, err := scheduler.NewScheduler(scheduler.Config{
		Enabled:     cfg.Enabled,
		JobTimeout:  cfg.JobTimeout,
		HistorySize: cfg.HistorySize,
	}, scheduler.NewMetrics(reg), log)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	jobs := []scheduler.Job{
		scheduler.NewBatchJob("invoice_reconciliation", cfg.InvoicePollInterval, reconciliation.Reconcile),
		scheduler.NewBatchJob("stock_sync", cfg.StockSyncInterval, stockSync.SyncAll),
	}
	for _, job := range jobs {
		if err := sched.Register(job); err != nil {
			return nil, fmt.Errorf("register %s: %w", job.Name, err)
		}
	}
	return sched, nil
}

func applyMigrations(ctx context.Context, db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.SQL()
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	// closing the migrator would close the shared pool
	if err := m.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
