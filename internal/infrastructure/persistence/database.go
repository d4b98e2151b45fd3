package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erp/focco-sync/internal/infrastructure/config"
	"github.com/erp/focco-sync/internal/infrastructure/logger"
	"github.com/erp/focco-sync/internal/infrastructure/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the gorm handle shared by the order and product repositories.
type Database struct {
	DB *gorm.DB
}

// DatabaseOption configures how the connection is opened
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger   gormlogger.Interface
	tracing  *telemetry.DBTracingPlugin
	prepared bool
}

// WithSQLLogger routes statement logs through zap
func WithSQLLogger(l *zap.Logger, cfg logger.SQLLogConfig) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger.NewSQLLogger(l, cfg)
	}
}

// WithTracing registers the otelgorm plugin after the connection is opened
func WithTracing(plugin *telemetry.DBTracingPlugin) DatabaseOption {
	return func(o *databaseOptions) {
		o.tracing = plugin
	}
}

// WithoutPreparedStatements disables the prepared statement cache (sqlmock, pgbouncer)
func WithoutPreparedStatements() DatabaseOption {
	return func(o *databaseOptions) {
		o.prepared = false
	}
}

// NewDatabase connects to PostgreSQL, sizes the pool and checks the connection.
func NewDatabase(ctx context.Context, cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	db, err := Open(postgres.Open(cfg.DSN()), opts...)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.SQL()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database %s: %w", cfg.DBName, err)
	}
	return db, nil
}

// Open opens a connection with any gorm dialector
func Open(dialector gorm.Dialector, opts ...DatabaseOption) (*Database, error) {
	o := databaseOptions{
		logger:   gormlogger.Default.LogMode(gormlogger.Silent),
		prepared: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 o.logger,
		SkipDefaultTransaction: true,
		PrepareStmt:            o.prepared,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if o.tracing != nil {
		if err := o.tracing.RegisterOtelGorm(db); err != nil {
			return nil, fmt.Errorf("register database tracing: %w", err)
		}
	}
	return &Database{DB: db}, nil
}

// SQL returns the pool behind the gorm handle.
func (d *Database) SQL() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying sql.DB: %w", err)
	}
	return sqlDB, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.SQL()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.SQL()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// StatsCollector exposes the pool statistics as go_sql_* metrics labelled
// with dbName.
func (d *Database) StatsCollector(dbName string) (prometheus.Collector, error) {
	sqlDB, err := d.SQL()
	if err != nil {
		return nil, err
	}
	return collectors.NewDBStatsCollector(sqlDB, dbName), nil
}
