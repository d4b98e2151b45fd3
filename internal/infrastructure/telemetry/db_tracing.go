package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include query variables in spans (never in production)
	SlowQueryThresh time.Duration // queries slower than this get db.slow_query=true
	DBName          string
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

const defaultSlowQuery = 200 * time.Millisecond

// DBTracingPlugin wraps the otelgorm plugin with slow query marking.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQuery
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// RegisterOtelGorm installs otelgorm and the timing callbacks on db.
// It is a no-op when tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBName)}
	if p.config.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.config.TracerProvider))
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	for _, op := range []string{"create", "query", "update", "delete", "row", "raw"} {
		if err := p.registerTiming(db, op); err != nil {
			return fmt.Errorf("register %s timing callback: %w", op, err)
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func (p *DBTracingPlugin) registerTiming(db *gorm.DB, op string) error {
	gormName := "gorm:" + op
	before, after := "otel_timing:before_"+op, "otel_timing:after_"+op
	cb := db.Callback()

	switch op {
	case "create":
		if err := cb.Create().Before(gormName).Register(before, markQueryStart); err != nil {
			return err
		}
		return cb.Create().After(gormName).Register(after, p.afterQuery)
	case "query":
		if err := cb.Query().Before(gormName).Register(before, markQueryStart); err != nil {
			return err
		}
		return cb.Query().After(gormName).Register(after, p.afterQuery)
	case "update":
		if err := cb.Update().Before(gormName).Register(before, markQueryStart); err != nil {
			return err
		}
		return cb.Update().After(gormName).Register(after, p.afterQuery)
	case "delete":
		if err := cb.Delete().Before(gormName).Register(before, markQueryStart); err != nil {
			return err
		}
		return cb.Delete().After(gormName).Register(after, p.afterQuery)
	case "row":
		if err := cb.Row().Before(gormName).Register(before, markQueryStart); err != nil {
			return err
		}
		return cb.Row().After(gormName).Register(after, p.afterQuery)
	case "raw":
		if err := cb.Raw().Before(gormName).Register(before, markQueryStart); err != nil {
			return err
		}
		return cb.Raw().After(gormName).Register(after, p.afterQuery)
	}
	return fmt.Errorf("unknown gorm operation %q", op)
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

// afterQuery annotates the otelgorm span with rows, table, error and slowness.
func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if start, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
