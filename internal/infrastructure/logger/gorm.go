package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// SQLLogConfig controls how database statements reach the log.
type SQLLogConfig struct {
	// Level is the application log level; statements are traced only at debug.
	Level         string
	SlowThreshold time.Duration
	// FullSQL logs statements with their bound values. Orders carry customer
	// addresses, so by default only the statement verb is kept.
	FullSQL bool
}

// SQLLogger writes gorm statement logs through zap. Missing records are
// never logged since the repositories turn them into not-found errors.
type SQLLogger struct {
	log     *zap.Logger
	level   gormlogger.LogLevel
	slow    time.Duration
	fullSQL bool
}

var _ gormlogger.Interface = (*SQLLogger)(nil)

// NewSQLLogger returns a gorm logger named "sql" under l.
func NewSQLLogger(l *zap.Logger, cfg SQLLogConfig) *SQLLogger {
	return &SQLLogger{
		log:     l.Named("sql"),
		level:   gormLevel(cfg.Level),
		slow:    cfg.SlowThreshold,
		fullSQL: cfg.FullSQL,
	}
}

func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *SQLLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.log.Sugar().Infof(msg, data...)
	}
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Sugar().Warnf(msg, data...)
	}
}

func (l *SQLLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.log.Sugar().Errorf(msg, data...)
	}
}

// Trace logs one executed statement.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent || errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && l.level >= gormlogger.Error
	slow := l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn
	if !failed && !slow && l.level < gormlogger.Info {
		return
	}

	stmt, rows := fc()
	if !l.fullSQL {
		stmt = statementVerb(stmt)
	}
	fields := append(Fields(ctx),
		zap.String("statement", stmt),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)

	switch {
	case failed:
		l.log.Error("database statement failed", append(fields, zap.Error(err))...)
	case slow:
		l.log.Warn("slow database statement", append(fields, zap.Duration("threshold", l.slow))...)
	default:
		l.log.Debug("database statement", fields...)
	}
}

// statementVerb reduces a statement to its leading keyword.
func statementVerb(stmt string) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(stmt), " ")
	return strings.ToUpper(verb)
}

// gormLevel maps the application log level onto gorm's.
func gormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
