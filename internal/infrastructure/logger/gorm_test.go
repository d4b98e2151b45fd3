package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedSQLLogger(cfg SQLLogConfig) (*SQLLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewSQLLogger(zap.New(core), cfg), recorded
}

const insertOrder = `INSERT INTO sales_orders ("order_number","delivery_street") VALUES ('SO-1','Rua das Flores 10')`

func stmt(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestSQLLogger_LogMode(t *testing.T) {
	l, _ := newObservedSQLLogger(SQLLogConfig{Level: "info"})
	assert.Equal(t, gormlogger.Warn, l.level)

	switched, ok := l.LogMode(gormlogger.Info).(*SQLLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Info, switched.level)
	assert.Equal(t, gormlogger.Warn, l.level)
}

func TestSQLLogger_Messages(t *testing.T) {
	l, recorded := newObservedSQLLogger(SQLLogConfig{Level: "warn"})
	ctx := context.Background()

	l.Info(ctx, "suppressed %d", 1)
	l.Warn(ctx, "pool size %d", 42)
	l.Error(ctx, "connection %s", "lost")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "pool size 42", logs[0].Message)
	assert.Equal(t, "connection lost", logs[1].Message)
}

func TestSQLLogger_Trace(t *testing.T) {
	t.Run("failure is redacted by default", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(SQLLogConfig{Level: "error"})
		l.Trace(context.Background(), time.Now(), stmt(insertOrder, 0), errors.New("duplicate key"))

		logs := recorded.FilterMessage("database statement failed").All()
		require.Len(t, logs, 1)
		assert.Equal(t, "INSERT", logs[0].ContextMap()["statement"])
		assert.Equal(t, "duplicate key", logs[0].ContextMap()["error"])
	})

	t.Run("full sql on request", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(SQLLogConfig{Level: "error", FullSQL: true})
		l.Trace(context.Background(), time.Now(), stmt(insertOrder, 0), errors.New("duplicate key"))

		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, insertOrder, recorded.All()[0].ContextMap()["statement"])
	})

	t.Run("record not found is silent", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(SQLLogConfig{Level: "debug"})
		l.Trace(context.Background(), time.Now(), stmt("SELECT * FROM products", 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())
	})

	t.Run("slow statement", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(SQLLogConfig{Level: "warn", SlowThreshold: 10 * time.Millisecond})
		l.Trace(context.Background(), time.Now().Add(-time.Second), stmt("update products set qty = 1", 3), nil)

		logs := recorded.FilterMessage("slow database statement").All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
		assert.Equal(t, "UPDATE", logs[0].ContextMap()["statement"])
		assert.EqualValues(t, 3, logs[0].ContextMap()["rows"])
	})

	t.Run("zero threshold disables slow logging", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(SQLLogConfig{Level: "warn"})
		l.Trace(context.Background(), time.Now().Add(-time.Minute), stmt("SELECT 1", 1), nil)
		assert.Zero(t, recorded.Len())
	})

	t.Run("statements traced only at debug", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(SQLLogConfig{Level: "info"})
		l.Trace(context.Background(), time.Now(), stmt("SELECT 1", 1), nil)
		assert.Zero(t, recorded.Len())

		l.LogMode(gormlogger.Info).Trace(context.Background(), time.Now(), stmt("SELECT 1", 1), nil)
		assert.Equal(t, 1, recorded.FilterMessage("database statement").Len())
	})

	t.Run("silent", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(SQLLogConfig{Level: "silent"})
		l.Trace(context.Background(), time.Now(), stmt("SELECT 1", 1), errors.New("x"))
		assert.Zero(t, recorded.Len())
	})

	t.Run("carries request id", func(t *testing.T) {
		l, recorded := newObservedSQLLogger(SQLLogConfig{Level: "error"})
		ctx := WithRequestID(context.Background(), "req-7")
		l.Trace(ctx, time.Now(), stmt("SELECT 1", 0), errors.New("x"))

		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "req-7", recorded.All()[0].ContextMap()["request_id"])
	})
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, gormLevel("silent"))
	assert.Equal(t, gormlogger.Error, gormLevel("error"))
	assert.Equal(t, gormlogger.Warn, gormLevel("warn"))
	assert.Equal(t, gormlogger.Warn, gormLevel("info"))
	assert.Equal(t, gormlogger.Info, gormLevel("DEBUG"))
	assert.Equal(t, gormlogger.Warn, gormLevel("unknown"))
}
