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

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func traceQuery(l *GormLogger, ctx context.Context, err error) {
	l.Trace(ctx, time.Now(), func() (string, int64) {
		return `SELECT * FROM "products" WHERE catalog_id = $1`, 3
	}, err)
}

func TestGormLogger_TraceQuery(t *testing.T) {
	l, logs := newObservedGormLogger(gormlogger.Info)
	traceQuery(l, context.Background(), nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "SQL Query", entry.Message)
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.EqualValues(t, 3, entry.ContextMap()["rows"])
	assert.Contains(t, entry.ContextMap()["sql"], "products")
}

func TestGormLogger_SilentLogsNothing(t *testing.T) {
	l, logs := newObservedGormLogger(gormlogger.Silent)
	traceQuery(l, context.Background(), errors.New("broken"))
	assert.Zero(t, logs.Len())
}

func TestGormLogger_TraceError(t *testing.T) {
	l, logs := newObservedGormLogger(gormlogger.Error)
	traceQuery(l, context.Background(), errors.New("deadlock detected"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "SQL Error", entry.Message)
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
}

func TestGormLogger_RecordNotFoundSuppressed(t *testing.T) {
	l, logs := newObservedGormLogger(gormlogger.Error)
	traceQuery(l, context.Background(), gormlogger.ErrRecordNotFound)
	assert.Zero(t, logs.Len())

	// opt back in
	l, logs = newObservedGormLogger(gormlogger.Error, WithNotFoundLogging())
	traceQuery(l, context.Background(), gormlogger.ErrRecordNotFound)
	assert.Equal(t, 1, logs.Len())
}

func TestGormLogger_SlowQuery(t *testing.T) {
	l, logs := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Nanosecond))
	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return `SELECT * FROM "conflicts"`, 100
	}, nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Contains(t, entry.Message, "SLOW SQL")
}

func TestGormLogger_TraceCarriesRequestID(t *testing.T) {
	l, logs := newObservedGormLogger(gormlogger.Info)
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-7")
	traceQuery(l, ctx, nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-7", logs.All()[0].ContextMap()["request_id"])
}

func TestGormLogger_LogMode(t *testing.T) {
	l, logs := newObservedGormLogger(gormlogger.Silent)
	raised := l.LogMode(gormlogger.Info)

	raised.Info(context.Background(), "migrating %s", "conflicts")
	assert.Equal(t, 1, logs.Len())

	// the original keeps its level
	traceQuery(l, context.Background(), nil)
	assert.Equal(t, 1, logs.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"", gormlogger.Warn},
		{"bogus", gormlogger.Warn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapGormLogLevel(tt.in), tt.in)
	}
}
