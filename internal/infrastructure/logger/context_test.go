package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func TestWithContext(t *testing.T) {
	t.Run("stores and retrieves logger", func(t *testing.T) {
		logger, _ := newObservedLogger()
		ctx := WithContext(context.Background(), logger)

		got := FromContext(ctx)
		assert.Equal(t, logger, got)
	})

	t.Run("returns nop logger when not set", func(t *testing.T) {
		got := FromContext(context.Background())
		assert.NotNil(t, got)
	})
}

func TestContextEnrichment(t *testing.T) {
	t.Run("request ID", func(t *testing.T) {
		logger, _ := newObservedLogger()
		ctx, enriched := WithRequestID(context.Background(), logger, "req-123")

		assert.Equal(t, "req-123", GetRequestID(ctx))
		assert.NotNil(t, enriched)
		assert.Equal(t, enriched, FromContext(ctx))
	})

	t.Run("merchant ID", func(t *testing.T) {
		logger, _ := newObservedLogger()
		ctx, _ := WithMerchantID(context.Background(), logger, "merchant-1")
		assert.Equal(t, "merchant-1", GetMerchantID(ctx))
	})

	t.Run("catalog ID", func(t *testing.T) {
		logger, _ := newObservedLogger()
		ctx, _ := WithCatalogID(context.Background(), logger, "catalog-1")
		assert.Equal(t, "catalog-1", GetCatalogID(ctx))
	})

	t.Run("job ID", func(t *testing.T) {
		logger, _ := newObservedLogger()
		ctx, _ := WithJobID(context.Background(), logger, "job-1")
		assert.Equal(t, "job-1", GetJobID(ctx))
	})

	t.Run("missing values return empty strings", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, GetRequestID(ctx))
		assert.Empty(t, GetMerchantID(ctx))
		assert.Empty(t, GetCatalogID(ctx))
		assert.Empty(t, GetJobID(ctx))
	})
}

func TestContextLogger(t *testing.T) {
	t.Run("injects context fields into entries", func(t *testing.T) {
		logger, logs := newObservedLogger()
		ctx := WithContext(context.Background(), logger)
		ctx = context.WithValue(ctx, RequestIDKey, "req-9")
		ctx = context.WithValue(ctx, MerchantIDKey, "merchant-9")
		ctx = context.WithValue(ctx, JobIDKey, "job-9")

		L(ctx).Info("sync started", zap.Int("page", 1))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "sync started", entry.Message)

		fields := entry.ContextMap()
		assert.Equal(t, "req-9", fields["request_id"])
		assert.Equal(t, "merchant-9", fields["merchant_id"])
		assert.Equal(t, "job-9", fields["job_id"])
		assert.EqualValues(t, 1, fields["page"])
	})

	t.Run("WithLogger uses provided logger", func(t *testing.T) {
		logger, logs := newObservedLogger()

		WithLogger(context.Background(), logger).Warn("threshold reached")

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "threshold reached", logs.All()[0].Message)
	})

	t.Run("With adds persistent fields", func(t *testing.T) {
		logger, logs := newObservedLogger()
		cl := WithLogger(context.Background(), logger).With(zap.String("component", "feed"))

		cl.Error("write failed")

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "feed", logs.All()[0].ContextMap()["component"])
	})

	t.Run("nil logger falls back to nop", func(t *testing.T) {
		cl := &ContextLogger{ctx: context.Background()}
		assert.NotPanics(t, func() {
			cl.Info("no sink")
		})
	})
}
