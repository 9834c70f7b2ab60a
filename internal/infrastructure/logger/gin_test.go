package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedRouter(t *testing.T, level zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(level)
	log := zap.New(core)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Next()
	})
	router.Use(GinMiddleware(log), Recovery(log))
	return router, logs
}

func fieldMap(entry observer.LoggedEntry) map[string]interface{} {
	fields := make(map[string]interface{}, len(entry.Context))
	for _, f := range entry.Context {
		fields[f.Key] = f
	}
	return fields
}

func TestGinMiddleware_LogsRequest(t *testing.T) {
	router, logs := newObservedRouter(t, zapcore.InfoLevel)
	router.GET("/api/v1/catalogs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": []string{}})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalogs?page=2", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "HTTP Request", entry.Message)

	fields := fieldMap(entry)
	assert.Contains(t, fields, "request_id")
	assert.Contains(t, fields, "latency")
	assert.Contains(t, fields, "query")
	assert.Equal(t, "req-42", entry.ContextMap()["request_id"])
	assert.EqualValues(t, http.StatusOK, entry.ContextMap()["status"])
}

func TestGinMiddleware_LevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusConflict, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		router, logs := newObservedRouter(t, zapcore.InfoLevel)
		status := tt.status
		router.GET("/x", func(c *gin.Context) { c.Status(status) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, tt.level, logs.All()[0].Level, "status %d", tt.status)
	}
}

func TestRecovery_PanicBecomes500(t *testing.T) {
	router, logs := newObservedRouter(t, zapcore.InfoLevel)
	router.GET("/boom", func(c *gin.Context) {
		panic("feed writer exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var recovered *observer.LoggedEntry
	for _, entry := range logs.All() {
		if entry.Message == "Panic recovered" {
			e := entry
			recovered = &e
			break
		}
	}
	require.NotNil(t, recovered)
	assert.Equal(t, zapcore.ErrorLevel, recovered.Level)
	assert.Equal(t, "req-42", recovered.ContextMap()["request_id"])
}
