package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"storymagic/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func() (*gin.Engine, *observer.ObservedLogs) {
		core, logs := observer.New(zap.InfoLevel)
		router := gin.New()
		router.Use(middleware.ZapLoggingMiddleware(zap.New(core)))
		router.POST("/api/webhook", func(c *gin.Context) { c.Status(http.StatusOK) })
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router, logs
	}

	t.Run("Webhook key never reaches the logs", func(t *testing.T) {
		router, logs := newRouter()

		req := httptest.NewRequest(http.MethodPost, "/api/webhook?key=super-secret-key&id=story-1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		entries := logs.All()
		require.Len(t, entries, 1)
		path, ok := entries[0].ContextMap()["path"].(string)
		require.True(t, ok)
		assert.NotContains(t, path, "super-secret-key")
		assert.Contains(t, path, "key=REDACTED")
		assert.Contains(t, path, "id=story-1")
	})

	t.Run("Query without key logged untouched", func(t *testing.T) {
		router, logs := newRouter()

		req := httptest.NewRequest(http.MethodPost, "/api/webhook?id=story-1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "/api/webhook?id=story-1", entries[0].ContextMap()["path"])
	})

	t.Run("Healthcheck skipped", func(t *testing.T) {
		router, logs := newRouter()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Zero(t, logs.Len())
	})
}
