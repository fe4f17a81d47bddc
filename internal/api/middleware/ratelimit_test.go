package middleware

import (
	"bytes"
	"customer-registry/internal/config"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	cfg := config.RateLimitConfig{
		Enabled: true,
		RPS:     1,
		Burst:   1,
	}

	middleware := NewRateLimiterMiddleware(cfg, logger)
	defer middleware.Stop()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("blocks requests exceeding the rate limit", func(t *testing.T) {
		handler := middleware.Middleware(nextHandler)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "127.0.0.1:12345"

		rec1 := httptest.NewRecorder()
		handler.ServeHTTP(rec1, req)
		assert.Equal(t, http.StatusOK, rec1.Code)

		rec2 := httptest.NewRecorder()
		handler.ServeHTTP(rec2, req)
		assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
		assert.Equal(t, "1", rec2.Header().Get("Retry-After"))

		var response map[string]map[string]string
		require.NoError(t, json.NewDecoder(rec2.Body).Decode(&response))
		assert.Equal(t, "Rate limit exceeded", response["error"]["message"])
	})

	t.Run("limits each client separately", func(t *testing.T) {
		handler := middleware.Middleware(nextHandler)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.1.1:999"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("extractIP handles various headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1")
		assert.Equal(t, "192.168.1.1", middleware.extractIP(req))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		assert.Equal(t, "10.0.0.1", middleware.extractIP(req))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		assert.Equal(t, "127.0.0.1", middleware.extractIP(req))
	})

	t.Run("evicts idle limiters", func(t *testing.T) {
		middleware.getLimiter("172.16.0.1")

		evicted := middleware.evictIdle(time.Now().Add(time.Hour), time.Minute)

		assert.GreaterOrEqual(t, evicted, 1)
		middleware.mu.Lock()
		_, exists := middleware.visitors["172.16.0.1"]
		middleware.mu.Unlock()
		assert.False(t, exists)
	})
}

func TestRateLimiterMiddlewareDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	middleware := NewRateLimiterMiddleware(config.RateLimitConfig{Enabled: false, RPS: 1, Burst: 1}, logger)
	defer middleware.Stop()

	handler := middleware.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
