package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/shopcrawl/config"
	"github.com/use-agent/shopcrawl/logctx"
	"github.com/use-agent/shopcrawl/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))
	r.GET("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Contains(t, w.Body.String(), models.ErrCodeRateLimited)
			assert.Equal(t, "1000", w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// Another client has its own bucket.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientLimiters_Sweep(t *testing.T) {
	l := newClientLimiters(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	now := time.Now()

	assert.True(t, l.allow("10.0.0.1", now.Add(-2*time.Hour)))
	assert.True(t, l.allow("10.0.0.2", now))
	assert.Equal(t, 1, l.sweep(now.Add(-time.Hour)))

	// A swept client starts over with a full bucket.
	assert.True(t, l.allow("10.0.0.1", now))
	assert.Equal(t, "1", l.retryAfter())
}

func TestRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestID(logger), AccessLog())
	r.GET("/api", func(c *gin.Context) {
		logctx.From(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusOK)
	})

	t.Run("generated", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api", nil))

		id := w.Header().Get(RequestIDHeader)
		require.Len(t, id, 36)
		assert.Contains(t, buf.String(), `"request_id":"`+id+`"`)
		assert.Contains(t, buf.String(), `"msg":"http request"`)
	})

	t.Run("propagated", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		r.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
		assert.Contains(t, buf.String(), `"request_id":"abc-123"`)
	})
}
