package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, method, path string, register func(r *gin.Engine)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := gin.New()
	register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealthCheck(t *testing.T) {
	handler := NewHealthHandler(nil)
	w, body := serve(t, http.MethodGet, "/health", func(r *gin.Engine) {
		r.GET("/health", handler.HealthCheck)
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "lancong", body["service"])
	assert.Contains(t, body, "timestamp")
	assert.Contains(t, body, "version")
}

func TestRoot(t *testing.T) {
	handler := NewHealthHandler(nil)
	w, body := serve(t, http.MethodGet, "/", func(r *gin.Engine) {
		r.GET("/", handler.Root)
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["message"])
}

func TestLivenessCheck(t *testing.T) {
	handler := NewHealthHandler(nil)
	w, body := serve(t, http.MethodGet, "/live", func(r *gin.Engine) {
		r.GET("/live", handler.LivenessCheck)
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", body["status"])
}

func TestReadinessCheck(t *testing.T) {
	tests := []struct {
		name     string
		pinger   Pinger
		code     int
		status   string
		dbStatus string
	}{
		{"no client", nil, http.StatusServiceUnavailable, "not_ready", "unhealthy"},
		{"store down", stubPinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "not_ready", "unhealthy"},
		{"store up", stubPinger{}, http.StatusOK, "ready", "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.pinger)
			w, body := serve(t, http.MethodGet, "/ready", func(r *gin.Engine) {
				r.GET("/ready", handler.ReadinessCheck)
			})

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.status, body["status"])
			checks := body["checks"].(map[string]any)
			database := checks["database"].(map[string]any)
			assert.Equal(t, tt.dbStatus, database["status"])
		})
	}
}

func TestDetailedHealthCheck(t *testing.T) {
	handler := NewHealthHandler(stubPinger{})
	w, body := serve(t, http.MethodGet, "/health/detailed", func(r *gin.Engine) {
		r.GET("/health/detailed", handler.DetailedHealthCheck)
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	system := checks["system"].(map[string]any)
	assert.Contains(t, system, "goroutines")
	assert.Contains(t, system, "uptime")

	handler = NewHealthHandler(nil)
	w, body = serve(t, http.MethodGet, "/health/detailed", func(r *gin.Engine) {
		r.GET("/health/detailed", handler.DetailedHealthCheck)
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body["status"])
}
