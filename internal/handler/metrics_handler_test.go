package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-timetable/internal/service"
)

func newMetricsRouter(h *MetricsHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", h.Prometheus)
	router.GET("/metrics/summary", h.Summary)
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	return router
}

func TestMetricsHandlerHealth(t *testing.T) {
	router := newMetricsRouter(NewMetricsHandler(nil, nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetricsHandlerReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	router := newMetricsRouter(NewMetricsHandler(nil, map[string]Pinger{"database": ok, "redis": ok}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"database":"ok","redis":"ok"}}`, w.Body.String())
}

func TestMetricsHandlerReadyDegraded(t *testing.T) {
	checks := map[string]Pinger{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}
	router := newMetricsRouter(NewMetricsHandler(nil, checks))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"database":"ok","redis":"connection refused"}}`, w.Body.String())
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	w := httptest.NewRecorder()
	newMetricsRouter(NewMetricsHandler(nil, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	metrics := service.NewMetricsService()
	metrics.RecordJob(service.JobSucceeded)
	w = httptest.NewRecorder()
	newMetricsRouter(NewMetricsHandler(metrics, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `timetable_generation_jobs_total{status="succeeded"} 1`)
}

func TestMetricsHandlerSummary(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordCacheOperation(true, 0)
	metrics.RecordCacheOperation(false, 0)
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/timetables", http.StatusOK, 0)

	w := httptest.NewRecorder()
	newMetricsRouter(NewMetricsHandler(metrics, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics/summary", nil))
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["requests_total"])
	assert.Equal(t, 0.5, data["cache_hit_ratio"])
}
