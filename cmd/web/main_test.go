package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/middleware"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

func testConfig() *config.Config {
	return &config.Config{
		Dataset: config.DatasetConfig{
			Encoding:      "utf-8",
			WatchSchedule: "@every 1m",
			LoadTimeout:   5 * time.Second,
		},
		Logger: config.LoggerConfig{Level: "error", Format: "text"},
		Security: config.SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    1000,
			RateLimitBurst:  1000,
			AllowedOrigins:  []string{"http://localhost:8501"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAnalytics() *services.Analytics {
	discount := 0.2
	orders := []models.Order{
		{OrderID: "US-1", OrderDate: time.Date(2016, 5, 1, 0, 0, 0, 0, time.UTC), Region: "South", Category: "Furniture", Segment: "Consumer", ShipMode: "Standard Class", State: "Florida", ProductName: "Bookcase", SubCategory: "Bookcases", Sales: 250, Profit: -12, Discount: &discount},
		{OrderID: "US-2", OrderDate: time.Date(2016, 6, 9, 0, 0, 0, 0, time.UTC), Region: "West", Category: "Technology", Segment: "Corporate", ShipMode: "First Class", State: "Oregon", ProductName: "Copier", SubCategory: "Copiers", Sales: 900, Profit: 300},
	}
	return services.NewAnalytics(dataset.Static{Data: dataset.New(orders, models.KnownColumns)}, testLogger())
}

func newTestHandler(t *testing.T, cfg *config.Config, m *observability.Metrics) http.Handler {
	t.Helper()
	limiter := middleware.NewRateLimiter(cfg.Security)
	return newHandler(cfg, testLogger(), testAnalytics(), nil, limiter, m)
}

func TestRoutes(t *testing.T) {
	h := newTestHandler(t, testConfig(), observability.NewMetrics())

	tests := []struct {
		method      string
		path        string
		status      int
		contentType string
	}{
		{http.MethodGet, "/", http.StatusOK, "text/html"},
		{http.MethodGet, "/health", http.StatusOK, "application/json"},
		{http.MethodGet, "/admin/stats", http.StatusOK, "application/json"},
		{http.MethodPost, "/admin/reload", http.StatusServiceUnavailable, "application/json"},
		{http.MethodGet, "/api/filters", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/kpis?region=West", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/dashboard", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/aggregations/daily-sales", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/aggregations/unknown", http.StatusNotFound, "application/json"},
		{http.MethodGet, "/api/orders?limit=1", http.StatusOK, "application/json"},
		{http.MethodGet, "/charts/monthly-profit.svg", http.StatusOK, "image/svg+xml"},
		{http.MethodGet, "/export/orders.csv", http.StatusOK, "text/csv"},
		{http.MethodGet, "/export/dashboard.xlsx", http.StatusOK, "application/vnd.openxmlformats"},
		{http.MethodGet, "/sse/dashboard", http.StatusOK, "text/event-stream"},
		{http.MethodGet, "/sse/preview", http.StatusOK, "text/event-stream"},
		{http.MethodGet, "/metrics", http.StatusOK, "text/plain"},
		{http.MethodGet, "/api/kpis?start=bad", http.StatusBadRequest, "application/json"},
		{http.MethodGet, "/missing", http.StatusNotFound, ""},
		{http.MethodPost, "/api/kpis", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.contentType != "" {
				assert.Contains(t, w.Header().Get("Content-Type"), tt.contentType)
			}
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestJSONEnvelope(t *testing.T) {
	h := newTestHandler(t, testConfig(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/kpis", nil)
	req.Header.Set("X-Request-ID", "req-42")
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	var resp struct {
		Success bool        `json:"success"`
		Data    models.KPIs `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1150.0, resp.Data.TotalSales)
	assert.Equal(t, 288.0, resp.Data.TotalProfit)
	assert.Equal(t, 2, resp.Data.TotalOrders)
	assert.InDelta(t, 0.2, resp.Data.AvgDiscount, 1e-9)
}

func TestErrorCarriesRequestID(t *testing.T) {
	h := newTestHandler(t, testConfig(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?end=12/31/2016", nil)
	req.Header.Set("X-Request-ID", "req-7")
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "req-7", resp.Error.RequestID)
}

func TestMetricsDisabled(t *testing.T) {
	h := newTestHandler(t, testConfig(), nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsRecordRoutes(t *testing.T) {
	m := observability.NewMetrics()
	h := newTestHandler(t, testConfig(), m)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/filters", nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `superstore_http_requests_total{method="GET",route="GET /api/filters",status="200"} 1`)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitRPS = 1
	cfg.Security.RateLimitBurst = 1
	h := newTestHandler(t, cfg, nil)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestCORS(t *testing.T) {
	h := newTestHandler(t, testConfig(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/kpis", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:8501", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewScheduler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte("Order Date,Sales,Profit\n2016-01-01,1,1\n"), 0o644))

	cfg := testConfig()
	cfg.Dataset.CSVFile = path
	store := dataset.NewStore(cfg.Dataset, testLogger(), nil)
	_, err := store.Get(context.Background())
	require.NoError(t, err)

	limiter := middleware.NewRateLimiter(cfg.Security)

	c, err := newScheduler(cfg, testLogger(), store, limiter)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)

	cfg.Dataset.WatchSchedule = ""
	c, err = newScheduler(cfg, testLogger(), store, limiter)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	cfg.Dataset.WatchSchedule = "every now and then"
	_, err = newScheduler(cfg, testLogger(), store, limiter)
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "schedule dataset watcher"))
}
