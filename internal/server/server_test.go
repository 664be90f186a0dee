package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer(opts Options) *Server {
	orders := []models.Order{
		{OrderID: "A-1", OrderDate: time.Date(2017, 4, 2, 0, 0, 0, 0, time.UTC), Region: "West", Category: "Technology", State: "Utah", ProductName: "Router", Sales: 80, Profit: 12},
	}
	analytics := services.NewAnalytics(dataset.Static{Data: dataset.New(orders, models.KnownColumns)}, quietLogger())
	templates := &TemplateHandlers{Dashboard: func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("page"))
	}}
	return NewServer(analytics, quietLogger(), templates, opts)
}

func TestServerRoutes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("metrics"))
	})
	s := testServer(Options{Metrics: metrics})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/aggregations/sales-by-state", http.StatusOK},
		{http.MethodGet, "/charts/sales-by-state.svg", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/admin/reload", http.StatusServiceUnavailable},
		{http.MethodGet, "/admin/reload", http.StatusMethodNotAllowed},
		{http.MethodGet, "/index.html", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestServerWithoutMetrics(t *testing.T) {
	s := testServer(Options{})

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func newGraceful() *GracefulServer {
	cfg := &config.Config{Server: config.ServerConfig{ShutdownTimeout: 5 * time.Second}}
	return NewGracefulServer(&http.Server{Addr: "127.0.0.1:0"}, quietLogger(), cfg)
}

func TestShutdownRunsHooks(t *testing.T) {
	gs := newGraceful()

	var mu sync.Mutex
	var ran []string
	for _, name := range []string{"scheduler", "store"} {
		gs.RegisterShutdownHook(name, func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			ran = append(ran, name)
			return nil
		})
	}

	require.NoError(t, gs.shutdown(context.Background()))
	assert.ElementsMatch(t, []string{"scheduler", "store"}, ran)
}

func TestShutdownReportsHookFailure(t *testing.T) {
	gs := newGraceful()
	gs.RegisterShutdownHook("scheduler", func(ctx context.Context) error {
		return errors.New("jobs still running")
	})

	err := gs.shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown hook scheduler failed")
}

func TestShutdownTimeout(t *testing.T) {
	gs := newGraceful()
	release := make(chan struct{})
	defer close(release)
	gs.RegisterShutdownHook("stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, gs.shutdown(ctx), context.DeadlineExceeded)
}
