package server

import (
	"log/slog"
	"net/http"

	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/handlers"
	"superstore-dashboard/internal/services"
)

type Server struct {
	analytics      *services.Analytics
	mux            *http.ServeMux
	logger         *slog.Logger
	apiHandlers    *handlers.APIHandlers
	sseHandlers    *handlers.SSEHandlers
	chartHandlers  *handlers.ChartHandlers
	exportHandlers *handlers.ExportHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// Options carries the optional collaborators. A nil Metrics handler
// leaves /metrics unrouted.
type Options struct {
	Reloader handlers.Reloader
	Metrics  http.Handler
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers, opts Options) *Server {
	s := &Server{
		analytics:      analytics,
		mux:            http.NewServeMux(),
		logger:         logger,
		apiHandlers:    handlers.NewAPIHandlers(analytics, opts.Reloader, logger),
		sseHandlers:    handlers.NewSSEHandlers(analytics, logger),
		chartHandlers:  handlers.NewChartHandlers(analytics, charts.NewRenderer(logger), logger),
		exportHandlers: handlers.NewExportHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers, opts)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, opts Options) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("POST /admin/reload", s.apiHandlers.HandleReload)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/dashboard", s.apiHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /api/aggregations/{name}", s.apiHandlers.HandleAggregation)
	s.mux.HandleFunc("GET /api/orders", s.apiHandlers.HandleOrders)

	// Charts and downloads
	s.mux.HandleFunc("GET /charts/{name}", s.chartHandlers.HandleChart)
	s.mux.HandleFunc("GET /export/orders.csv", s.exportHandlers.HandleOrdersCSV)
	s.mux.HandleFunc("GET /export/dashboard.xlsx", s.exportHandlers.HandleWorkbook)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/dashboard", s.sseHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /sse/preview", s.sseHandlers.HandlePreview)

	if opts.Metrics != nil {
		s.mux.Handle("GET /metrics", opts.Metrics)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
