package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/handlers"
	"superstore-dashboard/internal/middleware"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/server"
	"superstore-dashboard/internal/services"
)

const (
	limiterSweepSchedule = "@every 1m"
	limiterMaxIdle       = 10 * time.Minute
)

// newHandler wires the routes behind the middleware chain. m may be nil.
func newHandler(cfg *config.Config, logger *slog.Logger, analytics *services.Analytics, reloader handlers.Reloader, limiter *middleware.RateLimiter, m *observability.Metrics) http.Handler {
	pages := handlers.NewPageHandlers(analytics, logger)
	templateHandlers := &server.TemplateHandlers{
		Dashboard: pages.HandleDashboard,
	}

	opts := server.Options{Reloader: reloader}
	if m != nil {
		opts.Metrics = m.Handler()
	}
	srv := server.NewServer(analytics, logger, templateHandlers, opts)

	chain := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
	}
	if m != nil {
		chain = append(chain, middleware.Metrics(m))
	}

	return middleware.Chain(chain...)(srv)
}

// newScheduler registers the dataset watcher and the limiter sweep.
func newScheduler(cfg *config.Config, logger *slog.Logger, store *dataset.Store, limiter *middleware.RateLimiter) (*cron.Cron, error) {
	c := cron.New()

	watcher := dataset.NewWatcher(store, logger)
	if err := watcher.Schedule(c, cfg.Dataset.WatchSchedule); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(limiterSweepSchedule, func() {
		if n := limiter.Sweep(limiterMaxIdle); n > 0 {
			logger.Debug("rate limiters swept", "removed", n, "remaining", limiter.Len())
		}
	}); err != nil {
		return nil, err
	}
	return c, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	var metrics *observability.Metrics
	var loadObserver dataset.LoadObserver
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
		loadObserver = metrics
	}

	store := dataset.NewStore(cfg.Dataset, logger, loadObserver)

	start := time.Now()
	ds, err := store.Get(context.Background())
	if err != nil {
		logger.Error("failed to load CSV data", "path", cfg.Dataset.CSVFile, "error", err)
		os.Exit(1)
	}
	logger.Info("CSV data loaded successfully",
		"rows", ds.Len(),
		"dropped", ds.Dropped,
		"duration", time.Since(start),
	)

	analytics := services.NewAnalytics(store, logger)
	if metrics != nil {
		analytics.WithObserver(metrics)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	scheduler, err := newScheduler(cfg, logger, store, rateLimiter)
	if err != nil {
		logger.Error("failed to schedule background jobs", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, logger, analytics, store, rateLimiter, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("scheduler", func(ctx context.Context) error {
		logger.Info("stopping background jobs")
		select {
		case <-scheduler.Stop().Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
