package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
)

// Source yields the current dataset. *dataset.Store and dataset.Static
// both satisfy it.
type Source interface {
	Get(ctx context.Context) (*dataset.Dataset, error)
}

// ComputeObserver is notified after each dashboard computation.
type ComputeObserver interface {
	ObserveCompute(rows int, duration time.Duration)
}

type Analytics struct {
	source       Source
	logger       *slog.Logger
	observer     ComputeObserver
	computations atomic.Int64
	lastDuration atomic.Int64
}

func NewAnalytics(source Source, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		source: source,
		logger: logger,
	}
}

// WithObserver sets the observer notified after each computation.
func (a *Analytics) WithObserver(o ComputeObserver) *Analytics {
	a.observer = o
	return a
}

func (a *Analytics) Dataset(ctx context.Context) (*dataset.Dataset, error) {
	return a.source.Get(ctx)
}

// View returns the dataset and the orders selected by c.
func (a *Analytics) View(ctx context.Context, c models.Criteria) (*dataset.Dataset, []models.Order, error) {
	ds, err := a.source.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ds, Filter(ds, c), nil
}

func (a *Analytics) KPIs(ctx context.Context, c models.Criteria) (models.KPIs, error) {
	ds, orders, err := a.View(ctx, c)
	if err != nil {
		return models.KPIs{}, err
	}
	return ComputeKPIs(ds, orders), nil
}

func (a *Analytics) Options(ctx context.Context) (models.FilterOptions, error) {
	ds, err := a.source.Get(ctx)
	if err != nil {
		return models.FilterOptions{}, err
	}
	return ds.Options(), nil
}

// ErrUnknownAggregation is returned by Aggregation for a name outside
// models.AggregationNames.
var ErrUnknownAggregation = errors.New("unknown aggregation")

type aggregator func(ds *dataset.Dataset, orders []models.Order, d *models.Dashboard)

var aggregators = map[string]aggregator{
	models.AggDailySales: func(_ *dataset.Dataset, o []models.Order, d *models.Dashboard) {
		d.DailySales = DailySales(o)
	},
	models.AggMonthlyProfit: func(_ *dataset.Dataset, o []models.Order, d *models.Dashboard) {
		d.MonthlyProfit = MonthlyProfit(o)
	},
	models.AggSalesByCategory: func(ds *dataset.Dataset, o []models.Order, d *models.Dashboard) {
		d.SalesByCategory = SalesByCategory(ds, o)
	},
	models.AggProfitByCategory: func(ds *dataset.Dataset, o []models.Order, d *models.Dashboard) {
		d.ProfitByCategory = ProfitByCategory(ds, o)
	},
	models.AggRegionComparison: func(ds *dataset.Dataset, o []models.Order, d *models.Dashboard) {
		d.RegionComparison = RegionComparison(ds, o)
	},
	models.AggDiscountVsProfit: func(ds *dataset.Dataset, o []models.Order, d *models.Dashboard) {
		d.DiscountVsProfit = DiscountVsProfit(ds, o)
	},
	models.AggTopProductsBySales: func(ds *dataset.Dataset, o []models.Order, d *models.Dashboard) {
		d.TopProductsBySales = TopProductsBySales(ds, o)
	},
	models.AggTopProductsByProfit: func(ds *dataset.Dataset, o []models.Order, d *models.Dashboard) {
		d.TopProductsByProfit = TopProductsByProfit(ds, o)
	},
	models.AggSalesByState: func(ds *dataset.Dataset, o []models.Order, d *models.Dashboard) {
		d.SalesByState = SalesByState(ds, o)
	},
}

// Dashboard filters the dataset and computes the KPIs and all nine
// aggregations. Each step writes a distinct field and only reads the
// filtered slice, so they run concurrently.
func (a *Analytics) Dashboard(ctx context.Context, c models.Criteria) (*models.Dashboard, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.dashboard")
	defer span.Finish()

	start := time.Now()
	ds, orders, err := a.View(ctx, c)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	d := &models.Dashboard{Criteria: c, RowCount: len(orders)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.KPIs = ComputeKPIs(ds, orders)
		return nil
	})
	for _, name := range models.AggregationNames {
		agg := aggregators[name]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			agg(ds, orders, d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, err
	}

	a.finish(ctx, span, d, time.Since(start))
	return d, nil
}

// Aggregation computes the KPIs and a single named aggregation. The
// other tables of the returned dashboard are left zero.
func (a *Analytics) Aggregation(ctx context.Context, c models.Criteria, name string) (*models.Dashboard, error) {
	agg, ok := aggregators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAggregation, name)
	}

	ctx, span := observability.StartSpan(ctx, "analytics.aggregation")
	defer span.Finish()
	span.SetTag("aggregation", name)

	start := time.Now()
	ds, orders, err := a.View(ctx, c)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	d := &models.Dashboard{Criteria: c, RowCount: len(orders), KPIs: ComputeKPIs(ds, orders)}
	agg(ds, orders, d)

	a.finish(ctx, span, d, time.Since(start))
	return d, nil
}

func (a *Analytics) finish(ctx context.Context, span *observability.Span, d *models.Dashboard, duration time.Duration) {
	d.ComputedAt = time.Now()
	a.computations.Add(1)
	a.lastDuration.Store(int64(duration))
	span.SetTag("rows", strconv.Itoa(d.RowCount))

	if a.observer != nil {
		a.observer.ObserveCompute(d.RowCount, duration)
	}
	a.logger.Debug("dashboard computed",
		"rows", d.RowCount,
		"duration", duration,
		"request_id", observability.GetRequestID(ctx),
	)
}

// Utility method for monitoring
func (a *Analytics) Stats(ctx context.Context) map[string]any {
	stats := map[string]any{
		"computations":      a.computations.Load(),
		"last_compute_ms":   time.Duration(a.lastDuration.Load()).Milliseconds(),
		"dataset_available": false,
	}
	ds, err := a.source.Get(ctx)
	if err != nil {
		stats["dataset_error"] = err.Error()
		return stats
	}
	minDate, maxDate := ds.DateRange()
	columns := make([]string, 0)
	for _, c := range ds.Columns() {
		columns = append(columns, string(c))
	}
	stats["dataset_available"] = true
	stats["path"] = ds.Path
	stats["record_count"] = ds.Len()
	stats["dropped_rows"] = ds.Dropped
	stats["columns"] = columns
	stats["min_order_date"] = minDate
	stats["max_order_date"] = maxDate
	stats["loaded_at"] = ds.LoadedAt
	stats["source_modified"] = ds.ModTime
	return stats
}
