package handlers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/export"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
	noStore         = "no-store"
)

// Reloader drops the cached dataset and loads it again.
type Reloader interface {
	Reload(ctx context.Context) (*dataset.Dataset, error)
}

type APIHandlers struct {
	analytics *services.Analytics
	reloader  Reloader
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, reloader Reloader, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		reloader:  reloader,
		logger:    logger,
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analytics.Stats(r.Context())

	errors.WriteSuccess(w, stats)
}

func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		h.fail(w, r, errors.ServiceUnavailable("Dataset reload is not configured"))
		return
	}

	ds, err := h.reloader.Reload(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"record_count": ds.Len(),
		"dropped_rows": ds.Dropped,
		"loaded_at":    ds.LoadedAt,
	})
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {

	opts, err := h.analytics.Options(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, opts, map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	kpis, err := h.analytics.KPIs(r.Context(), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, kpis, map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	d, err := h.analytics.Dashboard(r.Context(), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, d, map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleAggregation(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	d, err := h.analytics.Aggregation(r.Context(), c, name)
	if stderrors.Is(err, services.ErrUnknownAggregation) {
		h.fail(w, r, errors.NotFound("Unknown aggregation: "+name))
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	table, _ := d.Aggregation(name)
	errors.WriteSuccessWithHeaders(w, table, map[string]string{"Cache-Control": noStore})
}

// HandleOrders returns one page of the filtered view.
func (h *APIHandlers) HandleOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, err := ParseCriteria(q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := intParam(q.Get("limit"), defaultPageSize)
	if err != nil || limit < 0 {
		h.fail(w, r, errors.Validation("limit must be a non-negative integer"))
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		h.fail(w, r, errors.Validation("offset must be a non-negative integer"))
		return
	}
	limit = min(limit, maxPageSize)

	ds, orders, err := h.analytics.View(r.Context(), c)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	frame, err := export.OrdersFrame(ds, orders)
	if err != nil {
		h.fail(w, r, errors.InternalWrap(err, "Failed to build orders preview"))
		return
	}

	errors.WriteSuccessWithHeaders(w, map[string]any{
		"total":   frame.Len(),
		"offset":  offset,
		"limit":   limit,
		"columns": frame.Columns(),
		"rows":    frame.Page(offset, limit),
	}, map[string]string{"Cache-Control": noStore})
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
