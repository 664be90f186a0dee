package handlers

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

type ChartHandlers struct {
	analytics *services.Analytics
	renderer  *charts.Renderer
	logger    *slog.Logger
}

func NewChartHandlers(analytics *services.Analytics, renderer *charts.Renderer, logger *slog.Logger) *ChartHandlers {
	return &ChartHandlers{
		analytics: analytics,
		renderer:  renderer,
		logger:    logger,
	}
}

// HandleChart serves GET /charts/{name}.svg for the query criteria.
func (h *ChartHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	name, ok := strings.CutSuffix(r.PathValue("name"), ".svg")
	if !ok {
		errors.WriteError(w, h.logger, errors.NotFound("Charts are served as {name}.svg"), requestID)
		return
	}

	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	d, err := h.analytics.Aggregation(r.Context(), c, name)
	if stderrors.Is(err, services.ErrUnknownAggregation) {
		errors.WriteError(w, h.logger, errors.NotFound("Unknown chart: "+name), requestID)
		return
	}
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, d, name); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to render chart"), requestID)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", noStore)
	w.Write(buf.Bytes())
}
