package handlers

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/export"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
	"superstore-dashboard/internal/ui/templates"
)

const maxPreviewRows = 100

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// criteria reads the filter signals. A failure is reported in the
// notice element and false is returned.
func (h *SSEHandlers) criteria(sse *datastar.ServerSentEventGenerator, r *http.Request) (models.Criteria, bool) {
	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read signals", "error", err)
		h.patch(sse, r, templates.Notice("Could not read the filter selection."))
		return models.Criteria{}, false
	}
	c, err := signals.criteria()
	if err != nil {
		h.patch(sse, r, templates.Notice("Dates must be in YYYY-MM-DD format."))
		return models.Criteria{}, false
	}
	return c, true
}

func (h *SSEHandlers) patch(sse *datastar.ServerSentEventGenerator, r *http.Request, c templ.Component) bool {
	html, err := templates.RenderString(r.Context(), c)
	if err != nil {
		h.logger.Error("render fragment", "error", err)
		return false
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Debug("patch elements", "error", err)
		return false
	}
	return true
}

// HandleDashboard recomputes the dashboard for the current signals and
// patches the KPIs, chart grid, state table and download links.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	c, ok := h.criteria(sse, r)
	if !ok {
		return
	}

	d, err := h.analytics.Dashboard(r.Context(), c)
	if err != nil {
		h.logger.Error("compute dashboard", "error", err)
		h.patch(sse, r, templates.Notice(userMessage(err)))
		return
	}

	query := EncodeCriteria(c)
	for _, fragment := range []templ.Component{
		templates.Notice(""),
		templates.KPIs(d.KPIs),
		templates.Charts(query),
		templates.StateTable(d.SalesByState),
		templates.Exports(query),
	} {
		if !h.patch(sse, r, fragment) {
			return
		}
	}

	signals, err := json.Marshal(map[string]any{
		"rowCount": d.RowCount,
	})
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandlePreview patches the first rows of the filtered view.
func (h *SSEHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	c, ok := h.criteria(sse, r)
	if !ok {
		return
	}

	ds, orders, err := h.analytics.View(r.Context(), c)
	if err != nil {
		h.patch(sse, r, templates.Notice(userMessage(err)))
		return
	}
	frame, err := export.OrdersFrame(ds, orders)
	if err != nil {
		h.logger.Error("build preview frame", "error", err)
		return
	}

	h.patch(sse, r, templates.Preview(templates.PreviewData{
		Total:   frame.Len(),
		Columns: frame.Columns(),
		Rows:    frame.Page(0, maxPreviewRows),
	}))

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// userMessage returns the message of an AppError, or a generic one.
func userMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "Failed to compute the dashboard."
}
