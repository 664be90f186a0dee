package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
	"superstore-dashboard/internal/ui/templates"
)

var filterFields = []struct {
	col    models.Column
	label  string
	signal string
}{
	{models.ColRegion, "Region", "regions"},
	{models.ColCategory, "Category", "categories"},
	{models.ColSegment, "Segment", "segments"},
	{models.ColShipMode, "Ship Mode", "shipModes"},
}

// BuildPage assembles the page for criteria c. Dimensions without a
// selection show every option selected.
func BuildPage(opts models.FilterOptions, c models.Criteria, d *models.Dashboard) templates.PageData {
	page := templates.PageData{
		Title:     "Superstore Sales Dashboard",
		Caption:   "Interactive sales & profit analysis",
		MinDate:   formatDay(opts.MinDate),
		MaxDate:   formatDay(opts.MaxDate),
		Start:     formatDay(opts.MinDate),
		End:       formatDay(opts.MaxDate),
		Dashboard: d,
		Query:     template.URL(EncodeCriteria(c)),
		Charts:    templates.DefaultCharts(),
	}
	if !c.Start.IsZero() {
		page.Start = formatDay(c.Start)
	}
	if !c.End.IsZero() {
		page.End = formatDay(c.End)
	}

	for _, f := range filterFields {
		values, ok := opts.Dimensions[f.col]
		if !ok {
			continue
		}
		selected := make(map[string]bool)
		for _, v := range c.Selection(f.col) {
			selected[v] = true
		}
		field := templates.FilterField{Label: f.label, Signal: f.signal}
		for _, v := range values {
			field.Options = append(field.Options, templates.FilterOption{
				Value:    v,
				Selected: len(selected) == 0 || selected[v],
			})
		}
		page.Filters = append(page.Filters, field)
	}
	return page
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

type PageHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewPageHandlers(analytics *services.Analytics, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	opts, err := h.analytics.Options(r.Context())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	d, err := h.analytics.Dashboard(r.Context(), c)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	html, err := templates.RenderString(r.Context(), templates.Dashboard(BuildPage(opts, c, d)))
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to render dashboard"), requestID)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", noStore)
	w.Write([]byte(html))
}
