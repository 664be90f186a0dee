package handlers

import (
	"bytes"
	"log/slog"
	"net/http"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/export"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewExportHandlers(analytics *services.Analytics, logger *slog.Logger) *ExportHandlers {
	return &ExportHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleOrdersCSV downloads the filtered view as CSV.
func (h *ExportHandlers) HandleOrdersCSV(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	ds, orders, err := h.analytics.View(r.Context(), c)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	frame, err := export.OrdersFrame(ds, orders)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to build export"), requestID)
		return
	}

	var buf bytes.Buffer
	if err := frame.WriteCSV(&buf); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to write CSV"), requestID)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="superstore_filtered.csv"`)
	w.Header().Set("Cache-Control", noStore)
	w.Write(buf.Bytes())
}

// HandleWorkbook downloads the filtered view, KPIs and aggregations as xlsx.
func (h *ExportHandlers) HandleWorkbook(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	ds, orders, err := h.analytics.View(r.Context(), c)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	d, err := h.analytics.Dashboard(r.Context(), c)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	frame, err := export.OrdersFrame(ds, orders)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to build export"), requestID)
		return
	}

	wb, err := export.Workbook(frame, d)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to build workbook"), requestID)
		return
	}
	defer wb.Close()

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Failed to write workbook"), requestID)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="superstore_dashboard.xlsx"`)
	w.Header().Set("Cache-Control", noStore)
	w.Write(buf.Bytes())
}
