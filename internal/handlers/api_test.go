package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

type stubReloader struct {
	ds    *dataset.Dataset
	err   error
	calls int
}

func (s *stubReloader) Reload(context.Context) (*dataset.Dataset, error) {
	s.calls++
	return s.ds, s.err
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	h := NewAPIHandlers(testAnalytics(), nil, quietLogger())

	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	env := decode[map[string]string](t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data["status"])
	assert.Equal(t, "1.0.0", env.Data["version"])
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	h := NewAPIHandlers(testAnalytics(), nil, quietLogger())

	w := httptest.NewRecorder()
	h.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	env := decode[map[string]any](t, w)
	assert.Equal(t, true, env.Data["dataset_available"])
	assert.EqualValues(t, 4, env.Data["record_count"])
}

func TestAPIHandlers_HandleReload(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		h := NewAPIHandlers(testAnalytics(), nil, quietLogger())
		w := httptest.NewRecorder()
		h.HandleReload(w, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		env := decode[any](t, w)
		assert.False(t, env.Success)
		assert.Equal(t, errors.CodeServiceUnavail, env.Error.Code)
	})

	t.Run("reloads", func(t *testing.T) {
		reloader := &stubReloader{ds: testDataset()}
		h := NewAPIHandlers(testAnalytics(), reloader, quietLogger())
		w := httptest.NewRecorder()
		h.HandleReload(w, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, reloader.calls)
		env := decode[map[string]any](t, w)
		assert.EqualValues(t, 4, env.Data["record_count"])
		assert.EqualValues(t, 0, env.Data["dropped_rows"])
	})

	t.Run("load error", func(t *testing.T) {
		reloader := &stubReloader{err: errors.Data("Missing required columns in CSV", "Sales")}
		h := NewAPIHandlers(testAnalytics(), reloader, quietLogger())
		w := httptest.NewRecorder()
		h.HandleReload(w, httptest.NewRequest(http.MethodPost, "/admin/reload", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		env := decode[any](t, w)
		assert.Equal(t, errors.CodeData, env.Error.Code)
	})
}

func TestAPIHandlers_HandleFilters(t *testing.T) {
	h := NewAPIHandlers(testAnalytics(), nil, quietLogger())

	w := httptest.NewRecorder()
	h.HandleFilters(w, httptest.NewRequest(http.MethodGet, "/api/filters", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, noStore, w.Header().Get("Cache-Control"))
	env := decode[models.FilterOptions](t, w)
	assert.Equal(t, day(2014, 1, 3), env.Data.MinDate.UTC())
	assert.Equal(t, day(2014, 3, 15), env.Data.MaxDate.UTC())
	assert.Equal(t, []string{"Central", "East", "West"}, env.Data.Dimensions[models.ColRegion])
}

func TestAPIHandlers_HandleKPIs(t *testing.T) {
	h := NewAPIHandlers(testAnalytics(), nil, quietLogger())

	tests := []struct {
		name   string
		query  string
		status int
		want   models.KPIs
	}{
		{
			name:   "all orders",
			query:  "",
			status: http.StatusOK,
			want:   models.KPIs{TotalSales: 920, TotalProfit: -5, TotalOrders: 4, AvgDiscount: 0.5 / 3},
		},
		{
			name:   "west only",
			query:  "region=West",
			status: http.StatusOK,
			want:   models.KPIs{TotalSales: 400, TotalProfit: 70, TotalOrders: 2, AvgDiscount: 0.1},
		},
		{
			name:   "start after end",
			query:  "start=2014-03-01&end=2014-01-01",
			status: http.StatusOK,
			want:   models.KPIs{},
		},
		{
			name:   "malformed date",
			query:  "start=03/01/2014",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleKPIs(w, httptest.NewRequest(http.MethodGet, "/api/kpis?"+tt.query, nil))

			require.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				env := decode[any](t, w)
				assert.Equal(t, errors.CodeValidation, env.Error.Code)
				return
			}
			env := decode[models.KPIs](t, w)
			assert.InDelta(t, tt.want.TotalSales, env.Data.TotalSales, 1e-9)
			assert.InDelta(t, tt.want.TotalProfit, env.Data.TotalProfit, 1e-9)
			assert.Equal(t, tt.want.TotalOrders, env.Data.TotalOrders)
			assert.InDelta(t, tt.want.AvgDiscount, env.Data.AvgDiscount, 1e-9)
		})
	}
}

func TestAPIHandlers_HandleDashboard(t *testing.T) {
	h := NewAPIHandlers(testAnalytics(), nil, quietLogger())

	w := httptest.NewRecorder()
	h.HandleDashboard(w, httptest.NewRequest(http.MethodGet, "/api/dashboard?category=Furniture", nil))

	require.Equal(t, http.StatusOK, w.Code)
	env := decode[models.Dashboard](t, w)
	assert.Equal(t, 2, env.Data.RowCount)
	assert.True(t, env.Data.SalesByCategory.Available)
	require.Len(t, env.Data.SalesByCategory.Rows, 1)
	assert.Equal(t, models.KeyValue{Key: "Furniture", Value: 600}, env.Data.SalesByCategory.Rows[0])
	assert.Len(t, env.Data.SalesByState.Rows, 2)
}

func TestAPIHandlers_HandleAggregation(t *testing.T) {
	h := NewAPIHandlers(testAnalytics(), nil, quietLogger())

	t.Run("known", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/aggregations/profit-by-category", nil)
		req.SetPathValue("name", models.AggProfitByCategory)
		w := httptest.NewRecorder()
		h.HandleAggregation(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		env := decode[models.Table[models.KeyValue]](t, w)
		assert.Equal(t, models.AggProfitByCategory, env.Data.Name)
		require.Len(t, env.Data.Rows, 3)
		assert.Equal(t, "Furniture", env.Data.Rows[0].Key)
		assert.InDelta(t, -70, env.Data.Rows[0].Value, 1e-9)
	})

	t.Run("unknown", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/aggregations/nope", nil)
		req.SetPathValue("name", "nope")
		w := httptest.NewRecorder()
		h.HandleAggregation(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		env := decode[any](t, w)
		assert.Equal(t, "Unknown aggregation: nope", env.Error.Message)
	})
}

func TestAPIHandlers_HandleOrders(t *testing.T) {
	h := NewAPIHandlers(testAnalytics(), nil, quietLogger())

	type page struct {
		Total   int              `json:"total"`
		Offset  int              `json:"offset"`
		Limit   int              `json:"limit"`
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
	}

	t.Run("paged", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.HandleOrders(w, httptest.NewRequest(http.MethodGet, "/api/orders?limit=2&offset=1", nil))

		require.Equal(t, http.StatusOK, w.Code)
		env := decode[page](t, w)
		assert.Equal(t, 4, env.Data.Total)
		assert.Equal(t, 1, env.Data.Offset)
		assert.Equal(t, 2, env.Data.Limit)
		assert.Contains(t, env.Data.Columns, "Order ID")
		require.Len(t, env.Data.Rows, 2)
		assert.Equal(t, "O-2", env.Data.Rows[0]["Order ID"])
		assert.Nil(t, env.Data.Rows[1]["Discount"])
	})

	t.Run("limit capped", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.HandleOrders(w, httptest.NewRequest(http.MethodGet, "/api/orders?limit=5000", nil))

		require.Equal(t, http.StatusOK, w.Code)
		env := decode[page](t, w)
		assert.Equal(t, maxPageSize, env.Data.Limit)
		assert.Len(t, env.Data.Rows, 4)
	})

	for _, q := range []string{"limit=-1", "offset=x"} {
		t.Run(q, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleOrders(w, httptest.NewRequest(http.MethodGet, "/api/orders?"+q, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAPIHandlers_SourceUnavailable(t *testing.T) {
	analytics := services.NewAnalytics(unavailableSource{}, quietLogger())
	h := NewAPIHandlers(analytics, nil, quietLogger())

	endpoints := map[string]http.HandlerFunc{
		"/api/filters":   h.HandleFilters,
		"/api/kpis":      h.HandleKPIs,
		"/api/dashboard": h.HandleDashboard,
		"/api/orders":    h.HandleOrders,
	}
	for path, handle := range endpoints {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handle(w, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			env := decode[any](t, w)
			assert.False(t, env.Success)
			assert.Equal(t, "Data file not found", env.Error.Message)
		})
	}
}
