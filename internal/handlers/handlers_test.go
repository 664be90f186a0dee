package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func testDataset() *dataset.Dataset {
	orders := []models.Order{
		{OrderID: "O-1", OrderDate: day(2014, 1, 3), ShipMode: "Second Class", Segment: "Consumer", State: "California", Region: "West", Category: "Furniture", SubCategory: "Chairs", ProductName: "Chair", Sales: 100, Profit: 10, Discount: ptr(0.2)},
		{OrderID: "O-2", OrderDate: day(2014, 1, 3), ShipMode: "Second Class", Segment: "Consumer", State: "California", Region: "West", Category: "Technology", SubCategory: "Phones", ProductName: "Phone", Sales: 300, Profit: 60, Discount: ptr(0.0)},
		{OrderID: "O-3", OrderDate: day(2014, 2, 7), ShipMode: "Standard Class", Segment: "Corporate", State: "New York", Region: "East", Category: "Office Supplies", SubCategory: "Paper", ProductName: "Paper", Sales: 20, Profit: 5},
		{OrderID: "O-4", OrderDate: day(2014, 3, 15), ShipMode: "First Class", Segment: "Home Office", State: "Texas", Region: "Central", Category: "Furniture", SubCategory: "Tables", ProductName: "Table", Sales: 500, Profit: -80, Discount: ptr(0.3)},
	}
	return dataset.New(orders, models.KnownColumns)
}

func testAnalytics() *services.Analytics {
	return services.NewAnalytics(dataset.Static{Data: testDataset()}, quietLogger())
}

type unavailableSource struct{}

func (unavailableSource) Get(context.Context) (*dataset.Dataset, error) {
	return nil, errors.ServiceUnavailable("Data file not found")
}

type envelope[T any] struct {
	Data    T                `json:"data"`
	Success bool             `json:"success"`
	Error   *errors.AppError `json:"error"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}
