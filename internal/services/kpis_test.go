package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

func TestComputeKPIs(t *testing.T) {
	ds := superstore()

	k := ComputeKPIs(ds, ds.Orders)

	assert.InDelta(t, 1160.0, k.TotalSales, 1e-9)
	assert.InDelta(t, 39.0, k.TotalProfit, 1e-9)
	// CA-1 twice, CA-2, CA-3, CA-4; the blank id is not counted
	assert.Equal(t, 4, k.TotalOrders)
	// 0.2, 0.0, 0.3, 0.1, 0.0 over five non-missing values
	assert.InDelta(t, 0.12, k.AvgDiscount, 1e-9)
}

func TestComputeKPIsWithoutOptionalColumns(t *testing.T) {
	ds := withoutColumns(superstore(), models.ColOrderID, models.ColDiscount)

	k := ComputeKPIs(ds, ds.Orders)

	assert.InDelta(t, 1160.0, k.TotalSales, 1e-9)
	assert.Equal(t, 0, k.TotalOrders)
	assert.Equal(t, 0.0, k.AvgDiscount)
}

func TestComputeKPIsEmptyView(t *testing.T) {
	ds := superstore()

	k := ComputeKPIs(ds, nil)

	assert.Equal(t, models.KPIs{}, k)
}

func TestComputeKPIsAllDiscountsMissing(t *testing.T) {
	ds := dataset.New([]models.Order{
		{OrderID: "A", OrderDate: date(2014, 1, 1), Sales: 1},
		{OrderID: "B", OrderDate: date(2014, 1, 2), Sales: 2},
	}, allColumns)

	k := ComputeKPIs(ds, ds.Orders)
	assert.Equal(t, 0.0, k.AvgDiscount)
	assert.Equal(t, 2, k.TotalOrders)
}

func TestComputeKPIsDecimalSums(t *testing.T) {
	ds := dataset.New([]models.Order{
		{OrderDate: date(2014, 1, 1), Sales: 0.1, Profit: 0.1},
		{OrderDate: date(2014, 1, 1), Sales: 0.2, Profit: 0.2},
	}, allColumns)

	k := ComputeKPIs(ds, ds.Orders)
	assert.Equal(t, 0.3, k.TotalSales)
	assert.Equal(t, 0.3, k.TotalProfit)
}

func TestDistinctOrdersNeverExceedRows(t *testing.T) {
	ds := superstore()
	for _, c := range []models.Criteria{
		{},
		{Regions: []string{"West"}},
		{Start: date(2014, 2, 1)},
		{Categories: []string{"Furniture"}},
	} {
		view := Filter(ds, c)
		assert.LessOrEqual(t, ComputeKPIs(ds, view).TotalOrders, len(view))
	}
}
