package services

import (
	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

// ComputeKPIs summarises orders. Order count is the number of distinct
// non-empty Order IDs and is 0 when ds has no Order ID column; the
// average discount ignores missing values and is 0 when there are none.
func ComputeKPIs(ds *dataset.Dataset, orders []models.Order) models.KPIs {
	totalSales, totalProfit := decimal.Zero, decimal.Zero
	discountSum := decimal.Zero
	discounts := 0

	countIDs := ds.Has(models.ColOrderID)
	ids := make(map[string]struct{})

	for i := range orders {
		o := &orders[i]
		totalSales = totalSales.Add(decimal.NewFromFloat(o.Sales))
		totalProfit = totalProfit.Add(decimal.NewFromFloat(o.Profit))
		if o.Discount != nil {
			discountSum = discountSum.Add(decimal.NewFromFloat(*o.Discount))
			discounts++
		}
		if countIDs && o.OrderID != "" {
			ids[o.OrderID] = struct{}{}
		}
	}

	k := models.KPIs{
		TotalSales:  totalSales.InexactFloat64(),
		TotalProfit: totalProfit.InexactFloat64(),
		TotalOrders: len(ids),
	}
	if ds.Has(models.ColDiscount) && discounts > 0 {
		k.AvgDiscount = discountSum.Div(decimal.NewFromInt(int64(discounts))).InexactFloat64()
	}
	return k
}
