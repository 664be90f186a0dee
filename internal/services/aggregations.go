package services

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

const topProducts = 10

// grouper sums one or more measures per key, remembering the order in
// which keys were first seen so that sorts can break ties by it.
type grouper struct {
	keys  []string
	index map[string]int
	sums  [][]decimal.Decimal
	width int
}

func newGrouper(width int) *grouper {
	return &grouper{index: make(map[string]int), width: width}
}

func (g *grouper) add(key string, values ...float64) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.keys)
		g.index[key] = i
		g.keys = append(g.keys, key)
		row := make([]decimal.Decimal, g.width)
		for j := range row {
			row[j] = decimal.Zero
		}
		g.sums = append(g.sums, row)
	}
	for j, v := range values {
		g.sums[i][j] = g.sums[i][j].Add(decimal.NewFromFloat(v))
	}
}

func (g *grouper) keyValues() []models.KeyValue {
	rows := make([]models.KeyValue, len(g.keys))
	for i, k := range g.keys {
		rows[i] = models.KeyValue{Key: k, Value: g.sums[i][0].InexactFloat64()}
	}
	return rows
}

func sortDesc(rows []models.KeyValue) {
	slices.SortStableFunc(rows, func(a, b models.KeyValue) int {
		return cmp.Compare(b.Value, a.Value)
	})
}

func sortAsc(rows []models.KeyValue) {
	slices.SortStableFunc(rows, func(a, b models.KeyValue) int {
		return cmp.Compare(a.Value, b.Value)
	})
}

func unavailable[T any](name, title, notice string) models.Table[T] {
	return models.Table[T]{Name: name, Title: title, Notice: notice, Rows: []T{}}
}

func available[T any](name, title string, rows []T) models.Table[T] {
	if rows == nil {
		rows = []T{}
	}
	return models.Table[T]{Name: name, Title: title, Available: true, Rows: rows}
}

// groupSum sums measure by the text column col; orders with a missing key
// are skipped.
func groupSum(orders []models.Order, col models.Column, measure func(*models.Order) float64) []models.KeyValue {
	g := newGrouper(1)
	for i := range orders {
		o := &orders[i]
		key := o.Text(col)
		if key == "" {
			continue
		}
		g.add(key, measure(o))
	}
	return g.keyValues()
}

func sales(o *models.Order) float64  { return o.Sales }
func profit(o *models.Order) float64 { return o.Profit }

// dateSeries buckets orders by bucket(OrderDate) and sums measure,
// ascending by date.
func dateSeries(orders []models.Order, bucket func(time.Time) time.Time, measure func(*models.Order) float64) []models.DatePoint {
	g := newGrouper(1)
	dates := make(map[string]time.Time)
	for i := range orders {
		o := &orders[i]
		b := bucket(o.OrderDate)
		key := b.Format("2006-01-02")
		dates[key] = b
		g.add(key, measure(o))
	}
	points := make([]models.DatePoint, len(g.keys))
	for i, k := range g.keys {
		points[i] = models.DatePoint{Date: dates[k], Value: g.sums[i][0].InexactFloat64()}
	}
	slices.SortStableFunc(points, func(a, b models.DatePoint) int {
		return a.Date.Compare(b.Date)
	})
	return points
}

func DailySales(orders []models.Order) models.Table[models.DatePoint] {
	return available(models.AggDailySales, "Sales Over Time", dateSeries(orders, models.Day, sales))
}

// MonthlyProfit labels each bucket with the first day of its month.
func MonthlyProfit(orders []models.Order) models.Table[models.DatePoint] {
	return available(models.AggMonthlyProfit, "Monthly Profit Trend", dateSeries(orders, models.MonthStart, profit))
}

func SalesByCategory(ds *dataset.Dataset, orders []models.Order) models.Table[models.KeyValue] {
	const title = "Sales by Category"
	if !ds.Has(models.ColCategory) {
		return unavailable[models.KeyValue](models.AggSalesByCategory, title, "Category column not found.")
	}
	rows := groupSum(orders, models.ColCategory, sales)
	sortDesc(rows)
	return available(models.AggSalesByCategory, title, rows)
}

// ProfitByCategory sorts ascending so loss-making categories come first.
func ProfitByCategory(ds *dataset.Dataset, orders []models.Order) models.Table[models.KeyValue] {
	const title = "Profit by Category"
	if !ds.Has(models.ColCategory) {
		return unavailable[models.KeyValue](models.AggProfitByCategory, title, "Category column not found.")
	}
	rows := groupSum(orders, models.ColCategory, profit)
	sortAsc(rows)
	return available(models.AggProfitByCategory, title, rows)
}

func RegionComparison(ds *dataset.Dataset, orders []models.Order) models.Table[models.RegionTotals] {
	const title = "Sales vs Profit by Region"
	if !ds.Has(models.ColRegion) {
		return unavailable[models.RegionTotals](models.AggRegionComparison, title, "Region column not found.")
	}
	g := newGrouper(2)
	for i := range orders {
		o := &orders[i]
		if o.Region == "" {
			continue
		}
		g.add(o.Region, o.Sales, o.Profit)
	}
	rows := make([]models.RegionTotals, len(g.keys))
	for i, k := range g.keys {
		rows[i] = models.RegionTotals{
			Region: k,
			Sales:  g.sums[i][0].InexactFloat64(),
			Profit: g.sums[i][1].InexactFloat64(),
		}
	}
	slices.SortStableFunc(rows, func(a, b models.RegionTotals) int {
		return cmp.Compare(b.Sales, a.Sales)
	})
	return available(models.AggRegionComparison, title, rows)
}

// scatterTags are attached to each discount/profit point when present.
var scatterTags = []models.Column{models.ColCategory, models.ColSubCategory, models.ColRegion, models.ColSegment}

func DiscountVsProfit(ds *dataset.Dataset, orders []models.Order) models.Table[models.DiscountPoint] {
	const title = "Discount vs Profit"
	if !ds.Has(models.ColDiscount) {
		return unavailable[models.DiscountPoint](models.AggDiscountVsProfit, title, "Discount/Profit columns not found.")
	}
	var tagCols []models.Column
	for _, c := range scatterTags {
		if ds.Has(c) {
			tagCols = append(tagCols, c)
		}
	}

	points := make([]models.DiscountPoint, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		if o.Discount == nil {
			continue
		}
		p := models.DiscountPoint{Discount: *o.Discount, Profit: o.Profit}
		for _, c := range tagCols {
			if v := o.Text(c); v != "" {
				if p.Tags == nil {
					p.Tags = make(map[string]string, len(tagCols))
				}
				p.Tags[string(c)] = v
			}
		}
		points = append(points, p)
	}
	return available(models.AggDiscountVsProfit, title, points)
}

// topN keeps the n largest rows and returns them in ascending order, the
// orientation a horizontal bar chart draws bottom-up.
func topN(rows []models.KeyValue, n int) []models.KeyValue {
	sortDesc(rows)
	if len(rows) > n {
		rows = rows[:n]
	}
	out := slices.Clone(rows)
	sortAsc(out)
	return out
}

func TopProductsBySales(ds *dataset.Dataset, orders []models.Order) models.Table[models.KeyValue] {
	const title = "Top 10 Products by Sales"
	if !ds.Has(models.ColProductName) {
		return unavailable[models.KeyValue](models.AggTopProductsBySales, title, "Product Name column not found.")
	}
	return available(models.AggTopProductsBySales, title, topN(groupSum(orders, models.ColProductName, sales), topProducts))
}

func TopProductsByProfit(ds *dataset.Dataset, orders []models.Order) models.Table[models.KeyValue] {
	const title = "Top 10 Products by Profit"
	if !ds.Has(models.ColProductName) {
		return unavailable[models.KeyValue](models.AggTopProductsByProfit, title, "Product Name column not found.")
	}
	return available(models.AggTopProductsByProfit, title, topN(groupSum(orders, models.ColProductName, profit), topProducts))
}

func SalesByState(ds *dataset.Dataset, orders []models.Order) models.Table[models.KeyValue] {
	const title = "Sales by State"
	if !ds.Has(models.ColState) {
		return unavailable[models.KeyValue](models.AggSalesByState, title, "State column not found.")
	}
	rows := groupSum(orders, models.ColState, sales)
	sortDesc(rows)
	return available(models.AggSalesByState, title, rows)
}
