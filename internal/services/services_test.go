package services

import (
	"fmt"
	"time"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

var allColumns = models.KnownColumns

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

// superstore is a small dataset covering every column and a few gaps.
func superstore() *dataset.Dataset {
	orders := []models.Order{
		{OrderID: "CA-1", OrderDate: date(2014, 1, 3), ShipMode: "Second Class", Segment: "Consumer", State: "California", Region: "West", Category: "Furniture", SubCategory: "Chairs", ProductName: "Chair A", Sales: 100, Profit: 10, Discount: ptr(0.2)},
		{OrderID: "CA-1", OrderDate: date(2014, 1, 3), ShipMode: "Second Class", Segment: "Consumer", State: "California", Region: "West", Category: "Technology", SubCategory: "Phones", ProductName: "Phone B", Sales: 300, Profit: 60, Discount: ptr(0.0)},
		{OrderID: "CA-2", OrderDate: date(2014, 1, 20), ShipMode: "Standard Class", Segment: "Corporate", State: "New York", Region: "East", Category: "Office Supplies", SubCategory: "Paper", ProductName: "Paper C", Sales: 20, Profit: 5},
		{OrderID: "CA-3", OrderDate: date(2014, 2, 7), ShipMode: "First Class", Segment: "Home Office", State: "Texas", Region: "Central", Category: "Furniture", SubCategory: "Tables", ProductName: "Table D", Sales: 500, Profit: -80, Discount: ptr(0.3)},
		{OrderID: "", OrderDate: date(2014, 2, 28), ShipMode: "Standard Class", Segment: "Consumer", State: "", Region: "", Category: "", ProductName: "", Sales: 40, Profit: 4, Discount: ptr(0.1)},
		{OrderID: "CA-4", OrderDate: date(2014, 3, 15), ShipMode: "Same Day", Segment: "Consumer", State: "California", Region: "West", Category: "Technology", SubCategory: "Phones", ProductName: "Phone B", Sales: 200, Profit: 40, Discount: ptr(0.0)},
	}
	return dataset.New(orders, allColumns)
}

func withoutColumns(ds *dataset.Dataset, drop ...models.Column) *dataset.Dataset {
	skip := make(map[models.Column]bool)
	for _, c := range drop {
		skip[c] = true
	}
	var cols []models.Column
	for _, c := range ds.Columns() {
		if !skip[c] {
			cols = append(cols, c)
		}
	}
	return dataset.New(ds.Orders, cols)
}

func manyProducts(n int) *dataset.Dataset {
	orders := make([]models.Order, 0, n)
	for i := 0; i < n; i++ {
		orders = append(orders, models.Order{
			OrderID:     fmt.Sprintf("O-%d", i),
			OrderDate:   date(2015, 6, 1+i%28),
			ProductName: fmt.Sprintf("Product %02d", i),
			Sales:       float64((i*7)%n + 1),
			Profit:      float64(i - 5),
		})
	}
	return dataset.New(orders, []models.Column{models.ColOrderID, models.ColOrderDate, models.ColProductName, models.ColSales, models.ColProfit})
}
