package models

import "time"

type Column string

const (
	ColOrderID     Column = "Order ID"
	ColOrderDate   Column = "Order Date"
	ColShipDate    Column = "Ship Date"
	ColShipMode    Column = "Ship Mode"
	ColSegment     Column = "Segment"
	ColState       Column = "State"
	ColRegion      Column = "Region"
	ColCategory    Column = "Category"
	ColSubCategory Column = "Sub-Category"
	ColProductName Column = "Product Name"
	ColSales       Column = "Sales"
	ColProfit      Column = "Profit"
	ColDiscount    Column = "Discount"
)

// RequiredColumns must be present in the CSV header for a load to succeed.
var RequiredColumns = []Column{ColOrderDate, ColSales, ColProfit}

// KnownColumns lists every column the dashboard reads, in export order.
var KnownColumns = []Column{
	ColOrderID, ColOrderDate, ColShipDate, ColShipMode, ColSegment,
	ColState, ColRegion, ColCategory, ColSubCategory, ColProductName,
	ColSales, ColProfit, ColDiscount,
}

// FilterColumns are the categorical dimensions a user can filter on.
var FilterColumns = []Column{ColRegion, ColCategory, ColSegment, ColShipMode}

// Order is one row of the Superstore CSV. Empty strings mean the value
// was missing; ShipDate and Discount are nil when missing or unparseable.
type Order struct {
	OrderID     string
	OrderDate   time.Time
	ShipDate    *time.Time
	ShipMode    string
	Segment     string
	State       string
	Region      string
	Category    string
	SubCategory string
	ProductName string
	Sales       float64
	Profit      float64
	Discount    *float64
}

// Text returns the value of a string column, or "" for non-text columns.
func (o *Order) Text(col Column) string {
	switch col {
	case ColOrderID:
		return o.OrderID
	case ColShipMode:
		return o.ShipMode
	case ColSegment:
		return o.Segment
	case ColState:
		return o.State
	case ColRegion:
		return o.Region
	case ColCategory:
		return o.Category
	case ColSubCategory:
		return o.SubCategory
	case ColProductName:
		return o.ProductName
	}
	return ""
}

// Day truncates t to its calendar date, keeping t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MonthStart returns the first day of t's calendar month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
