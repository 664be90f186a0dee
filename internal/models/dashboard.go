package models

import "time"

// Criteria selects the filtered view. A zero Start or End means the
// dataset's own bound; an empty selection allows every value.
type Criteria struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Regions    []string  `json:"regions,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Segments   []string  `json:"segments,omitempty"`
	ShipModes  []string  `json:"ship_modes,omitempty"`
}

// Selection returns the allowed values for one filter dimension.
func (c Criteria) Selection(col Column) []string {
	switch col {
	case ColRegion:
		return c.Regions
	case ColCategory:
		return c.Categories
	case ColSegment:
		return c.Segments
	case ColShipMode:
		return c.ShipModes
	}
	return nil
}

type KPIs struct {
	TotalSales  float64 `json:"total_sales"`
	TotalProfit float64 `json:"total_profit"`
	TotalOrders int     `json:"total_orders"`
	AvgDiscount float64 `json:"avg_discount"`
}

type DatePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type KeyValue struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

type RegionTotals struct {
	Region string  `json:"region"`
	Sales  float64 `json:"sales"`
	Profit float64 `json:"profit"`
}

type DiscountPoint struct {
	Discount float64           `json:"discount"`
	Profit   float64           `json:"profit"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// Table is one named aggregation result. When a required column is
// absent Available is false, Notice explains why and Rows is empty.
type Table[T any] struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Available bool   `json:"available"`
	Notice    string `json:"notice,omitempty"`
	Rows      []T    `json:"rows"`
}

// Len reports the number of rows, which the chart and export code use
// without knowing T.
func (t Table[T]) Len() int { return len(t.Rows) }

const (
	AggDailySales          = "daily-sales"
	AggMonthlyProfit       = "monthly-profit"
	AggSalesByCategory     = "sales-by-category"
	AggProfitByCategory    = "profit-by-category"
	AggRegionComparison    = "region-comparison"
	AggDiscountVsProfit    = "discount-vs-profit"
	AggTopProductsBySales  = "top-products-by-sales"
	AggTopProductsByProfit = "top-products-by-profit"
	AggSalesByState        = "sales-by-state"
)

// AggregationNames lists the aggregations in presentation order.
var AggregationNames = []string{
	AggDailySales,
	AggMonthlyProfit,
	AggSalesByCategory,
	AggProfitByCategory,
	AggRegionComparison,
	AggDiscountVsProfit,
	AggTopProductsBySales,
	AggTopProductsByProfit,
	AggSalesByState,
}

type Dashboard struct {
	Criteria            Criteria             `json:"criteria"`
	RowCount            int                  `json:"row_count"`
	KPIs                KPIs                 `json:"kpis"`
	DailySales          Table[DatePoint]     `json:"daily_sales"`
	MonthlyProfit       Table[DatePoint]     `json:"monthly_profit"`
	SalesByCategory     Table[KeyValue]      `json:"sales_by_category"`
	ProfitByCategory    Table[KeyValue]      `json:"profit_by_category"`
	RegionComparison    Table[RegionTotals]  `json:"region_comparison"`
	DiscountVsProfit    Table[DiscountPoint] `json:"discount_vs_profit"`
	TopProductsBySales  Table[KeyValue]      `json:"top_products_by_sales"`
	TopProductsByProfit Table[KeyValue]      `json:"top_products_by_profit"`
	SalesByState        Table[KeyValue]      `json:"sales_by_state"`
	ComputedAt          time.Time            `json:"computed_at"`
}

// Aggregation returns the named aggregation as an untyped value, or
// false when the name is unknown.
func (d *Dashboard) Aggregation(name string) (any, bool) {
	switch name {
	case AggDailySales:
		return d.DailySales, true
	case AggMonthlyProfit:
		return d.MonthlyProfit, true
	case AggSalesByCategory:
		return d.SalesByCategory, true
	case AggProfitByCategory:
		return d.ProfitByCategory, true
	case AggRegionComparison:
		return d.RegionComparison, true
	case AggDiscountVsProfit:
		return d.DiscountVsProfit, true
	case AggTopProductsBySales:
		return d.TopProductsBySales, true
	case AggTopProductsByProfit:
		return d.TopProductsByProfit, true
	case AggSalesByState:
		return d.SalesByState, true
	}
	return nil, false
}

// FilterOptions describes the choices offered to the user.
type FilterOptions struct {
	MinDate    time.Time           `json:"min_date"`
	MaxDate    time.Time           `json:"max_date"`
	Dimensions map[Column][]string `json:"dimensions"`
}
