package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"superstore-dashboard/internal/models"
)

const (
	ordersSheet = "Orders"
	kpiSheet    = "KPIs"
)

// Workbook builds an xlsx file with the filtered orders, the KPIs and
// one sheet per available aggregation.
func Workbook(frame *Frame, d *models.Dashboard) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	w := sheetWriter{f: f, headerStyle: headerStyle}

	columns := frame.Columns()
	rows := make([][]any, 0, frame.Len())
	for i := 0; i < frame.Len(); i++ {
		rows = append(rows, frame.Row(i))
	}
	w.table(ordersSheet, columns, rows)
	w.widths(ordersSheet, len(columns), 16)

	if _, err := f.NewSheet(kpiSheet); err != nil {
		return nil, err
	}
	w.table(kpiSheet, []string{"Metric", "Value"}, [][]any{
		{"Total Sales", d.KPIs.TotalSales},
		{"Total Profit", d.KPIs.TotalProfit},
		{"Orders", d.KPIs.TotalOrders},
		{"Avg Discount", d.KPIs.AvgDiscount},
		{"Rows", d.RowCount},
	})
	w.widths(kpiSheet, 2, 18)

	for _, name := range models.AggregationNames {
		header, rows, ok := aggregationRows(d, name)
		if !ok {
			continue
		}
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
		w.table(name, header, rows)
		w.widths(name, len(header), 22)
	}

	if w.err != nil {
		return nil, fmt.Errorf("write workbook: %w", w.err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

// sheetWriter keeps the first error so the sheet-building code reads
// straight through.
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
	err         error
}

func (w *sheetWriter) table(sheet string, header []string, rows [][]any) {
	if w.err != nil {
		return
	}
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if w.err = w.f.SetSheetRow(sheet, "A1", &hdr); w.err != nil {
		return
	}
	if w.err = w.f.SetRowStyle(sheet, 1, 1, w.headerStyle); w.err != nil {
		return
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			w.err = err
			return
		}
		if w.err = w.f.SetSheetRow(sheet, cell, &row); w.err != nil {
			return
		}
	}
}

func (w *sheetWriter) widths(sheet string, columns int, width float64) {
	if w.err != nil || columns == 0 {
		return
	}
	last, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetColWidth(sheet, "A", last, width)
}

// aggregationRows flattens an available aggregation into sheet rows.
func aggregationRows(d *models.Dashboard, name string) ([]string, [][]any, bool) {
	switch name {
	case models.AggDailySales, models.AggMonthlyProfit:
		t := d.DailySales
		measure := "Sales"
		if name == models.AggMonthlyProfit {
			t, measure = d.MonthlyProfit, "Profit"
		}
		if !t.Available {
			return nil, nil, false
		}
		rows := make([][]any, 0, len(t.Rows))
		for _, p := range t.Rows {
			rows = append(rows, []any{p.Date.Format(dateLayout), p.Value})
		}
		return []string{"Date", measure}, rows, true

	case models.AggRegionComparison:
		t := d.RegionComparison
		if !t.Available {
			return nil, nil, false
		}
		rows := make([][]any, 0, len(t.Rows))
		for _, r := range t.Rows {
			rows = append(rows, []any{r.Region, r.Sales, r.Profit})
		}
		return []string{"Region", "Sales", "Profit"}, rows, true

	case models.AggDiscountVsProfit:
		t := d.DiscountVsProfit
		if !t.Available {
			return nil, nil, false
		}
		rows := make([][]any, 0, len(t.Rows))
		for _, p := range t.Rows {
			rows = append(rows, []any{
				p.Discount, p.Profit,
				p.Tags[string(models.ColCategory)], p.Tags[string(models.ColSubCategory)],
				p.Tags[string(models.ColRegion)], p.Tags[string(models.ColSegment)],
			})
		}
		return []string{"Discount", "Profit", "Category", "Sub-Category", "Region", "Segment"}, rows, true
	}

	var (
		t      models.Table[models.KeyValue]
		header []string
	)
	switch name {
	case models.AggSalesByCategory:
		t, header = d.SalesByCategory, []string{"Category", "Sales"}
	case models.AggProfitByCategory:
		t, header = d.ProfitByCategory, []string{"Category", "Profit"}
	case models.AggTopProductsBySales:
		t, header = d.TopProductsBySales, []string{"Product Name", "Sales"}
	case models.AggTopProductsByProfit:
		t, header = d.TopProductsByProfit, []string{"Product Name", "Profit"}
	case models.AggSalesByState:
		t, header = d.SalesByState, []string{"State", "Sales"}
	default:
		return nil, nil, false
	}
	if !t.Available {
		return nil, nil, false
	}
	rows := make([][]any, 0, len(t.Rows))
	for _, kv := range t.Rows {
		rows = append(rows, []any{kv.Key, kv.Value})
	}
	return header, rows, true
}
