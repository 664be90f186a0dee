package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

const dateLayout = "2006-01-02"

// Frame is a column-oriented copy of a filtered view, holding only the
// columns the CSV header contained. Missing values are NA cells. Text
// cells are read from the orders, since gota treats the string "NaN" as NA.
type Frame struct {
	df     dataframe.DataFrame
	orders []models.Order
	text   map[string]models.Column
}

// OrdersFrame builds a Frame from the orders of a view of ds.
func OrdersFrame(ds *dataset.Dataset, orders []models.Order) (*Frame, error) {
	cols := ds.Columns()
	ss := make([]series.Series, 0, len(cols))
	text := make(map[string]models.Column)
	for _, col := range cols {
		ss = append(ss, column(col, orders))
		if isText(col) {
			text[string(col)] = col
		}
	}
	df := dataframe.New(ss...)
	if df.Err != nil {
		return nil, fmt.Errorf("build orders frame: %w", df.Err)
	}
	return &Frame{df: df, orders: orders, text: text}, nil
}

func isText(col models.Column) bool {
	switch col {
	case models.ColOrderDate, models.ColShipDate, models.ColSales, models.ColProfit, models.ColDiscount:
		return false
	}
	return true
}

// value returns the cell of row i in the named column. NA cells are nil.
func (f *Frame) value(i int, name string) any {
	if col, ok := f.text[name]; ok {
		return f.orders[i].Text(col)
	}
	return cell(f.df.Col(name).Elem(i))
}

func column(col models.Column, orders []models.Order) series.Series {
	name := string(col)
	switch col {
	case models.ColOrderDate:
		vals := make([]string, len(orders))
		for i := range orders {
			vals[i] = orders[i].OrderDate.Format(dateLayout)
		}
		return series.New(vals, series.String, name)
	case models.ColShipDate:
		vals := make([]any, len(orders))
		for i := range orders {
			if d := orders[i].ShipDate; d != nil {
				vals[i] = d.Format(dateLayout)
			}
		}
		return series.New(vals, series.String, name)
	case models.ColSales:
		vals := make([]float64, len(orders))
		for i := range orders {
			vals[i] = orders[i].Sales
		}
		return series.New(vals, series.Float, name)
	case models.ColProfit:
		vals := make([]float64, len(orders))
		for i := range orders {
			vals[i] = orders[i].Profit
		}
		return series.New(vals, series.Float, name)
	case models.ColDiscount:
		vals := make([]any, len(orders))
		for i := range orders {
			if d := orders[i].Discount; d != nil {
				vals[i] = *d
			}
		}
		return series.New(vals, series.Float, name)
	default:
		vals := make([]string, len(orders))
		for i := range orders {
			vals[i] = orders[i].Text(col)
		}
		return series.New(vals, series.String, name)
	}
}

func (f *Frame) Len() int { return f.df.Nrow() }

func (f *Frame) Columns() []string { return f.df.Names() }

// Row returns the cell values of row i. NA cells are nil.
func (f *Frame) Row(i int) []any {
	names := f.df.Names()
	row := make([]any, len(names))
	for j, name := range names {
		row[j] = f.value(i, name)
	}
	return row
}

func cell(e series.Element) any {
	if e.IsNA() {
		return nil
	}
	v := e.Val()
	if fv, ok := v.(float64); ok && (math.IsNaN(fv) || math.IsInf(fv, 0)) {
		return nil
	}
	return v
}

// Page returns up to limit rows starting at offset, keyed by column name.
func (f *Frame) Page(offset, limit int) []map[string]any {
	n := f.Len()
	if offset < 0 {
		offset = 0
	}
	end := min(n, offset+limit)
	if limit <= 0 || offset >= end {
		return []map[string]any{}
	}

	names := f.df.Names()
	rows := make([]map[string]any, 0, end-offset)
	for i := offset; i < end; i++ {
		m := make(map[string]any, len(names))
		for _, name := range names {
			m[name] = f.value(i, name)
		}
		rows = append(rows, m)
	}
	return rows
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// WriteCSV writes the frame with a header row. NA cells are written as
// empty fields.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	names := f.df.Names()
	if err := cw.Write(names); err != nil {
		return err
	}

	record := make([]string, len(names))
	for i := 0; i < f.df.Nrow(); i++ {
		for j, name := range names {
			record[j] = formatCell(f.value(i, name))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
