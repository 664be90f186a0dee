package services

import (
	"superstore-dashboard/internal/dataset"
	"superstore-dashboard/internal/models"
)

// dayKey orders calendar dates as yyyymmdd integers, ignoring time of day.
func dayKey(y int, m int, d int) int {
	return y*10000 + m*100 + d
}

func dayKeyOf(o *models.Order) int {
	y, m, d := o.OrderDate.Date()
	return dayKey(y, int(m), d)
}

// Filter returns the orders of ds whose Order Date falls within the
// inclusive criteria range and whose value is selected in every active
// dimension. Dimensions are AND-combined, values within one OR-combined.
// A dimension with no selection, or absent from ds, is unconstrained.
func Filter(ds *dataset.Dataset, c models.Criteria) []models.Order {
	lo, hi := 0, dayKey(9999, 12, 31)
	if !c.Start.IsZero() {
		y, m, d := c.Start.Date()
		lo = dayKey(y, int(m), d)
	}
	if !c.End.IsZero() {
		y, m, d := c.End.Date()
		hi = dayKey(y, int(m), d)
	}

	type dimension struct {
		col     models.Column
		allowed map[string]struct{}
	}
	var dims []dimension
	for _, col := range models.FilterColumns {
		sel := c.Selection(col)
		if len(sel) == 0 || !ds.Has(col) {
			continue
		}
		allowed := make(map[string]struct{}, len(sel))
		for _, v := range sel {
			allowed[v] = struct{}{}
		}
		dims = append(dims, dimension{col: col, allowed: allowed})
	}

	out := make([]models.Order, 0, len(ds.Orders))
	for i := range ds.Orders {
		o := &ds.Orders[i]
		if o.OrderDate.IsZero() {
			continue
		}
		if k := dayKeyOf(o); k < lo || k > hi {
			continue
		}
		pass := true
		for _, dim := range dims {
			if _, ok := dim.allowed[o.Text(dim.col)]; !ok {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, *o)
		}
	}
	return out
}
