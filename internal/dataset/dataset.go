package dataset

import (
	"context"
	"slices"
	"time"

	"superstore-dashboard/internal/models"
)

// Dataset is the immutable result of loading the orders CSV.
type Dataset struct {
	Path     string
	Orders   []models.Order
	Dropped  int
	ModTime  time.Time
	LoadedAt time.Time

	columns map[models.Column]bool
	minDate time.Time
	maxDate time.Time
}

// New builds a dataset from already-parsed orders. Orders without an
// Order Date are dropped, matching what the CSV loader does.
func New(orders []models.Order, columns []models.Column) *Dataset {
	d := &Dataset{
		Orders:   make([]models.Order, 0, len(orders)),
		LoadedAt: time.Now(),
		columns:  make(map[models.Column]bool, len(columns)),
	}
	for _, c := range columns {
		d.columns[c] = true
	}
	for _, o := range orders {
		if o.OrderDate.IsZero() {
			d.Dropped++
			continue
		}
		d.Orders = append(d.Orders, o)
	}
	d.computeBounds()
	return d
}

func (d *Dataset) computeBounds() {
	for i := range d.Orders {
		t := d.Orders[i].OrderDate
		if d.minDate.IsZero() || t.Before(d.minDate) {
			d.minDate = t
		}
		if d.maxDate.IsZero() || t.After(d.maxDate) {
			d.maxDate = t
		}
	}
}

// View returns a dataset with the same columns holding only orders.
// It lets a filtered view be filtered again.
func (d *Dataset) View(orders []models.Order) *Dataset {
	v := &Dataset{
		Path:     d.Path,
		Orders:   orders,
		ModTime:  d.ModTime,
		LoadedAt: d.LoadedAt,
		columns:  d.columns,
	}
	v.computeBounds()
	return v
}

// Has reports whether the CSV header contained col.
func (d *Dataset) Has(col models.Column) bool {
	return d.columns[col]
}

// Columns returns the known columns present in the dataset, in export order.
func (d *Dataset) Columns() []models.Column {
	cols := make([]models.Column, 0, len(d.columns))
	for _, c := range models.KnownColumns {
		if d.columns[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

func (d *Dataset) Len() int { return len(d.Orders) }

// DateRange returns the earliest and latest Order Date. Both are zero
// for an empty dataset.
func (d *Dataset) DateRange() (time.Time, time.Time) {
	return d.minDate, d.maxDate
}

// Options lists the date bounds and, for every filter dimension present,
// the sorted distinct non-missing values.
func (d *Dataset) Options() models.FilterOptions {
	opts := models.FilterOptions{
		MinDate:    models.Day(d.minDate),
		MaxDate:    models.Day(d.maxDate),
		Dimensions: make(map[models.Column][]string),
	}
	for _, col := range models.FilterColumns {
		if !d.Has(col) {
			continue
		}
		seen := make(map[string]struct{})
		values := make([]string, 0)
		for i := range d.Orders {
			v := d.Orders[i].Text(col)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
		slices.Sort(values)
		opts.Dimensions[col] = values
	}
	return opts
}

// Static serves a fixed dataset. It satisfies the same source contract
// as Store and is used when the data does not come from a file.
type Static struct {
	Data *Dataset
}

func (s Static) Get(context.Context) (*Dataset, error) {
	return s.Data, nil
}
