package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
)

const ctxCheckEvery = 1024

// decoder wraps r so that it yields UTF-8 for the configured encoding.
func decoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin1", "latin-1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, errors.Validation(fmt.Sprintf("unsupported encoding %q", encoding))
	}
}

// LoadFile reads the CSV at path. See Read for parsing rules.
func LoadFile(ctx context.Context, path, encoding string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ServiceUnavailableWrap(err, "cannot open dataset")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.ServiceUnavailableWrap(err, "cannot stat dataset")
	}

	d, err := Read(ctx, f, encoding)
	if err != nil {
		return nil, err
	}
	d.Path = path
	d.ModTime = info.ModTime()
	return d, nil
}

// Read parses delimited order data. Order Date, Sales and Profit must be
// present in the header. Rows whose Order Date cannot be parsed are
// dropped; an unparseable Ship Date or Discount is left missing.
func Read(ctx context.Context, r io.Reader, encoding string) (*Dataset, error) {
	dr, err := decoder(r, encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(dr)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Data("CSV file is empty", "")
	}
	if err != nil {
		return nil, errors.Data("cannot read CSV header", err.Error())
	}

	index := columnIndex(header)
	var missing []string
	for _, col := range models.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, string(col))
		}
	}
	if len(missing) > 0 {
		return nil, errors.Data("Missing required columns in CSV", strings.Join(missing, ", "))
	}

	d := &Dataset{
		LoadedAt: time.Now(),
		columns:  make(map[models.Column]bool, len(index)),
	}
	for col := range index {
		d.columns[col] = true
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Data("malformed CSV", fmt.Sprintf("line %d: %v", line, err))
		}
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		order, ok := parseOrder(record, index)
		if !ok {
			d.Dropped++
			continue
		}
		d.Orders = append(d.Orders, order)
	}

	d.computeBounds()
	return d, nil
}

func columnIndex(header []string) map[models.Column]int {
	known := make(map[string]models.Column, len(models.KnownColumns))
	for _, c := range models.KnownColumns {
		known[string(c)] = c
	}

	index := make(map[models.Column]int)
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if col, ok := known[h]; ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}
	return index
}

// parseOrder returns false when the row has no usable Order Date.
func parseOrder(record []string, index map[models.Column]int) (models.Order, bool) {
	cell := func(col models.Column) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	orderDate, ok := ParseDate(cell(models.ColOrderDate))
	if !ok {
		return models.Order{}, false
	}

	o := models.Order{
		OrderID:     cell(models.ColOrderID),
		OrderDate:   orderDate,
		ShipMode:    cell(models.ColShipMode),
		Segment:     cell(models.ColSegment),
		State:       cell(models.ColState),
		Region:      cell(models.ColRegion),
		Category:    cell(models.ColCategory),
		SubCategory: cell(models.ColSubCategory),
		ProductName: cell(models.ColProductName),
	}
	if t, ok := ParseDate(cell(models.ColShipDate)); ok {
		o.ShipDate = &t
	}
	o.Sales, _ = ParseNumber(cell(models.ColSales))
	o.Profit, _ = ParseNumber(cell(models.ColProfit))
	if v, ok := ParseNumber(cell(models.ColDiscount)); ok {
		o.Discount = &v
	}
	return o, true
}
