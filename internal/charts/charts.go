package charts

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"superstore-dashboard/internal/models"
)

var ErrUnknownChart = errors.New("unknown chart")

const (
	defaultWidth  = 640
	defaultHeight = 360
	maxLabelRunes = 22
)

var (
	salesColor  = drawing.ColorFromHex("1f77b4")
	profitColor = drawing.ColorFromHex("2ca02c")
	lossColor   = drawing.ColorFromHex("d62728")
)

// Renderer draws dashboard aggregations as SVG. Empty or unavailable
// aggregations and render failures produce a placeholder image.
type Renderer struct {
	Width  int
	Height int
	logger *slog.Logger
}

func NewRenderer(logger *slog.Logger) *Renderer {
	return &Renderer{Width: defaultWidth, Height: defaultHeight, logger: logger}
}

// Render writes the named chart. Only an unknown name or a write
// failure is returned as an error.
func (r *Renderer) Render(w io.Writer, d *models.Dashboard, name string) error {
	var (
		title  string
		notice string
		draw   func(io.Writer) error
	)

	switch name {
	case models.AggDailySales:
		t := d.DailySales
		title, notice = t.Title, emptyNotice(t.Available, t.Notice, t.Len())
		draw = func(w io.Writer) error { return r.timeChart(w, t, salesColor, "Sales") }
	case models.AggMonthlyProfit:
		t := d.MonthlyProfit
		title, notice = t.Title, emptyNotice(t.Available, t.Notice, t.Len())
		draw = func(w io.Writer) error { return r.timeChart(w, t, profitColor, "Profit") }
	case models.AggSalesByCategory:
		t := d.SalesByCategory
		title, notice = t.Title, emptyNotice(t.Available, t.Notice, t.Len())
		draw = func(w io.Writer) error { return r.barChart(w, t, salesColor) }
	case models.AggProfitByCategory:
		t := d.ProfitByCategory
		title, notice = t.Title, emptyNotice(t.Available, t.Notice, t.Len())
		draw = func(w io.Writer) error { return r.barChart(w, t, profitColor) }
	case models.AggRegionComparison:
		t := d.RegionComparison
		title, notice = t.Title, emptyNotice(t.Available, t.Notice, t.Len())
		draw = func(w io.Writer) error { return r.regionChart(w, t) }
	case models.AggDiscountVsProfit:
		t := d.DiscountVsProfit
		title, notice = t.Title, emptyNotice(t.Available, t.Notice, t.Len())
		draw = func(w io.Writer) error { return r.scatterChart(w, t) }
	case models.AggTopProductsBySales:
		t := d.TopProductsBySales
		title, notice = t.Title, emptyNotice(t.Available, t.Notice, t.Len())
		draw = func(w io.Writer) error { return r.barChart(w, t, salesColor) }
	case models.AggTopProductsByProfit:
		t := d.TopProductsByProfit
		title, notice = t.Title, emptyNotice(t.Available, t.Notice, t.Len())
		draw = func(w io.Writer) error { return r.barChart(w, t, profitColor) }
	case models.AggSalesByState:
		t := d.SalesByState
		title, notice = t.Title, emptyNotice(t.Available, t.Notice, t.Len())
		draw = func(w io.Writer) error { return r.barChart(w, t, salesColor) }
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}

	if notice != "" {
		return r.Placeholder(w, title, notice)
	}

	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		r.logger.Warn("chart render failed, using placeholder", "chart", name, "error", err)
		return r.Placeholder(w, title, "Chart unavailable.")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func emptyNotice(available bool, notice string, rows int) string {
	switch {
	case !available:
		return notice
	case rows == 0:
		return "No orders match the current filters."
	}
	return ""
}

func (r *Renderer) base(title string) chart.Chart {
	return chart.Chart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
	}
}

func (r *Renderer) timeChart(w io.Writer, t models.Table[models.DatePoint], color drawing.Color, unit string) error {
	xs := make([]time.Time, 0, len(t.Rows))
	ys := make([]float64, 0, len(t.Rows))
	for _, p := range t.Rows {
		xs = append(xs, p.Date)
		ys = append(ys, p.Value)
	}
	// go-chart cannot build a range from a single x value.
	if len(xs) == 1 {
		xs = append(xs, xs[0].AddDate(0, 0, 1))
		ys = append(ys, ys[0])
	}

	ch := r.base(t.Title)
	ch.XAxis = chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02")}
	ch.YAxis = chart.YAxis{Name: unit, Range: paddedRange(ys)}
	ch.Series = []chart.Series{
		chart.TimeSeries{
			Name:    unit,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: color, StrokeWidth: 2},
		},
	}
	return ch.Render(chart.SVG, w)
}

func (r *Renderer) barChart(w io.Writer, t models.Table[models.KeyValue], color drawing.Color) error {
	bars := make([]chart.Value, 0, len(t.Rows))
	ys := make([]float64, 0, len(t.Rows))
	for _, kv := range t.Rows {
		fill := color
		if kv.Value < 0 {
			fill = lossColor
		}
		bars = append(bars, chart.Value{
			Label: shorten(kv.Key),
			Value: kv.Value,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		})
		ys = append(ys, kv.Value)
	}
	return r.renderBars(w, t.Title, bars, ys)
}

func (r *Renderer) regionChart(w io.Writer, t models.Table[models.RegionTotals]) error {
	bars := make([]chart.Value, 0, 2*len(t.Rows))
	ys := make([]float64, 0, 2*len(t.Rows))
	for _, rt := range t.Rows {
		bars = append(bars,
			chart.Value{Label: rt.Region + " Sales", Value: rt.Sales, Style: chart.Style{FillColor: salesColor, StrokeColor: salesColor}},
			chart.Value{Label: rt.Region + " Profit", Value: rt.Profit, Style: chart.Style{FillColor: profitColor, StrokeColor: profitColor}},
		)
		ys = append(ys, rt.Sales, rt.Profit)
	}
	return r.renderBars(w, t.Title, bars, ys)
}

func (r *Renderer) renderBars(w io.Writer, title string, bars []chart.Value, ys []float64) error {
	slot := (r.Width - 80) / (2 * len(bars))
	barWidth := max(4, min(slot, 60))
	spacing := max(2, min(slot, 40))

	bc := chart.BarChart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Bottom: 16}},
		XAxis:      chart.Style{FontSize: 7},
		YAxis:      chart.YAxis{Range: paddedRange(ys)},
		Bars:       bars,
	}
	return bc.Render(chart.SVG, w)
}

func (r *Renderer) scatterChart(w io.Writer, t models.Table[models.DiscountPoint]) error {
	xs := make([]float64, 0, len(t.Rows))
	ys := make([]float64, 0, len(t.Rows))
	for _, p := range t.Rows {
		xs = append(xs, p.Discount)
		ys = append(ys, p.Profit)
	}

	ch := r.base(t.Title)
	ch.XAxis = chart.XAxis{Name: "Discount", Range: paddedRange(xs)}
	ch.YAxis = chart.YAxis{Name: "Profit", Range: paddedRange(ys)}
	ch.Series = []chart.Series{
		chart.ContinuousSeries{
			Name:    "Orders",
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    3,
				DotColor:    salesColor.WithAlpha(160),
			},
		},
	}
	return ch.Render(chart.SVG, w)
}

// paddedRange gives go-chart an explicit range that always includes
// zero and never collapses to a single value.
func paddedRange(vs []float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	if lo < 0 {
		lo -= pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi + pad}
}

func shorten(label string) string {
	runes := []rune(label)
	if len(runes) <= maxLabelRunes {
		return label
	}
	return string(runes[:maxLabelRunes-1]) + "…"
}

// Placeholder writes a plain SVG carrying a title and a message.
func (r *Renderer) Placeholder(w io.Writer, title, message string) error {
	_, err := fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<rect width="100%%" height="100%%" fill="#f8fafc" stroke="#e2e8f0"/>`+
		`<text x="50%%" y="40" text-anchor="middle" font-family="sans-serif" font-size="16" fill="#0f172a">%s</text>`+
		`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#64748b">%s</text>`+
		`</svg>`,
		r.Width, r.Height, r.Width, r.Height, html.EscapeString(title), html.EscapeString(message))
	return err
}
