package templates

import (
	"context"
	"encoding/json"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	"superstore-dashboard/internal/models"
)

// FilterField is one multi-select in the sidebar.
type FilterField struct {
	Label   string
	Signal  string
	Options []FilterOption
}

type FilterOption struct {
	Value    string
	Selected bool
}

// Selected returns the selected option values.
func (f FilterField) Selected() []string {
	out := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		if o.Selected {
			out = append(out, o.Value)
		}
	}
	return out
}

// ChartSlot is one chart image on the page.
type ChartSlot struct {
	Name  string
	Title string
}

type PageData struct {
	Title     string
	Caption   string
	Start     string
	End       string
	MinDate   string
	MaxDate   string
	Filters   []FilterField
	Dashboard *models.Dashboard
	Query     template.URL
	Charts    []ChartSlot
}

// Signals returns the Datastar signal object that seeds the filter form.
func (p PageData) Signals() string {
	signals := map[string]any{
		"start": p.Start,
		"end":   p.End,
	}
	for _, f := range p.Filters {
		signals[f.Signal] = f.Selected()
	}
	b, err := json.Marshal(signals)
	if err != nil {
		return "{}"
	}
	return string(b)
}

var chartTitles = map[string]string{
	models.AggDailySales:          "Sales Over Time",
	models.AggMonthlyProfit:       "Monthly Profit Trend",
	models.AggSalesByCategory:     "Sales by Category",
	models.AggProfitByCategory:    "Profit by Category",
	models.AggRegionComparison:    "Sales vs Profit by Region",
	models.AggDiscountVsProfit:    "Discount vs Profit",
	models.AggTopProductsBySales:  "Top 10 Products (Sales)",
	models.AggTopProductsByProfit: "Top 10 Products (Profit)",
}

// DefaultCharts lists the chart slots in page order. Sales by State is
// shown as a table instead.
func DefaultCharts() []ChartSlot {
	slots := make([]ChartSlot, 0, len(chartTitles))
	for _, name := range models.AggregationNames {
		if title, ok := chartTitles[name]; ok {
			slots = append(slots, ChartSlot{Name: name, Title: title})
		}
	}
	return slots
}

var views = template.Must(template.New("views").Funcs(funcs).Parse(`
{{define "kpis"}}<section id="kpis" class="kpis">
<div class="metric"><span class="label">💰 Total Sales</span><span class="value">{{money .TotalSales}}</span></div>
<div class="metric"><span class="label">📈 Total Profit</span><span class="value">{{money .TotalProfit}}</span></div>
<div class="metric"><span class="label">🧾 Orders</span><span class="value">{{count .TotalOrders}}</span></div>
<div class="metric"><span class="label">🏷️ Avg Discount</span><span class="value">{{percent .AvgDiscount}}</span></div>
</section>{{end}}

{{define "charts"}}<section id="charts" class="charts">
{{range .Charts}}<figure class="chart">
<figcaption>{{.Title}}</figcaption>
<img src="/charts/{{.Name}}.svg?{{$.Query}}" alt="{{.Title}}" loading="lazy">
</figure>
{{end}}</section>{{end}}

{{define "state"}}<section id="state-table" class="state-table">
<h3>Sales by State (table)</h3>
{{if not .Available}}<p class="notice">{{.Notice}}</p>
{{else if not .Rows}}<p class="notice">No orders match the current filters.</p>
{{else}}<table class="modern-table">
<thead><tr><th>State</th><th>Sales</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Key}}</td><td>{{amount .Value}}</td></tr>
{{end}}</tbody>
</table>{{end}}
</section>{{end}}

{{define "exports"}}<div id="exports" class="exports">
<p><a href="/export/orders.csv?{{.Query}}">⬇️ Download filtered CSV</a></p>
<p><a href="/export/dashboard.xlsx?{{.Query}}">⬇️ Download workbook</a></p>
</div>{{end}}

{{define "notice"}}<div id="notice" class="notice{{if .}} error{{end}}">{{.}}</div>{{end}}

{{define "preview"}}<section id="preview" class="preview">
<p>{{count .Total}} rows match; showing {{len .Rows}}.</p>
<table class="modern-table">
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range $row := .Rows}}<tr>{{range $.Columns}}<td>{{cell (index $row .)}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</section>{{end}}

{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;display:flex;background:#f8fafc;color:#0f172a}
aside{width:260px;padding:1rem;background:#fff;border-right:1px solid #e2e8f0;min-height:100vh}
aside label{display:block;margin-top:.75rem;font-weight:600}
aside select,aside input{width:100%}
main{flex:1;padding:1rem 2rem}
.kpis{display:grid;grid-template-columns:repeat(4,1fr);gap:1rem}
.metric{background:#fff;border:1px solid #e2e8f0;border-radius:8px;padding:1rem}
.metric .label{display:block;color:#64748b}
.metric .value{font-size:1.6rem;font-weight:700}
.charts{display:grid;grid-template-columns:repeat(2,1fr);gap:1rem;margin-top:1rem}
.chart{background:#fff;border:1px solid #e2e8f0;border-radius:8px;margin:0;padding:.5rem}
.chart img{width:100%}
.notice.error{color:#b91c1c}
.modern-table{border-collapse:collapse;width:100%}
.modern-table td,.modern-table th{border-bottom:1px solid #e2e8f0;padding:.25rem .5rem;text-align:left}
</style>
</head>
<body data-signals='{{.Signals}}'>
<aside data-on-change="@get('/sse/dashboard')">
<h2>🔎 Filters</h2>
<label>Order Date range</label>
<input type="date" data-bind="start" value="{{.Start}}" min="{{.MinDate}}" max="{{.MaxDate}}">
<input type="date" data-bind="end" value="{{.End}}" min="{{.MinDate}}" max="{{.MaxDate}}">
{{range .Filters}}<label>{{.Label}}</label>
<select multiple data-bind="{{.Signal}}">
{{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>
{{end}}</select>
{{end}}
{{template "exports" .}}
</aside>
<main>
<h1>📊 {{.Title}}</h1>
<p>{{.Caption}}</p>
{{template "notice" ""}}
{{template "kpis" .Dashboard.KPIs}}
{{template "charts" .}}
{{template "state" .Dashboard.SalesByState}}
<details data-on-toggle="el.open && @get('/sse/preview')">
<summary>See filtered data</summary>
<section id="preview"></section>
</details>
</main>
</body>
</html>{{end}}
`))

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return views.ExecuteTemplate(w, name, data)
	})
}

func Dashboard(data PageData) templ.Component {
	return render("page", data)
}

func KPIs(k models.KPIs) templ.Component {
	return render("kpis", k)
}

type fragmentData struct {
	Charts []ChartSlot
	Query  template.URL
}

// Charts renders the chart grid for an encoded criteria query.
func Charts(query string) templ.Component {
	return render("charts", fragmentData{Charts: DefaultCharts(), Query: template.URL(query)})
}

// Exports renders the download links for an encoded criteria query.
func Exports(query string) templ.Component {
	return render("exports", fragmentData{Query: template.URL(query)})
}

func StateTable(t models.Table[models.KeyValue]) templ.Component {
	return render("state", t)
}

func Notice(message string) templ.Component {
	return render("notice", message)
}

type PreviewData struct {
	Total   int
	Columns []string
	Rows    []map[string]any
}

func Preview(data PreviewData) templ.Component {
	return render("preview", data)
}

// RenderString renders c to a string, the form Datastar patches take.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
