package templates

import (
	"fmt"
	"html/template"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Money formats a whole-dollar amount with thousands separators.
func Money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "$" + printer.Sprintf("%d", int64(math.Round(v)))
}

// Count formats an integer with thousands separators.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

// Percent formats a 0..1 ratio as a percentage with two decimals.
func Percent(v float64) string {
	return printer.Sprintf("%.2f%%", v*100)
}

// Amount formats a table value with two decimals and separators.
func Amount(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// Cell formats one preview table value. Missing values are blank.
func Cell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return Amount(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

var funcs = template.FuncMap{
	"cell":    Cell,
	"money":   Money,
	"count":   Count,
	"percent": Percent,
	"amount":  Amount,
}
