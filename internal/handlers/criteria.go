package handlers

import (
	"net/url"
	"strings"
	"time"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
)

const dateLayout = "2006-01-02"

// criteriaParams maps filter dimensions to their query parameter.
var criteriaParams = []struct {
	param string
	col   models.Column
}{
	{"region", models.ColRegion},
	{"category", models.ColCategory},
	{"segment", models.ColSegment},
	{"ship_mode", models.ColShipMode},
}

// ParseCriteria reads start, end and the repeated or comma-separated
// dimension parameters. Absent parameters leave that part unconstrained.
func ParseCriteria(q url.Values) (models.Criteria, error) {
	var c models.Criteria

	start, err := parseDay("start", q.Get("start"))
	if err != nil {
		return c, err
	}
	end, err := parseDay("end", q.Get("end"))
	if err != nil {
		return c, err
	}
	c.Start, c.End = start, end

	for _, p := range criteriaParams {
		setSelection(&c, p.col, splitValues(q[p.param]))
	}
	return c, nil
}

// EncodeCriteria is the inverse of ParseCriteria.
func EncodeCriteria(c models.Criteria) string {
	q := url.Values{}
	if !c.Start.IsZero() {
		q.Set("start", c.Start.Format(dateLayout))
	}
	if !c.End.IsZero() {
		q.Set("end", c.End.Format(dateLayout))
	}
	for _, p := range criteriaParams {
		for _, v := range c.Selection(p.col) {
			q.Add(p.param, v)
		}
	}
	return q.Encode()
}

func parseDay(name, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, errors.ValidationWrap(err, "invalid "+name+" date, expected YYYY-MM-DD")
	}
	return t, nil
}

func splitValues(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, v := range strings.Split(r, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// trimValues drops blank signal values. Signal arrays hold whole values,
// so commas are kept.
func trimValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func setSelection(c *models.Criteria, col models.Column, values []string) {
	switch col {
	case models.ColRegion:
		c.Regions = values
	case models.ColCategory:
		c.Categories = values
	case models.ColSegment:
		c.Segments = values
	case models.ColShipMode:
		c.ShipModes = values
	}
}

// dashboardSignals is the Datastar signal object the filter form binds.
type dashboardSignals struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	Segments   []string `json:"segments"`
	ShipModes  []string `json:"shipModes"`
}

func (s dashboardSignals) criteria() (models.Criteria, error) {
	var c models.Criteria
	start, err := parseDay("start", s.Start)
	if err != nil {
		return c, err
	}
	end, err := parseDay("end", s.End)
	if err != nil {
		return c, err
	}
	c.Start, c.End = start, end
	c.Regions = trimValues(s.Regions)
	c.Categories = trimValues(s.Categories)
	c.Segments = trimValues(s.Segments)
	c.ShipModes = trimValues(s.ShipModes)
	return c, nil
}
