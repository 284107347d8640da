package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order. Values without a zone are read as UTC.
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
}

// Date keeps the source text of a date column next to its parsed value.
// Time is zero when Raw is empty or unparseable.
type Date struct {
	Raw  string
	Time time.Time
}

// ParseDate parses s with the known layouts. An empty string yields the zero
// Date without error.
func ParseDate(s string) (Date, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Date{Raw: raw, Time: t.UTC()}, nil
		}
	}
	return Date{Raw: raw}, fmt.Errorf("unrecognized date %q", raw)
}

// NewDate builds a Date from a time, rendering Raw as YYYY-MM-DD.
func NewDate(t time.Time) Date {
	t = t.UTC()
	return Date{Raw: t.Format(time.DateOnly), Time: t}
}

// Valid reports whether the date was parsed.
func (d Date) Valid() bool { return !d.Time.IsZero() }

// Before orders valid dates chronologically and puts invalid ones first.
func (d Date) Before(o Date) bool {
	switch {
	case !d.Valid():
		return o.Valid()
	case !o.Valid():
		return false
	}
	return d.Time.Before(o.Time)
}

// String returns the source text.
func (d Date) String() string { return d.Raw }

// MarshalJSON writes the source text, or null when the column was empty.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(d.Raw)
}
