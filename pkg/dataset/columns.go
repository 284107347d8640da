package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// rawTable is a header plus string rows as read from a file or a SELECT.
type rawTable struct {
	table  models.Table
	header []string
	rows   [][]string
}

// columns resolves column names case-insensitively against a header.
type columns struct {
	index map[string]int
	names []string
	used  map[int]bool
}

func newColumns(header []string) *columns {
	c := &columns{
		index: make(map[string]int, len(header)),
		names: make([]string, len(header)),
		used:  make(map[int]bool),
	}
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		c.names[i] = name
		key := strings.ToLower(name)
		if _, dup := c.index[key]; !dup {
			c.index[key] = i
		}
	}
	return c
}

// find returns the index of the first alias present in the header, or -1.
// Found columns are excluded from the attribute map.
func (c *columns) find(aliases ...string) int {
	for _, a := range aliases {
		if i, ok := c.index[strings.ToLower(a)]; ok {
			c.used[i] = true
			return i
		}
	}
	return -1
}

// require is find for columns the table cannot be decoded without.
func (c *columns) require(table models.Table, aliases ...string) (int, error) {
	i := c.find(aliases...)
	if i < 0 {
		return -1, fmt.Errorf("%s: missing required column %s", table, strings.Join(aliases, " or "))
	}
	return i, nil
}

// attributes collects every column that no field claimed.
func (c *columns) attributes(row []string) map[string]string {
	var attrs map[string]string
	for i, name := range c.names {
		if c.used[i] || name == "" || i >= len(row) {
			continue
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		attrs[name] = row[i]
	}
	return attrs
}

// cell returns row[i] trimmed, or "" when the column is absent.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseNumber reads a numeric cell. Empty cells are zero; currency symbols
// and thousands separators are tolerated. NaN, infinities and anything else
// unparseable are errors.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return v, nil
}
