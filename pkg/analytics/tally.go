package analytics

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Round2 rounds a monetary amount to cents, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// ratio returns num/den rounded to cents, or 0 when den is 0.
func ratio(num decimal.Decimal, den int) float64 {
	if den == 0 {
		return 0
	}
	return money(num.Div(decimal.NewFromInt(int64(den))))
}

// percent returns part/whole*100 rounded to 2 places, or 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return money(decimal.NewFromInt(int64(part)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(whole))))
}

// ledger sums money per key and remembers first-seen key order.
type ledger struct {
	order []string
	sums  map[string]decimal.Decimal
}

func newLedger() *ledger {
	return &ledger{sums: map[string]decimal.Decimal{}}
}

func (l *ledger) add(key string, amount float64) {
	cur, ok := l.sums[key]
	if !ok {
		l.order = append(l.order, key)
	}
	l.sums[key] = cur.Add(decimal.NewFromFloat(amount))
}

func (l *ledger) len() int { return len(l.order) }

func (l *ledger) total() decimal.Decimal {
	sum := decimal.Zero
	for _, k := range l.order {
		sum = sum.Add(l.sums[k])
	}
	return sum
}

// mean is the average per key, rounded to cents.
func (l *ledger) mean() float64 {
	return ratio(l.total(), l.len())
}

// rankedKeys orders keys by descending amount; ties keep first-seen order.
func (l *ledger) rankedKeys() []string {
	keys := slices.Clone(l.order)
	slices.SortStableFunc(keys, func(a, b string) int {
		return l.sums[b].Cmp(l.sums[a])
	})
	return keys
}

// ranked returns up to limit keys by descending amount. limit <= 0 means all.
func (l *ledger) ranked(limit int) *orderedmap.OrderedMap[string, float64] {
	return l.emit(truncate(l.rankedKeys(), limit))
}

// byKey returns every key in ascending key order.
func (l *ledger) byKey() *orderedmap.OrderedMap[string, float64] {
	keys := slices.Clone(l.order)
	slices.SortFunc(keys, strings.Compare)
	return l.emit(keys)
}

func (l *ledger) emit(keys []string) *orderedmap.OrderedMap[string, float64] {
	out := orderedmap.New[string, float64]()
	for _, k := range keys {
		out.Set(k, money(l.sums[k]))
	}
	return out
}

// top returns the key with the largest amount.
func (l *ledger) top() (string, float64, bool) {
	keys := l.rankedKeys()
	if len(keys) == 0 {
		return "", 0, false
	}
	return keys[0], money(l.sums[keys[0]]), true
}

// counter counts occurrences per key and remembers first-seen key order.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(key string) {
	c.addN(key, 1)
}

func (c *counter) addN(key string, n int) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
}

func (c *counter) rankedKeys() []string {
	keys := slices.Clone(c.order)
	slices.SortStableFunc(keys, func(a, b string) int {
		return c.counts[b] - c.counts[a]
	})
	return keys
}

// ranked returns up to limit keys by descending count. limit <= 0 means all.
func (c *counter) ranked(limit int) *orderedmap.OrderedMap[string, int] {
	out := orderedmap.New[string, int]()
	for _, k := range truncate(c.rankedKeys(), limit) {
		out.Set(k, c.counts[k])
	}
	return out
}

func (c *counter) top() (string, int, bool) {
	keys := c.rankedKeys()
	if len(keys) == 0 {
		return "", 0, false
	}
	return keys[0], c.counts[keys[0]], true
}

// distinct counts distinct values per key.
type distinct struct {
	order []string
	seen  map[string]map[string]struct{}
}

func newDistinct() *distinct {
	return &distinct{seen: map[string]map[string]struct{}{}}
}

func (d *distinct) add(key, value string) {
	set, ok := d.seen[key]
	if !ok {
		set = map[string]struct{}{}
		d.seen[key] = set
		d.order = append(d.order, key)
	}
	set[value] = struct{}{}
}

func (d *distinct) count(key string) int {
	return len(d.seen[key])
}

func (d *distinct) counter() *counter {
	c := newCounter()
	for _, k := range d.order {
		c.addN(k, len(d.seen[k]))
	}
	return c
}

func truncate(keys []string, limit int) []string {
	if limit > 0 && len(keys) > limit {
		return keys[:limit]
	}
	return keys
}

// valueOrNil turns a missing winner into JSON null.
func valueOrNil(key string, ok bool) any {
	if !ok {
		return nil
	}
	return key
}
