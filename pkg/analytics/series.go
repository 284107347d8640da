package analytics

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// RevenueByCustomer returns every customer's revenue, largest first.
func (f *Frame) RevenueByCustomer() *orderedmap.OrderedMap[string, float64] {
	return f.customerRevenue().ranked(0)
}

// RevenueByCategory returns revenue per category in category order.
func (f *Frame) RevenueByCategory() *orderedmap.OrderedMap[string, float64] {
	return f.categoryRevenue().byKey()
}

// StatusCounts returns order counts per status, most frequent first.
func (f *Frame) StatusCounts() *orderedmap.OrderedMap[string, int] {
	return f.statusCounts().ranked(0)
}

// ProductSales returns up to limit products by line count, most frequent first.
func (f *Frame) ProductSales(limit int) *orderedmap.OrderedMap[string, int] {
	return f.productSales().ranked(limit)
}

// CountByType counts customer table rows of type t.
func (f *Frame) CountByType(t models.CustomerType) int {
	return f.countByType(t)
}

// CustomerSpend is one customer's line in the customer report.
type CustomerSpend struct {
	Name       string
	Type       models.CustomerType
	TotalSpent float64
	Lines      int
}

// CustomerSpending groups joined lines by customer name, largest spend first.
func (f *Frame) CustomerSpending() []CustomerSpend {
	spent := f.customerRevenue()
	lines := newCounter()
	types := map[string]models.CustomerType{}
	for _, r := range f.Rows {
		lines.add(r.Customer.Name)
		if _, ok := types[r.Customer.Name]; !ok {
			types[r.Customer.Name] = r.Customer.Type
		}
	}

	out := make([]CustomerSpend, 0, spent.len())
	for _, name := range spent.order {
		out = append(out, CustomerSpend{
			Name:       name,
			Type:       types[name],
			TotalSpent: money(spent.sums[name]),
			Lines:      lines.counts[name],
		})
	}
	slices.SortStableFunc(out, func(a, b CustomerSpend) int {
		return spent.sums[b.Name].Cmp(spent.sums[a.Name])
	})
	return out
}
