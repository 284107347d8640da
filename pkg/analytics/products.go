package analytics

import (
	"slices"

	"github.com/shopspring/decimal"
)

// ListProducts returns every price list row.
func (f *Frame) ListProducts() Result {
	out := make([]map[string]any, 0, len(f.Data.PriceList))
	for _, p := range f.Data.PriceList {
		out = append(out, p.Record())
	}
	return Result{"products": out}
}

func (f *Frame) productRevenue() *ledger {
	l := newLedger()
	for _, r := range f.Rows {
		l.add(r.ProductName(), r.Revenue())
	}
	return l
}

// productSales counts joined lines per product name.
func (f *Frame) productSales() *counter {
	c := newCounter()
	for _, r := range f.Rows {
		c.add(r.ProductName())
	}
	return c
}

func (f *Frame) categoryRevenue() *ledger {
	l := newLedger()
	for _, r := range f.Rows {
		l.add(r.Category(), r.Revenue())
	}
	return l
}

// TopProductsByRevenue ranks products by summed line revenue.
func (f *Frame) TopProductsByRevenue() Result {
	return Result{"top_products_by_revenue": f.productRevenue().ranked(f.Settings.topN())}
}

// TopProductsByQuantity ranks products by number of order lines.
func (f *Frame) TopProductsByQuantity() Result {
	return Result{"top_products_by_quantity": f.productSales().ranked(f.Settings.topN())}
}

// CategoryRevenue ranks categories by revenue.
func (f *Frame) CategoryRevenue() Result {
	return Result{"category_revenue": f.categoryRevenue().ranked(0)}
}

// CategoryDistribution counts order lines per category.
func (f *Frame) CategoryDistribution() Result {
	c := newCounter()
	for _, r := range f.Rows {
		c.add(r.Category())
	}
	return Result{"category_distribution": c.ranked(0)}
}

// lineTotals returns joined line totals in ascending order.
func (f *Frame) lineTotals() []float64 {
	vals := make([]float64, len(f.Rows))
	for i, r := range f.Rows {
		vals[i] = r.Revenue()
	}
	slices.Sort(vals)
	return vals
}

type priceStats struct {
	highest, lowest, average, median float64
}

// priceStats describes line totals. All fields are zero without rows.
func (f *Frame) priceStats() priceStats {
	vals := f.lineTotals()
	if len(vals) == 0 {
		return priceStats{}
	}
	sum := decimal.Zero
	for _, v := range vals {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return priceStats{
		highest: Round2(vals[len(vals)-1]),
		lowest:  Round2(vals[0]),
		average: ratio(sum, len(vals)),
		median:  Round2(Quantile(vals, 0.5)),
	}
}

// AverageProductPrice is the mean line total.
func (f *Frame) AverageProductPrice() Result {
	return Result{"average_product_price": f.priceStats().average}
}

// HighestProductPrice is the largest line total.
func (f *Frame) HighestProductPrice() Result {
	return Result{"highest_product_price": f.priceStats().highest}
}

// LowestProductPrice is the smallest line total.
func (f *Frame) LowestProductPrice() Result {
	return Result{"lowest_product_price": f.priceStats().lowest}
}

// PriceStatistics returns average, highest and lowest line totals together.
func (f *Frame) PriceStatistics() Result {
	s := f.priceStats()
	return Result{
		"average_product_price": s.average,
		"highest_product_price": s.highest,
		"lowest_product_price":  s.lowest,
	}
}
