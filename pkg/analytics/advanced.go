package analytics

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// Segment quantile cut points.
const (
	highTierQuantile   = 0.8
	mediumTierQuantile = 0.4
	highTierTopN       = 5
)

// Advanced runs the named analysis.
func (f *Frame) Advanced(analysisType string) (Result, error) {
	switch analysisType {
	case AnalysisComprehensive:
		return f.Comprehensive(), nil
	case AnalysisCustomerSegmentation:
		return f.CustomerSegmentation(), nil
	case AnalysisProductPerformance:
		return f.ProductPerformance(), nil
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownAnalysisType, analysisType)
}

// Comprehensive combines overview, customer, product, financial and time figures.
func (f *Frame) Comprehensive() Result {
	customers := f.customerRevenue()
	topCustomer, topCustomerRevenue, hasCustomer := customers.top()
	topByQuantity, _, hasQuantity := f.productSales().top()
	topByRevenue, _, hasRevenue := f.productRevenue().top()
	_, pending := f.settled(models.Order.Unpaid)
	_, completed := f.settled(models.Order.Paid)
	total := money(f.totalRevenue())

	categories := newCounter()
	for _, r := range f.Rows {
		categories.add(r.Category())
	}

	return Result{
		"business_overview": map[string]any{
			"total_customers":       len(f.Data.Customers),
			"total_orders":          len(f.Data.Orders),
			"total_revenue":         total,
			"average_order_value":   f.averageOrderValue(),
			"order_completion_rate": f.completionRate(),
		},
		"customer_analysis": map[string]any{
			"premium_customers":         f.countByType(models.CustomerPremium),
			"standard_customers":        f.countByType(models.CustomerStandard),
			"top_customer_by_revenue":   valueOrNil(topCustomer, hasCustomer),
			"top_customer_revenue":      topCustomerRevenue,
			"average_customer_spending": customers.mean(),
		},
		"product_analysis": map[string]any{
			"total_products":          len(f.Data.PriceList),
			"top_product_by_quantity": valueOrNil(topByQuantity, hasQuantity),
			"top_product_by_revenue":  valueOrNil(topByRevenue, hasRevenue),
			"category_distribution":   categories.ranked(0),
			"average_product_price":   f.priceStats().average,
		},
		"financial_analysis": map[string]any{
			"total_revenue":       total,
			"pending_revenue":     money(pending),
			"completed_revenue":   money(completed),
			"revenue_by_category": f.categoryRevenue().byKey(),
		},
		"time_analysis": f.timeAnalysis(),
	}
}

func (f *Frame) timeAnalysis() map[string]any {
	recent := 0
	var oldest, newest *models.Date
	for i := range f.Data.Orders {
		d := &f.Data.Orders[i].CreatedAt
		if !d.Valid() {
			continue
		}
		if !d.Time.Before(f.Settings.RecentOrdersSince) {
			recent++
		}
		if oldest == nil || d.Before(*oldest) {
			oldest = d
		}
		if newest == nil || newest.Before(*d) {
			newest = d
		}
	}
	out := map[string]any{
		"recent_orders":       recent,
		"recent_orders_since": f.Settings.RecentOrdersSince.Format(dayLayout),
		"oldest_order":        nil,
		"newest_order":        nil,
	}
	if oldest != nil {
		out["oldest_order"] = *oldest
		out["newest_order"] = *newest
	}
	return out
}

// CustomerMetrics aggregates one customer's joined lines.
type CustomerMetrics struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	TotalSpent   float64 `json:"total_spent"`
	TotalItems   int     `json:"total_items"`
	AvgItemPrice float64 `json:"avg_item_price"`
	UniqueOrders int     `json:"unique_orders"`
}

// customerMetrics returns one entry per customer table row, including
// customers without lines, sorted by total spent descending.
func (f *Frame) customerMetrics() []CustomerMetrics {
	spent := newLedger()
	items := newCounter()
	orders := newDistinct()
	for _, r := range f.Rows {
		spent.add(r.Customer.ID, r.Revenue())
		items.add(r.Customer.ID)
		orders.add(r.Customer.ID, r.Order.ID)
	}

	seen := map[string]bool{}
	metrics := make([]CustomerMetrics, 0, len(f.Data.Customers))
	for _, c := range f.Data.Customers {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		total := spent.sums[c.ID]
		n := items.counts[c.ID]
		metrics = append(metrics, CustomerMetrics{
			CustomerID:   c.ID,
			CustomerName: c.Name,
			TotalSpent:   money(total),
			TotalItems:   n,
			AvgItemPrice: ratio(total, n),
			UniqueOrders: orders.count(c.ID),
		})
	}
	slices.SortStableFunc(metrics, func(a, b CustomerMetrics) int {
		return spent.sums[b.CustomerID].Cmp(spent.sums[a.CustomerID])
	})
	return metrics
}

// Tier is a customer segment by spend.
type Tier string

const (
	TierHigh   Tier = "high_value_customers"
	TierMedium Tier = "medium_value_customers"
	TierLow    Tier = "low_value_customers"
)

// SegmentBounds holds the spend quantiles that separate the tiers.
type SegmentBounds struct {
	P40 float64 `json:"p40"`
	P80 float64 `json:"p80"`
}

// TierOf assigns a spend to a tier: high above P80, medium in (P40, P80],
// low at or below P40.
func (b SegmentBounds) TierOf(spent float64) Tier {
	switch {
	case spent > b.P80:
		return TierHigh
	case spent > b.P40:
		return TierMedium
	}
	return TierLow
}

// Segment partitions customers into tiers. Every customer lands in exactly one tier.
func Segment(metrics []CustomerMetrics) (SegmentBounds, map[Tier][]CustomerMetrics) {
	spends := make([]float64, len(metrics))
	for i, m := range metrics {
		spends[i] = m.TotalSpent
	}
	bounds := SegmentBounds{
		P40: Quantile(spends, mediumTierQuantile),
		P80: Quantile(spends, highTierQuantile),
	}
	tiers := map[Tier][]CustomerMetrics{}
	for _, m := range metrics {
		t := bounds.TierOf(m.TotalSpent)
		tiers[t] = append(tiers[t], m)
	}
	return bounds, tiers
}

// CustomerSegmentation splits customers into high, medium and low spend tiers.
func (f *Frame) CustomerSegmentation() Result {
	metrics := f.customerMetrics()
	bounds, tiers := Segment(metrics)

	segments := orderedmap.New[string, map[string]any]()
	for _, tier := range []Tier{TierHigh, TierMedium, TierLow} {
		members := tiers[tier]
		sum := decimal.Zero
		for _, m := range members {
			sum = sum.Add(decimal.NewFromFloat(m.TotalSpent))
		}
		seg := map[string]any{
			"count":        len(members),
			"percentage":   percent(len(members), len(metrics)),
			"avg_spending": ratio(sum, len(members)),
		}
		if tier == TierHigh {
			top := members
			if len(top) > highTierTopN {
				top = top[:highTierTopN]
			}
			seg["top_customers"] = append([]CustomerMetrics{}, top...)
		}
		segments.Set(string(tier), seg)
	}

	return Result{
		"customer_segments": segments,
		"total_customers":   len(metrics),
		"thresholds": SegmentBounds{
			P40: Round2(bounds.P40),
			P80: Round2(bounds.P80),
		},
	}
}

// ProductMetrics aggregates one product's joined lines.
type ProductMetrics struct {
	TotalRevenue  float64 `json:"total_revenue"`
	TotalQuantity int     `json:"total_quantity"`
	AvgPrice      float64 `json:"avg_price"`
	UniqueOrders  int     `json:"unique_orders"`
}

// ProductPerformance ranks products by revenue and describes prices.
func (f *Frame) ProductPerformance() Result {
	revenue := f.productRevenue()
	sales := f.productSales()
	orders := newDistinct()
	for _, r := range f.Rows {
		orders.add(r.ProductName(), r.Order.ID)
	}

	byRevenue := orderedmap.New[string, ProductMetrics]()
	for _, name := range truncate(revenue.rankedKeys(), f.Settings.topN()) {
		n := sales.counts[name]
		byRevenue.Set(name, ProductMetrics{
			TotalRevenue:  money(revenue.sums[name]),
			TotalQuantity: n,
			AvgPrice:      ratio(revenue.sums[name], n),
			UniqueOrders:  orders.count(name),
		})
	}

	stats := f.priceStats()
	return Result{"product_performance": map[string]any{
		"top_products_by_revenue":  byRevenue,
		"top_products_by_quantity": sales.ranked(f.Settings.topN()),
		"category_performance":     f.categoryRevenue().ranked(0),
		"price_analysis": map[string]any{
			"highest_price": stats.highest,
			"lowest_price":  stats.lowest,
			"average_price": stats.average,
			"median_price":  stats.median,
		},
	}}
}
