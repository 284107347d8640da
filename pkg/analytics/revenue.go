package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
)

// Bucket layouts.
const (
	monthLayout = "2006-01"
	dayLayout   = time.DateOnly
)

// revenueBy sums joined revenue per order-date bucket. Rows without a
// readable order date are skipped.
func (f *Frame) revenueBy(layout string) *ledger {
	l := newLedger()
	for _, r := range f.Rows {
		d := r.OrderDate()
		if !d.Valid() {
			continue
		}
		l.add(d.Time.Format(layout), r.Revenue())
	}
	return l
}

// MonthlyRevenue sums revenue per calendar month, keyed YYYY-MM in ascending order.
func (f *Frame) MonthlyRevenue() Result {
	return Result{"monthly_revenue": f.revenueBy(monthLayout).byKey()}
}

// DailyRevenue sums revenue per calendar day, keyed YYYY-MM-DD in ascending order.
func (f *Frame) DailyRevenue() Result {
	return Result{"daily_revenue": f.revenueBy(dayLayout).byKey()}
}

// GrowthRate compares the last monthly bucket with the first:
// (last - first) / first * 100. It needs at least two months and a non-zero
// first month, otherwise it returns apperrors.ErrInsufficientData.
func (f *Frame) GrowthRate() (float64, error) {
	months := f.revenueBy(monthLayout).byKey()
	if months.Len() < 2 {
		return 0, fmt.Errorf("%w: growth needs at least two months of revenue, have %d", apperrors.ErrInsufficientData, months.Len())
	}
	first := months.Oldest().Value
	last := months.Newest().Value
	if first == 0 {
		return 0, fmt.Errorf("%w: first month has no revenue", apperrors.ErrInsufficientData)
	}
	a, b := decimal.NewFromFloat(first), decimal.NewFromFloat(last)
	return money(b.Sub(a).Div(a).Mul(decimal.NewFromInt(100))), nil
}

// RevenueGrowth reports GrowthRate. Insufficient data is a result, not an error.
func (f *Frame) RevenueGrowth() Result {
	rate, err := f.GrowthRate()
	if err != nil {
		return Result{
			"revenue_growth_rate": nil,
			"insufficient_data":   true,
			"message":             err.Error(),
		}
	}
	return Result{"revenue_growth_rate": rate}
}

// Window is a named calendar period relative to now.
type Window string

const (
	WindowToday     Window = "today"
	WindowYesterday Window = "yesterday"
	WindowThisWeek  Window = "this_week"
	WindowThisMonth Window = "this_month"
	WindowThisYear  Window = "this_year"
)

// Bounds returns [start, end) for the window. Order dates carry no zone, so
// now's wall clock is read as UTC. Weeks start on Monday. Open-ended windows
// return the zero end.
func (w Window) Bounds(now time.Time) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch w {
	case WindowYesterday:
		return midnight.AddDate(0, 0, -1), midnight
	case WindowThisWeek:
		offset := (int(midnight.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset), time.Time{}
	case WindowThisMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), time.Time{}
	case WindowThisYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), time.Time{}
	}
	return midnight, midnight.AddDate(0, 0, 1)
}

func (w Window) contains(start, end, t time.Time) bool {
	if t.Before(start) {
		return false
	}
	return end.IsZero() || t.Before(end)
}

// PeriodStats counts lines, revenue and distinct customers whose order date
// falls inside the window.
func (f *Frame) PeriodStats(w Window) Result {
	start, end := w.Bounds(f.Now)
	lines := 0
	revenue := decimal.Zero
	customers := map[string]struct{}{}
	for _, r := range f.Rows {
		d := r.OrderDate()
		if !d.Valid() || !w.contains(start, end, d.Time) {
			continue
		}
		lines++
		revenue = revenue.Add(decimal.NewFromFloat(r.Revenue()))
		customers[r.Customer.Name] = struct{}{}
	}
	return Result{
		"period":           string(w),
		"period_orders":    lines,
		"period_revenue":   money(revenue),
		"period_customers": len(customers),
	}
}

// BusinessInsights bundles the headline figures.
func (f *Frame) BusinessInsights() Result {
	topCustomer, _, hasCustomer := f.customerRevenue().top()
	topProduct, _, hasProduct := f.productSales().top()
	return Result{"business_insights": map[string]any{
		"total_customers":       len(f.Data.Customers),
		"total_orders":          len(f.Data.Orders),
		"total_revenue":         money(f.totalRevenue()),
		"average_order_value":   f.averageOrderValue(),
		"top_customer":          valueOrNil(topCustomer, hasCustomer),
		"top_product":           valueOrNil(topProduct, hasProduct),
		"order_completion_rate": f.completionRate(),
	}}
}
