package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// OrderCount is the number of rows in the order table.
func (f *Frame) OrderCount() Result {
	return Result{"total_orders": len(f.Data.Orders)}
}

// totalRevenue sums every joined line.
func (f *Frame) totalRevenue() decimal.Decimal {
	sum := decimal.Zero
	for _, r := range f.Rows {
		sum = sum.Add(decimal.NewFromFloat(r.Revenue()))
	}
	return sum
}

// TotalRevenue is the sum of all joined line totals.
func (f *Frame) TotalRevenue() Result {
	return Result{"total_revenue": money(f.totalRevenue())}
}

// averageOrderValue sums lines per order, then averages over orders.
func (f *Frame) averageOrderValue() float64 {
	perOrder := newLedger()
	for _, r := range f.Rows {
		perOrder.add(r.Order.ID, r.Revenue())
	}
	return perOrder.mean()
}

// AverageOrderValue is the mean joined revenue per order.
func (f *Frame) AverageOrderValue() Result {
	return Result{"average_order_value": f.averageOrderValue()}
}

func (f *Frame) statusCounts() *counter {
	c := newCounter()
	for _, o := range f.Data.Orders {
		c.add(o.Status)
	}
	return c
}

// OrderStatusDistribution counts orders per status value.
func (f *Frame) OrderStatusDistribution() Result {
	return Result{"order_status_distribution": f.statusCounts().ranked(0)}
}

// settled counts the orders matching keep and sums their subtotals.
func (f *Frame) settled(keep func(models.Order) bool) (int, decimal.Decimal) {
	n, sum := 0, decimal.Zero
	for _, o := range f.Data.Orders {
		if keep(o) {
			n++
			sum = sum.Add(decimal.NewFromFloat(o.Subtotal))
		}
	}
	return n, sum
}

// PendingOrders counts unpaid orders and sums their subtotals.
func (f *Frame) PendingOrders() Result {
	n, sum := f.settled(models.Order.Unpaid)
	return Result{"pending_orders": n, "pending_revenue": money(sum)}
}

// CompletedOrders counts paid orders and sums their subtotals.
func (f *Frame) CompletedOrders() Result {
	n, sum := f.settled(models.Order.Paid)
	return Result{"completed_orders": n, "completed_revenue": money(sum)}
}

// completionRate is the share of orders flagged paid, in percent.
func (f *Frame) completionRate() float64 {
	paid, _ := f.settled(models.Order.Paid)
	return percent(paid, len(f.Data.Orders))
}
