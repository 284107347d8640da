package analytics

import (
	"slices"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// customerRevenue sums joined line totals per customer name.
func (f *Frame) customerRevenue() *ledger {
	l := newLedger()
	for _, r := range f.Rows {
		l.add(r.Customer.Name, r.Revenue())
	}
	return l
}

// ListCustomers returns every customer row.
func (f *Frame) ListCustomers() Result {
	return Result{"customers": customerRecords(f.Data.Customers, "")}
}

// ListCustomersByType returns customers of one type under "premium_customers"
// or "standard_customers".
func (f *Frame) ListCustomersByType(t models.CustomerType) Result {
	key := "premium_customers"
	if t == models.CustomerStandard {
		key = "standard_customers"
	}
	return Result{key: customerRecords(f.Data.Customers, t)}
}

func customerRecords(customers []models.Customer, only models.CustomerType) []map[string]any {
	out := make([]map[string]any, 0, len(customers))
	for _, c := range customers {
		if only != "" && c.Type != only {
			continue
		}
		out = append(out, c.Record())
	}
	return out
}

// CustomerCount is the number of rows in the customer table.
func (f *Frame) CustomerCount() Result {
	return Result{"total_customers": len(f.Data.Customers)}
}

// TopCustomersByRevenue ranks customers by summed line revenue.
func (f *Frame) TopCustomersByRevenue() Result {
	return Result{"top_customers_by_revenue": f.customerRevenue().ranked(f.Settings.topN())}
}

// TopCustomersByOrders ranks customers by distinct order count.
func (f *Frame) TopCustomersByOrders() Result {
	orders := newDistinct()
	for _, r := range f.Rows {
		orders.add(r.Customer.Name, r.Order.ID)
	}
	return Result{"top_customers_by_orders": orders.counter().ranked(f.Settings.topN())}
}

// AverageCustomerSpending is the mean total spend of customers with at least one line.
func (f *Frame) AverageCustomerSpending() Result {
	return Result{"average_customer_spending": f.customerRevenue().mean()}
}

// RecentCustomers returns the newest customers by first purchase date.
// Customers without a readable date sort last.
func (f *Frame) RecentCustomers() Result {
	customers := slices.Clone(f.Data.Customers)
	slices.SortStableFunc(customers, func(a, b models.Customer) int {
		switch {
		case b.FirstPurchase.Before(a.FirstPurchase):
			return -1
		case a.FirstPurchase.Before(b.FirstPurchase):
			return 1
		}
		return 0
	})
	if n := f.Settings.topN(); len(customers) > n {
		customers = customers[:n]
	}
	return Result{"recent_customers": customerRecords(customers, "")}
}

// CustomerRevenue is the full revenue-by-customer breakdown.
func (f *Frame) CustomerRevenue() Result {
	return Result{"customer_revenue": f.customerRevenue().ranked(0)}
}

// countByType counts customer table rows of type t.
func (f *Frame) countByType(t models.CustomerType) int {
	n := 0
	for _, c := range f.Data.Customers {
		if c.Type == t {
			n++
		}
	}
	return n
}
