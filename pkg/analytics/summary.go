package analytics

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DataSummary is the dashboard bundle served by GET /data/summary.
type DataSummary struct {
	TotalCustomers  int     `json:"total_customers"`
	TotalOrders     int     `json:"total_orders"`
	TotalOrderItems int     `json:"total_order_items"`
	TotalProducts   int     `json:"total_products"`
	TotalRevenue    float64 `json:"total_revenue"`
	AvgOrderValue   float64 `json:"avg_order_value"`

	// Single-entry maps of name to joined line count; empty without rows.
	TopCustomerByOrders *orderedmap.OrderedMap[string, int] `json:"top_customer_by_orders"`
	TopProductBySales   *orderedmap.OrderedMap[string, int] `json:"top_product_by_sales"`
}

// Summary computes the dashboard bundle.
func (f *Frame) Summary() DataSummary {
	byCustomer := newCounter()
	for _, r := range f.Rows {
		byCustomer.add(r.Customer.Name)
	}
	return DataSummary{
		TotalCustomers:      len(f.Data.Customers),
		TotalOrders:         len(f.Data.Orders),
		TotalOrderItems:     len(f.Data.OrderLines),
		TotalProducts:       len(f.Data.PriceList),
		TotalRevenue:        money(f.totalRevenue()),
		AvgOrderValue:       f.averageOrderValue(),
		TopCustomerByOrders: byCustomer.ranked(1),
		TopProductBySales:   f.productSales().ranked(1),
	}
}

// Result flattens the summary for the query endpoint.
func (s DataSummary) Result() Result {
	return Result{
		"total_customers":        s.TotalCustomers,
		"total_orders":           s.TotalOrders,
		"total_order_items":      s.TotalOrderItems,
		"total_products":         s.TotalProducts,
		"total_revenue":          s.TotalRevenue,
		"avg_order_value":        s.AvgOrderValue,
		"top_customer_by_orders": s.TopCustomerByOrders,
		"top_product_by_sales":   s.TopProductBySales,
	}
}

// TopCustomerName returns the customer with the most lines, or "N/A".
func (s DataSummary) TopCustomerName() string {
	return firstKey(s.TopCustomerByOrders)
}

// TopProductName returns the product with the most lines, or "N/A".
func (s DataSummary) TopProductName() string {
	return firstKey(s.TopProductBySales)
}

func firstKey(m *orderedmap.OrderedMap[string, int]) string {
	if m == nil || m.Len() == 0 {
		return "N/A"
	}
	return m.Oldest().Key
}
