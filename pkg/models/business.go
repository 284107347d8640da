// Package models contains domain types for ekaya-insights.
package models

import (
	"strings"
)

// CustomerType classifies a customer account.
type CustomerType string

const (
	CustomerPremium  CustomerType = "Premium"
	CustomerStandard CustomerType = "Standard"
)

// ParseCustomerType normalizes a raw type value. Unknown values are kept verbatim.
func ParseCustomerType(raw string) CustomerType {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "premium":
		return CustomerPremium
	case "standard":
		return CustomerStandard
	}
	return CustomerType(v)
}

// Customer is one row of the customer table.
type Customer struct {
	ID            string
	Name          string
	Type          CustomerType
	FirstPurchase Date

	// Attributes holds columns that have no dedicated field.
	Attributes map[string]string
}

// Record returns the customer as a flat column map, unmapped columns included.
func (c Customer) Record() map[string]any {
	rec := attributeRecord(c.Attributes)
	rec["CID"] = c.ID
	rec["Customer_Name"] = c.Name
	rec["Customer_Type"] = string(c.Type)
	rec["FIRSTDATE"] = c.FirstPurchase
	return rec
}

// Paid-in-full flag values.
const (
	PaidInFullYes = "Y"
	PaidInFullNo  = "N"
)

// Order is one row of the order ("Inventory") table.
type Order struct {
	ID         string
	CustomerID string
	Status     string
	// PIF is the paid-in-full flag, normalized to upper case.
	PIF       string
	Subtotal  float64
	CreatedAt Date
	// Category is the order-level category some exports carry.
	Category string

	Attributes map[string]string
}

// Paid reports whether the order is settled.
func (o Order) Paid() bool { return o.PIF == PaidInFullYes }

// Unpaid reports whether the order still has a balance.
func (o Order) Unpaid() bool { return o.PIF == PaidInFullNo }

// OrderLine is one row of the detail table. Lines have no id of their own.
type OrderLine struct {
	Row        int
	OrderID    string
	ItemID     string
	ItemName   string
	TotalPrice float64

	Attributes map[string]string
}

// PriceListItem is one row of the price list.
type PriceListItem struct {
	ID        string
	Name      string
	Category  string
	UnitPrice float64

	Attributes map[string]string
}

// Record returns the item as a flat column map, unmapped columns included.
func (p PriceListItem) Record() map[string]any {
	rec := attributeRecord(p.Attributes)
	rec["price_table_item_id"] = p.ID
	rec["Product_Name"] = p.Name
	rec["Category"] = p.Category
	rec["Unit_Price"] = p.UnitPrice
	return rec
}

func attributeRecord(attrs map[string]string) map[string]any {
	rec := make(map[string]any, len(attrs)+4)
	for k, v := range attrs {
		rec[k] = v
	}
	return rec
}

// UncategorizedLabel is used when neither the item nor the order names a category.
const UncategorizedLabel = "Uncategorized"

// JoinedRow is one order line with its order, customer and price list item.
// The pointers reference rows of an immutable Dataset and are never nil.
type JoinedRow struct {
	Line     OrderLine
	Order    *Order
	Customer *Customer
	Item     *PriceListItem
}

// Revenue is the line total.
func (r JoinedRow) Revenue() float64 { return r.Line.TotalPrice }

// ProductName prefers the price list name and falls back to the line's own name.
func (r JoinedRow) ProductName() string {
	if r.Item.Name != "" {
		return r.Item.Name
	}
	return r.Line.ItemName
}

// Category prefers the price list category, then the order's.
func (r JoinedRow) Category() string {
	if r.Item.Category != "" {
		return r.Item.Category
	}
	if r.Order.Category != "" {
		return r.Order.Category
	}
	return UncategorizedLabel
}

// OrderDate is the creation date of the owning order.
func (r JoinedRow) OrderDate() Date { return r.Order.CreatedAt }
