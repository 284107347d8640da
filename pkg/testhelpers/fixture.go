// Package testhelpers provides fixtures and containers for testing ekaya-insights components.
package testhelpers

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// FixtureNow is the reference clock for fixture-based tests: Tuesday 2025-02-25 15:00 UTC.
var FixtureNow = time.Date(2025, 2, 25, 15, 0, 0, 0, time.UTC)

type customerRow struct{ id, name, typ, first string }
type orderRow struct{ id, cid, status, pif, subtotal, indate string }
type lineRow struct{ iid, item, total string }
type itemRow struct{ id, name, category, price string }

// Ten customers; C9 and C10 never ordered.
var fixtureCustomers = []customerRow{
	{"C1", "Alice Ng", "Premium", "2023-01-15"},
	{"C2", "Bob Ortiz", "Standard", "2023-03-02"},
	{"C3", "Carmen Diaz", "Premium", "2023-06-20"},
	{"C4", "Dev Patel", "Standard", "2024-01-05"},
	{"C5", "Erin Walsh", "Standard", "2024-02-11"},
	{"C6", "Farid Haddad", "Premium", "2024-04-30"},
	{"C7", "Grace Kim", "Standard", "2024-07-19"},
	{"C8", "Hugo Lambert", "Standard", "2024-09-01"},
	{"C9", "Ines Costa", "Premium", "2024-11-23"},
	{"C10", "Jonas Berg", "Standard", "2025-01-08"},
}

// O9 belongs to a customer that does not exist.
var fixtureOrders = []orderRow{
	{"O1", "C1", "Completed", "Y", "33.50", "2024-11-05"},
	{"O2", "C1", "Completed", "Y", "40.00", "2024-12-10"},
	{"O3", "C2", "Completed", "Y", "15.00", "2024-11-20"},
	{"O4", "C3", "Processing", "N", "37.00", "2024-12-15"},
	{"O5", "C4", "Completed", "Y", "7.00", "2025-01-10"},
	{"O6", "C5", "Processing", "N", "25.00", "2025-01-22"},
	{"O7", "C6", "Completed", "Y", "20.00", "2025-02-03"},
	{"O8", "C7", "Ready", "N", "12.00", "2025-02-14"},
	{"O9", "C99", "Completed", "Y", "10.00", "2025-02-20"},
	{"O10", "C8", "Completed", "Y", "3.50", "2025-02-25"},
}

// The last three lines dangle: unknown customer, unknown order, unknown item.
var fixtureLines = []lineRow{
	{"O1", "P2", "15.00"},
	{"O1", "P1", "3.50"},
	{"O1", "P2", "15.00"},
	{"O2", "P4", "20.00"},
	{"O2", "P4", "20.00"},
	{"O3", "P2", "15.00"},
	{"O4", "P3", "12.00"},
	{"O4", "P5", "25.00"},
	{"O5", "P1", "3.50"},
	{"O5", "P1", "3.50"},
	{"O6", "P5", "25.00"},
	{"O7", "P4", "20.00"},
	{"O8", "P3", "12.00"},
	{"O9", "P1", "10.00"},
	{"O10", "P1", "3.50"},
	{"O11", "P1", "3.50"},
	{"O3", "P77", "9.99"},
}

var fixtureItems = []itemRow{
	{"P1", "Shirt Laundry", "Laundry", "3.50"},
	{"P2", "Suit", "Dry Clean", "15.00"},
	{"P3", "Dress", "Dry Clean", "12.00"},
	{"P4", "Alterations", "Tailoring", "20.00"},
	{"P5", "Duvet Wash", "Laundry", "25.00"},
	{"P6", "Leather Care", "Specialty", "40.00"},
}

// Figures derived from the fixture by hand.
const (
	FixtureCustomers        = 10
	FixtureOrders           = 10
	FixtureOrderLines       = 17
	FixtureProducts         = 6
	FixtureJoinedRows       = 14
	FixturePremiumCustomers = 4
	FixtureTotalRevenue     = 193.0
	FixturePendingOrders    = 3
	FixturePendingRevenue   = 74.0
	FixtureCompletedOrders  = 7
	FixtureCompletedRevenue = 129.0
)

// FixtureDataset returns a fresh copy of the fixture tables.
func FixtureDataset() *models.Dataset {
	ds := &models.Dataset{LoadedAt: FixtureNow}
	for _, c := range fixtureCustomers {
		first, _ := models.ParseDate(c.first)
		ds.Customers = append(ds.Customers, models.Customer{
			ID:            c.id,
			Name:          c.name,
			Type:          models.ParseCustomerType(c.typ),
			FirstPurchase: first,
		})
	}
	for _, o := range fixtureOrders {
		created, _ := models.ParseDate(o.indate)
		ds.Orders = append(ds.Orders, models.Order{
			ID:         o.id,
			CustomerID: o.cid,
			Status:     o.status,
			PIF:        o.pif,
			Subtotal:   mustFloat(o.subtotal),
			CreatedAt:  created,
		})
	}
	for i, l := range fixtureLines {
		ds.OrderLines = append(ds.OrderLines, models.OrderLine{
			Row:        i,
			OrderID:    l.iid,
			ItemID:     l.item,
			TotalPrice: mustFloat(l.total),
		})
	}
	for _, p := range fixtureItems {
		ds.PriceList = append(ds.PriceList, models.PriceListItem{
			ID:        p.id,
			Name:      p.name,
			Category:  p.category,
			UnitPrice: mustFloat(p.price),
		})
	}
	return ds
}

// EmptyDataset returns a complete dataset with no rows.
func EmptyDataset() *models.Dataset {
	return &models.Dataset{LoadedAt: FixtureNow}
}

// WriteFixtureCSV writes the fixture as Customer.csv, Inventory.csv,
// Detail.csv and Pricelist.csv into dir.
func WriteFixtureCSV(t *testing.T, dir string) {
	t.Helper()

	customers := [][]string{{"CID", "Customer_Name", "Customer_Type", "FIRSTDATE"}}
	for _, c := range fixtureCustomers {
		customers = append(customers, []string{c.id, c.name, c.typ, c.first})
	}
	orders := [][]string{{"IID", "CID", "Status", "PIF", "SUBTOTAL", "INDATE"}}
	for _, o := range fixtureOrders {
		orders = append(orders, []string{o.id, o.cid, o.status, o.pif, o.subtotal, o.indate})
	}
	lines := [][]string{{"IID", "price_table_item_id", "Total_Price"}}
	for _, l := range fixtureLines {
		lines = append(lines, []string{l.iid, l.item, l.total})
	}
	items := [][]string{{"price_table_item_id", "Product_Name", "Category", "Unit_Price"}}
	for _, p := range fixtureItems {
		items = append(items, []string{p.id, p.name, p.category, p.price})
	}

	writeCSV(t, filepath.Join(dir, "Customer.csv"), customers)
	writeCSV(t, filepath.Join(dir, "Inventory.csv"), orders)
	writeCSV(t, filepath.Join(dir, "Detail.csv"), lines)
	writeCSV(t, filepath.Join(dir, "Pricelist.csv"), items)
}

// FixtureTables returns the fixture as header-plus-rows string tables keyed
// by default SQL table name, for seeding databases.
func FixtureTables() map[string][][]string {
	return map[string][][]string{
		"customer":  customerRows(),
		"inventory": orderRows(),
		"detail":    lineRows(),
		"pricelist": itemRows(),
	}
}

func customerRows() [][]string {
	rows := [][]string{{"cid", "customer_name", "customer_type", "firstdate"}}
	for _, c := range fixtureCustomers {
		rows = append(rows, []string{c.id, c.name, c.typ, c.first})
	}
	return rows
}

func orderRows() [][]string {
	rows := [][]string{{"iid", "cid", "status", "pif", "subtotal", "indate"}}
	for _, o := range fixtureOrders {
		rows = append(rows, []string{o.id, o.cid, o.status, o.pif, o.subtotal, o.indate})
	}
	return rows
}

func lineRows() [][]string {
	rows := [][]string{{"iid", "price_table_item_id", "total_price"}}
	for _, l := range fixtureLines {
		rows = append(rows, []string{l.iid, l.item, l.total})
	}
	return rows
}

func itemRows() [][]string {
	rows := [][]string{{"price_table_item_id", "product_name", "category", "unit_price"}}
	for _, p := range fixtureItems {
		rows = append(rows, []string{p.id, p.name, p.category, p.price})
	}
	return rows
}

func writeCSV(t *testing.T, path string, records [][]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func mustFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		panic(err)
	}
	return v
}
