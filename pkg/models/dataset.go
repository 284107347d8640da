package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
)

// Table names one of the four source tables.
type Table string

const (
	TableCustomers  Table = "customers"
	TableOrders     Table = "orders"
	TableOrderLines Table = "order_lines"
	TablePriceList  Table = "price_list"
)

// AllTables lists the source tables in load order.
var AllTables = []Table{TableCustomers, TableOrders, TableOrderLines, TablePriceList}

// Dataset is an immutable snapshot of the four source tables.
// Nothing may modify a Dataset after it has been published to readers.
type Dataset struct {
	Customers  []Customer
	Orders     []Order
	OrderLines []OrderLine
	PriceList  []PriceListItem

	LoadedAt time.Time

	// Missing lists tables that failed to load. Their slices are nil.
	Missing []Table
}

// Has reports whether table loaded successfully.
func (d *Dataset) Has(table Table) bool {
	if d == nil {
		return false
	}
	for _, m := range d.Missing {
		if m == table {
			return false
		}
	}
	return true
}

// Complete reports whether every table loaded.
func (d *Dataset) Complete() bool {
	return d != nil && len(d.Missing) == 0
}

// Require returns an error wrapping apperrors.ErrDatasetUnavailable naming
// every requested table that is not loaded. It is safe on a nil Dataset.
func (d *Dataset) Require(tables ...Table) error {
	var missing []string
	for _, t := range tables {
		if !d.Has(t) {
			missing = append(missing, string(t))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s not loaded", apperrors.ErrDatasetUnavailable, strings.Join(missing, ", "))
}

// RowCounts returns the number of rows per loaded table.
func (d *Dataset) RowCounts() map[Table]int {
	counts := make(map[Table]int, len(AllTables))
	if d == nil {
		return counts
	}
	counts[TableCustomers] = len(d.Customers)
	counts[TableOrders] = len(d.Orders)
	counts[TableOrderLines] = len(d.OrderLines)
	counts[TablePriceList] = len(d.PriceList)
	return counts
}
