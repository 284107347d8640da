package dataset

import (
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// Join returns one row per order line whose order, customer and price list
// item all exist. Lines with a dangling reference are dropped. The result is
// recomputed on every call and never cached.
func Join(ds *models.Dataset) []models.JoinedRow {
	if ds == nil || len(ds.OrderLines) == 0 {
		return nil
	}

	orders := make(map[string]*models.Order, len(ds.Orders))
	for i := range ds.Orders {
		if _, dup := orders[ds.Orders[i].ID]; !dup {
			orders[ds.Orders[i].ID] = &ds.Orders[i]
		}
	}
	customers := make(map[string]*models.Customer, len(ds.Customers))
	for i := range ds.Customers {
		if _, dup := customers[ds.Customers[i].ID]; !dup {
			customers[ds.Customers[i].ID] = &ds.Customers[i]
		}
	}
	items := make(map[string]*models.PriceListItem, len(ds.PriceList))
	for i := range ds.PriceList {
		if _, dup := items[ds.PriceList[i].ID]; !dup {
			items[ds.PriceList[i].ID] = &ds.PriceList[i]
		}
	}

	joined := make([]models.JoinedRow, 0, len(ds.OrderLines))
	for _, line := range ds.OrderLines {
		order, ok := orders[line.OrderID]
		if !ok {
			continue
		}
		customer, ok := customers[order.CustomerID]
		if !ok {
			continue
		}
		item, ok := items[line.ItemID]
		if !ok {
			continue
		}
		joined = append(joined, models.JoinedRow{
			Line:     line,
			Order:    order,
			Customer: customer,
			Item:     item,
		})
	}
	return joined
}
