package dataset

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// Column aliases cover both historical export formats of the shop system.
var (
	customerIDColumns    = []string{"CID", "customer_id"}
	customerNameColumns  = []string{"Customer_Name", "customer_name"}
	customerFirstColumns = []string{"FNAME1", "first_name"}
	customerLastColumns  = []string{"LNAME", "last_name"}
	customerTypeColumns  = []string{"Customer_Type", "customer_type", "PRICETBL"}
	customerDateColumns  = []string{"FIRSTDATE", "first_purchase"}

	orderIDColumns       = []string{"IID", "order_id"}
	orderStatusColumns   = []string{"Status"}
	orderOutDateColumns  = []string{"OUTDATE"}
	orderPIFColumns      = []string{"PIF", "paid_in_full"}
	orderSubtotalColumns = []string{"SUBTOTAL"}
	orderDateColumns     = []string{"INDATE", "Order_Date"}
	orderCategoryColumns = []string{"CATEGORY"}

	itemIDColumns    = []string{"price_table_item_id", "item_id"}
	lineNameColumns  = []string{"item_name", "description"}
	linePriceColumns = []string{"Total_Price", "item_baseprice"}

	itemNameColumns     = []string{"Product_Name", "name"}
	itemCategoryColumns = []string{"Category"}
	itemPriceColumns    = []string{"Unit_Price", "baseprice", "price"}
)

// Derived status values for exports without a Status column.
const (
	statusCompleted  = "Completed"
	statusProcessing = "Processing"
)

// decoded is the outcome of decoding one table.
type decoded struct {
	customers  []models.Customer
	orders     []models.Order
	orderLines []models.OrderLine
	priceList  []models.PriceListItem

	// duplicates lists ids that appeared more than once; the first row won.
	duplicates []string
}

func decode(t *rawTable) (*decoded, error) {
	switch t.table {
	case models.TableCustomers:
		return decodeCustomers(t)
	case models.TableOrders:
		return decodeOrders(t)
	case models.TableOrderLines:
		return decodeOrderLines(t)
	case models.TablePriceList:
		return decodePriceList(t)
	}
	return nil, fmt.Errorf("unknown table %q", t.table)
}

func decodeCustomers(t *rawTable) (*decoded, error) {
	cols := newColumns(t.header)
	idCol, err := cols.require(t.table, customerIDColumns...)
	if err != nil {
		return nil, err
	}
	nameCol := cols.find(customerNameColumns...)
	firstCol := cols.find(customerFirstColumns...)
	lastCol := cols.find(customerLastColumns...)
	typeCol := cols.find(customerTypeColumns...)
	dateCol := cols.find(customerDateColumns...)

	out := &decoded{customers: make([]models.Customer, 0, len(t.rows))}
	seen := make(map[string]bool, len(t.rows))
	for i, row := range t.rows {
		id := cell(row, idCol)
		if id == "" {
			return nil, fmt.Errorf("%s: row %d: empty customer id", t.table, i+1)
		}
		if seen[id] {
			out.duplicates = append(out.duplicates, id)
			continue
		}
		seen[id] = true

		name := cell(row, nameCol)
		if nameCol < 0 {
			name = strings.TrimSpace(cell(row, firstCol) + " " + cell(row, lastCol))
		}
		first, _ := models.ParseDate(cell(row, dateCol))

		out.customers = append(out.customers, models.Customer{
			ID:            id,
			Name:          name,
			Type:          models.ParseCustomerType(cell(row, typeCol)),
			FirstPurchase: first,
			Attributes:    cols.attributes(row),
		})
	}
	return out, nil
}

func decodeOrders(t *rawTable) (*decoded, error) {
	cols := newColumns(t.header)
	idCol, err := cols.require(t.table, orderIDColumns...)
	if err != nil {
		return nil, err
	}
	customerCol, err := cols.require(t.table, customerIDColumns...)
	if err != nil {
		return nil, err
	}
	statusCol := cols.find(orderStatusColumns...)
	outCol := cols.find(orderOutDateColumns...)
	pifCol := cols.find(orderPIFColumns...)
	subtotalCol := cols.find(orderSubtotalColumns...)
	dateCol := cols.find(orderDateColumns...)
	categoryCol := cols.find(orderCategoryColumns...)

	out := &decoded{orders: make([]models.Order, 0, len(t.rows))}
	seen := make(map[string]bool, len(t.rows))
	for i, row := range t.rows {
		id := cell(row, idCol)
		if id == "" {
			return nil, fmt.Errorf("%s: row %d: empty order id", t.table, i+1)
		}
		if seen[id] {
			out.duplicates = append(out.duplicates, id)
			continue
		}
		seen[id] = true

		subtotal, err := parseNumber(cell(row, subtotalCol))
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad subtotal: %w", t.table, i+1, err)
		}

		status := cell(row, statusCol)
		if statusCol < 0 {
			status = statusProcessing
			if cell(row, outCol) != "" {
				status = statusCompleted
			}
		}
		created, _ := models.ParseDate(cell(row, dateCol))

		out.orders = append(out.orders, models.Order{
			ID:         id,
			CustomerID: cell(row, customerCol),
			Status:     status,
			PIF:        normalizeFlag(cell(row, pifCol)),
			Subtotal:   subtotal,
			CreatedAt:  created,
			Category:   cell(row, categoryCol),
			Attributes: cols.attributes(row),
		})
	}
	return out, nil
}

func decodeOrderLines(t *rawTable) (*decoded, error) {
	cols := newColumns(t.header)
	orderCol, err := cols.require(t.table, orderIDColumns...)
	if err != nil {
		return nil, err
	}
	itemCol, err := cols.require(t.table, itemIDColumns...)
	if err != nil {
		return nil, err
	}
	nameCol := cols.find(lineNameColumns...)
	priceCol := cols.find(linePriceColumns...)

	out := &decoded{orderLines: make([]models.OrderLine, 0, len(t.rows))}
	for i, row := range t.rows {
		total, err := parseNumber(cell(row, priceCol))
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad line total: %w", t.table, i+1, err)
		}
		out.orderLines = append(out.orderLines, models.OrderLine{
			Row:        i,
			OrderID:    cell(row, orderCol),
			ItemID:     cell(row, itemCol),
			ItemName:   cell(row, nameCol),
			TotalPrice: total,
			Attributes: cols.attributes(row),
		})
	}
	return out, nil
}

func decodePriceList(t *rawTable) (*decoded, error) {
	cols := newColumns(t.header)
	idCol, err := cols.require(t.table, itemIDColumns...)
	if err != nil {
		return nil, err
	}
	nameCol := cols.find(itemNameColumns...)
	categoryCol := cols.find(itemCategoryColumns...)
	priceCol := cols.find(itemPriceColumns...)

	out := &decoded{priceList: make([]models.PriceListItem, 0, len(t.rows))}
	seen := make(map[string]bool, len(t.rows))
	for i, row := range t.rows {
		id := cell(row, idCol)
		if id == "" {
			return nil, fmt.Errorf("%s: row %d: empty item id", t.table, i+1)
		}
		if seen[id] {
			out.duplicates = append(out.duplicates, id)
			continue
		}
		seen[id] = true

		price, err := parseNumber(cell(row, priceCol))
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad unit price: %w", t.table, i+1, err)
		}
		out.priceList = append(out.priceList, models.PriceListItem{
			ID:         id,
			Name:       cell(row, nameCol),
			Category:   cell(row, categoryCol),
			UnitPrice:  price,
			Attributes: cols.attributes(row),
		})
	}
	return out, nil
}

func normalizeFlag(raw string) string {
	switch strings.ToUpper(raw) {
	case "Y", "YES", "TRUE", "1":
		return models.PaidInFullYes
	case "N", "NO", "FALSE", "0":
		return models.PaidInFullNo
	}
	return strings.ToUpper(raw)
}
