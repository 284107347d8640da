package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/ekaya-insights/pkg/config"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/testhelpers"
)

func csvConfig(dir string) config.DatasetConfig {
	return config.DatasetConfig{
		Source:        config.SourceCSV,
		Dir:           dir,
		CustomerFile:  "Customer.csv",
		OrderFile:     "Inventory.csv",
		OrderLineFile: "Detail.csv",
		PriceListFile: "Pricelist.csv",
	}
}

func TestCSVSource_LoadsFixture(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteFixtureCSV(t, dir)

	src := NewCSVSource(csvConfig(dir), zap.NewNop())
	ds, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, ds.Complete())
	assert.Len(t, ds.Customers, testhelpers.FixtureCustomers)
	assert.Len(t, ds.Orders, testhelpers.FixtureOrders)
	assert.Len(t, ds.OrderLines, testhelpers.FixtureOrderLines)
	assert.Len(t, ds.PriceList, testhelpers.FixtureProducts)

	assert.Equal(t, "Alice Ng", ds.Customers[0].Name)
	assert.Equal(t, models.CustomerPremium, ds.Customers[0].Type)
	assert.Equal(t, 33.5, ds.Orders[0].Subtotal)
	assert.True(t, ds.Orders[0].Paid())
	assert.Equal(t, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), ds.Orders[0].CreatedAt.Time)
	assert.Equal(t, "Dry Clean", ds.PriceList[1].Category)
}

func TestCSVSource_MissingFileMarksTableOnly(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteFixtureCSV(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, "Pricelist.csv")))

	core, logs := observer.New(zapcore.DebugLevel)
	src := NewCSVSource(csvConfig(dir), zap.New(core))

	ds, err := src.Load(context.Background())
	require.Error(t, err)
	require.NotNil(t, ds)

	assert.Equal(t, []models.Table{models.TablePriceList}, ds.Missing)
	assert.Nil(t, ds.PriceList)
	assert.Len(t, ds.Customers, testhelpers.FixtureCustomers)
	assert.Equal(t, 1, logs.FilterMessage("Failed to load table").Len())
}

func TestCSVSource_MalformedRowFailsTable(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteFixtureCSV(t, dir)
	bad := "IID,price_table_item_id,Total_Price\nO1,P1,3.50\nO1,P2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Detail.csv"), []byte(bad), 0644))

	ds, err := NewCSVSource(csvConfig(dir), zap.NewNop()).Load(context.Background())
	require.Error(t, err)
	assert.False(t, ds.Has(models.TableOrderLines))
	assert.True(t, ds.Has(models.TableOrders))
}

func TestCSVSource_BadNumberFailsTable(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteFixtureCSV(t, dir)
	bad := "IID,CID,Status,PIF,SUBTOTAL,INDATE\nO1,C1,Completed,Y,twelve,2024-01-01\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Inventory.csv"), []byte(bad), 0644))

	ds, err := NewCSVSource(csvConfig(dir), zap.NewNop()).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad subtotal")
	assert.Equal(t, []models.Table{models.TableOrders}, ds.Missing)
}

func TestCSVSource_NonFiniteNumberFailsTable(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteFixtureCSV(t, dir)
	orders := "IID,CID,Status,PIF,SUBTOTAL,INDATE\nO1,C1,Completed,Y,NaN,2024-01-01\n"
	lines := "IID,price_table_item_id,Total_Price\nO1,P1,Infinity\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Inventory.csv"), []byte(orders), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Detail.csv"), []byte(lines), 0644))

	ds, err := NewCSVSource(csvConfig(dir), zap.NewNop()).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-finite")
	assert.ElementsMatch(t, []models.Table{models.TableOrders, models.TableOrderLines}, ds.Missing)
	assert.True(t, ds.Has(models.TableCustomers))
	assert.True(t, ds.Has(models.TablePriceList))
}

func TestCSVSource_DuplicateCustomerKeepsFirst(t *testing.T) {
	dir := t.TempDir()
	testhelpers.WriteFixtureCSV(t, dir)
	path := filepath.Join(dir, "Customer.csv")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("C1,Alice Duplicate,Standard,2024-05-05\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	core, logs := observer.New(zapcore.WarnLevel)
	ds, err := NewCSVSource(csvConfig(dir), zap.New(core)).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Customers, testhelpers.FixtureCustomers)
	assert.Equal(t, "Alice Ng", ds.Customers[0].Name)
	assert.Equal(t, testhelpers.FixtureCustomers, ds.RowCounts()[models.TableCustomers])

	dup := logs.FilterMessage("Duplicate keys in table, keeping first occurrence").All()
	require.Len(t, dup, 1)
	assert.Equal(t, string(models.TableCustomers), dup[0].ContextMap()["table"])
	assert.Equal(t, int64(1), dup[0].ContextMap()["duplicates"])
}

func TestParseNumber(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want float64
	}{
		{"", 0},
		{" 12.50 ", 12.5},
		{"$1,250.75", 1250.75},
		{"-3", -3},
	} {
		got, err := parseNumber(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, in := range []string{"NaN", "nan", "Inf", "-Infinity", "+inf", "twelve"} {
		_, err := parseNumber(in)
		assert.Error(t, err, in)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := readCSV(context.Background(), strings.NewReader(""))
	assert.Error(t, err)
}

func TestDecodeCustomers_AlternateColumns(t *testing.T) {
	raw := &rawTable{
		table:  models.TableCustomers,
		header: []string{"cid", "FNAME1", "LNAME", "PRICETBL", "FIRSTDATE", "PHONE"},
		rows: [][]string{
			{"1", "Ada", "Lovelace", "premium", "1/2/2024", "555-0100"},
			{"2", "Alan", "Turing", "Standard", "", ""},
			{"1", "Dup", "Row", "Standard", "", ""},
		},
	}

	out, err := decode(raw)
	require.NoError(t, err)
	require.Len(t, out.customers, 2)
	assert.Equal(t, []string{"1"}, out.duplicates)

	ada := out.customers[0]
	assert.Equal(t, "Ada Lovelace", ada.Name)
	assert.Equal(t, models.CustomerPremium, ada.Type)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), ada.FirstPurchase.Time)
	assert.Equal(t, map[string]string{"PHONE": "555-0100"}, ada.Attributes)
}

func TestDecodeOrders_DerivesStatusFromOutDate(t *testing.T) {
	raw := &rawTable{
		table:  models.TableOrders,
		header: []string{"IID", "CID", "PIF", "SUBTOTAL", "Order_Date", "OUTDATE"},
		rows: [][]string{
			{"10", "1", "y", "$1,250.00", "2024-05-01", "2024-05-03"},
			{"11", "1", "N", "", "2024-05-02", ""},
		},
	}

	out, err := decode(raw)
	require.NoError(t, err)
	require.Len(t, out.orders, 2)

	assert.Equal(t, "Completed", out.orders[0].Status)
	assert.Equal(t, 1250.0, out.orders[0].Subtotal)
	assert.True(t, out.orders[0].Paid())
	assert.Equal(t, "Processing", out.orders[1].Status)
	assert.Equal(t, 0.0, out.orders[1].Subtotal)
	assert.True(t, out.orders[1].Unpaid())
}

func TestDecode_MissingRequiredColumn(t *testing.T) {
	raw := &rawTable{
		table:  models.TableOrderLines,
		header: []string{"IID", "Total_Price"},
		rows:   [][]string{{"1", "2.00"}},
	}
	_, err := decode(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price_table_item_id")
}

func TestDecodeOrderLines_NodeColumns(t *testing.T) {
	raw := &rawTable{
		table:  models.TableOrderLines,
		header: []string{"IID", "item_id", "item_name", "item_baseprice"},
		rows:   [][]string{{"5", "77", "Blazer", "9.25"}},
	}
	out, err := decode(raw)
	require.NoError(t, err)
	require.Len(t, out.orderLines, 1)
	assert.Equal(t, models.OrderLine{Row: 0, OrderID: "5", ItemID: "77", ItemName: "Blazer", TotalPrice: 9.25}, out.orderLines[0])
}
