package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/testhelpers"
)

func TestJoin_DropsDanglingReferences(t *testing.T) {
	ds := testhelpers.FixtureDataset()

	joined := Join(ds)
	require.Len(t, joined, testhelpers.FixtureJoinedRows)

	orders := map[string]bool{}
	for _, o := range ds.Orders {
		orders[o.ID] = true
	}
	customers := map[string]bool{}
	for _, c := range ds.Customers {
		customers[c.ID] = true
	}
	items := map[string]bool{}
	for _, p := range ds.PriceList {
		items[p.ID] = true
	}

	for _, row := range joined {
		assert.True(t, orders[row.Line.OrderID], "order %s must exist", row.Line.OrderID)
		assert.True(t, customers[row.Order.CustomerID], "customer %s must exist", row.Order.CustomerID)
		assert.True(t, items[row.Line.ItemID], "item %s must exist", row.Line.ItemID)
		assert.Equal(t, row.Line.OrderID, row.Order.ID)
		assert.Equal(t, row.Order.CustomerID, row.Customer.ID)
		assert.Equal(t, row.Line.ItemID, row.Item.ID)
	}
}

func TestJoin_PreservesLineOrder(t *testing.T) {
	joined := Join(testhelpers.FixtureDataset())
	for i := 1; i < len(joined); i++ {
		assert.Less(t, joined[i-1].Line.Row, joined[i].Line.Row)
	}
}

func TestJoin_EmptyTableYieldsNoRows(t *testing.T) {
	ds := testhelpers.FixtureDataset()
	ds.PriceList = nil
	assert.Empty(t, Join(ds))

	assert.Empty(t, Join(testhelpers.EmptyDataset()))
	assert.Empty(t, Join(nil))
}

func TestJoin_DuplicateKeysUseFirstRow(t *testing.T) {
	ds := &models.Dataset{
		Customers:  []models.Customer{{ID: "c1", Name: "First"}},
		Orders:     []models.Order{{ID: "o1", CustomerID: "c1"}},
		OrderLines: []models.OrderLine{{OrderID: "o1", ItemID: "i1", TotalPrice: 2}},
		PriceList:  []models.PriceListItem{{ID: "i1", Name: "Kept"}, {ID: "i1", Name: "Ignored"}},
	}

	joined := Join(ds)
	require.Len(t, joined, 1)
	assert.Equal(t, "Kept", joined[0].ProductName())
}
