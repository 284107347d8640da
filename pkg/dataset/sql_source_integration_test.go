//go:build integration

package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-insights/pkg/config"
	"github.com/ekaya-inc/ekaya-insights/pkg/testhelpers"
)

func TestSQLSource_LoadsFixtureFromPostgres(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	cfg := config.DatasetConfig{
		Source: config.SourcePostgres,
		SQL: config.SQLConfig{
			Host:           testDB.Host,
			Port:           testDB.Port,
			User:           "insights",
			Password:       "test_password",
			Database:       "insights",
			SSLMode:        "disable",
			CustomerTable:  "customer",
			OrderTable:     "inventory",
			OrderLineTable: "detail",
			PriceListTable: "pricelist",
		},
	}

	src, err := OpenSQLSource(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })

	ds, err := src.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ds.Complete())
	assert.Len(t, ds.Customers, testhelpers.FixtureCustomers)
	assert.Len(t, ds.OrderLines, testhelpers.FixtureOrderLines)
	assert.Len(t, Join(ds), testhelpers.FixtureJoinedRows)
}

func TestSQLSource_MissingTableMarkedMissing(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	cfg := config.DatasetConfig{
		Source: config.SourcePostgres,
		SQL: config.SQLConfig{
			Host:           testDB.Host,
			Port:           testDB.Port,
			User:           "insights",
			Password:       "test_password",
			Database:       "insights",
			SSLMode:        "disable",
			CustomerTable:  "customer",
			OrderTable:     "inventory",
			OrderLineTable: "detail",
			PriceListTable: "no_such_table",
		},
	}

	src, err := OpenSQLSource(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })

	ds, err := src.Load(ctx)
	require.Error(t, err)
	assert.False(t, ds.Complete())
	assert.Len(t, ds.Orders, testhelpers.FixtureOrders)
}
