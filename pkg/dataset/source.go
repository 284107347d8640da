// Package dataset loads the four business tables and joins them.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// Source produces a dataset snapshot.
// A partial load returns the snapshot with Missing set together with a non-nil error.
type Source interface {
	Load(ctx context.Context) (*models.Dataset, error)
}

// fetchFunc reads one table in raw form.
type fetchFunc func(ctx context.Context, table models.Table) (*rawTable, error)

// loadTables fetches and decodes every table concurrently. A table that fails
// is logged, listed in Dataset.Missing and left nil; the others still load.
func loadTables(ctx context.Context, fetch fetchFunc, logger *zap.Logger, now func() time.Time) (*models.Dataset, error) {
	results := make([]*decoded, len(models.AllTables))
	failures := make([]error, len(models.AllTables))

	g, gctx := errgroup.WithContext(ctx)
	for i, table := range models.AllTables {
		g.Go(func() error {
			raw, err := fetch(gctx, table)
			if err == nil {
				results[i], err = decode(raw)
			}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[i] = fmt.Errorf("load %s: %w", table, err)
				return nil
			}
			if n := len(results[i].duplicates); n > 0 {
				logger.Warn("Duplicate keys in table, keeping first occurrence",
					zap.String("table", string(table)),
					zap.Int("duplicates", n),
					zap.Strings("keys", firstN(results[i].duplicates, 10)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &models.Dataset{LoadedAt: now().UTC()}
	for i, table := range models.AllTables {
		if failures[i] != nil {
			logger.Error("Failed to load table",
				zap.String("table", string(table)),
				zap.Error(failures[i]))
			ds.Missing = append(ds.Missing, table)
			continue
		}
		r := results[i]
		switch table {
		case models.TableCustomers:
			ds.Customers = r.customers
		case models.TableOrders:
			ds.Orders = r.orders
		case models.TableOrderLines:
			ds.OrderLines = r.orderLines
		case models.TablePriceList:
			ds.PriceList = r.priceList
		}
	}

	logger.Info("Dataset loaded",
		zap.Int("customers", len(ds.Customers)),
		zap.Int("orders", len(ds.Orders)),
		zap.Int("order_lines", len(ds.OrderLines)),
		zap.Int("price_list", len(ds.PriceList)),
		zap.Int("missing_tables", len(ds.Missing)))

	return ds, errors.Join(failures...)
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
