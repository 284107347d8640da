package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/config"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// CSVSource reads the four tables from CSV files in one directory.
type CSVSource struct {
	dir    string
	files  map[models.Table]string
	logger *zap.Logger
	now    func() time.Time
}

// NewCSVSource creates a source for the files named in cfg.
func NewCSVSource(cfg config.DatasetConfig, logger *zap.Logger) *CSVSource {
	return &CSVSource{
		dir: cfg.Dir,
		files: map[models.Table]string{
			models.TableCustomers:  cfg.CustomerFile,
			models.TableOrders:     cfg.OrderFile,
			models.TableOrderLines: cfg.OrderLineFile,
			models.TablePriceList:  cfg.PriceListFile,
		},
		logger: logger.Named("dataset.csv"),
		now:    time.Now,
	}
}

// Load reads every file. Missing or malformed files mark their table missing.
func (s *CSVSource) Load(ctx context.Context) (*models.Dataset, error) {
	return loadTables(ctx, s.readTable, s.logger, s.now)
}

func (s *CSVSource) readTable(ctx context.Context, table models.Table) (*rawTable, error) {
	path := filepath.Join(s.dir, s.files[table])
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	raw, err := readCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	raw.table = table
	return raw, nil
}

// readCSV reads a header row followed by records. Every record must have
// as many fields as the header.
func readCSV(ctx context.Context, r io.Reader) (*rawTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, err
	}

	raw := &rawTable{header: header}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		raw.rows = append(raw.rows, record)
	}
	return raw, nil
}
