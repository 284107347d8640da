package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/config"
	"github.com/ekaya-inc/ekaya-insights/pkg/logging"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/retry"
)

// identifierPattern accepts optionally schema-qualified table names.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// driverNames maps a configured source to its database/sql driver.
var driverNames = map[string]string{
	config.SourcePostgres:  "pgx",
	config.SourceSQLServer: "sqlserver",
}

// SQLSource reads the four tables from PostgreSQL or SQL Server.
type SQLSource struct {
	db     *sql.DB
	tables map[models.Table]string
	logger *zap.Logger
	now    func() time.Time
}

// OpenSQLSource opens and pings the database named by cfg, retrying
// transient connection failures.
func OpenSQLSource(ctx context.Context, cfg config.DatasetConfig, logger *zap.Logger) (*SQLSource, error) {
	driver, ok := driverNames[cfg.Source]
	if !ok {
		return nil, fmt.Errorf("unsupported sql source %q", cfg.Source)
	}

	tables := map[models.Table]string{}
	for name, tbl := range cfg.SQL.Tables() {
		if !identifierPattern.MatchString(tbl) {
			return nil, fmt.Errorf("invalid table name %q for %s", tbl, name)
		}
		tables[models.Table(name)] = tbl
	}

	dsn := cfg.SQL.DSN(cfg.Source)
	logger = logger.Named("dataset.sql")
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %s", driver, logging.SanitizeError(err))
	}

	err = retry.Do(ctx, retry.DefaultConfig(), func() error {
		pingErr := db.PingContext(ctx)
		if pingErr != nil {
			logger.Warn("Dataset database not reachable yet",
				zap.String("dsn", logging.SanitizeConnectionString(dsn)),
				zap.String("error", logging.SanitizeError(pingErr)))
		}
		return pingErr
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %s", driver, logging.SanitizeError(err))
	}

	logger.Info("Connected to dataset database",
		zap.String("driver", driver),
		zap.String("dsn", logging.SanitizeConnectionString(dsn)))

	return newSQLSource(db, tables, logger), nil
}

func newSQLSource(db *sql.DB, tables map[models.Table]string, logger *zap.Logger) *SQLSource {
	return &SQLSource{db: db, tables: tables, logger: logger, now: time.Now}
}

// Load reads every table. A failing SELECT marks its table missing.
func (s *SQLSource) Load(ctx context.Context) (*models.Dataset, error) {
	return loadTables(ctx, s.readTable, s.logger, s.now)
}

// Close releases the connection pool.
func (s *SQLSource) Close() error {
	return s.db.Close()
}

func (s *SQLSource) readTable(ctx context.Context, table models.Table) (*rawTable, error) {
	name, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("no table configured for %s", table)
	}

	// name has been validated against identifierPattern.
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+name)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	raw := &rawTable{table: table, header: header}
	values := make([]sql.NullString, len(header))
	dest := make([]any, len(header))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		record := make([]string, len(values))
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			}
		}
		raw.rows = append(raw.rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return raw, nil
}
