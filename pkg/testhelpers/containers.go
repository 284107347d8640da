package testhelpers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the image used for SQL dataset source tests.
const PostgresImage = "postgres:16-alpine"

// TestDB holds a shared PostgreSQL container seeded with the fixture tables.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
	Host      string
	Port      int
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created and seeded once and reused across the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "insights",
			"POSTGRES_USER":     "insights",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return nil, fmt.Errorf("bad mapped port %q: %w", mapped.Port(), err)
	}

	connStr := fmt.Sprintf("postgres://insights:test_password@%s:%d/insights?sslmode=disable", host, port)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err := pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	if err := seedFixture(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to seed fixture: %w", err)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
		Host:      host,
		Port:      port,
	}, nil
}

// seedFixture creates one text-typed table per fixture table and copies the rows in.
func seedFixture(ctx context.Context, pool *pgxpool.Pool) error {
	for table, rows := range FixtureTables() {
		header := rows[0]
		defs := make([]string, len(header))
		for i, col := range header {
			defs[i] = pgx.Identifier{col}.Sanitize() + " TEXT"
		}
		ident := pgx.Identifier{table}.Sanitize()
		ddl := fmt.Sprintf("DROP TABLE IF EXISTS %s; CREATE TABLE %s (%s)", ident, ident, strings.Join(defs, ", "))
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}

		data := make([][]any, 0, len(rows)-1)
		for _, r := range rows[1:] {
			vals := make([]any, len(r))
			for i, v := range r {
				vals[i] = v
			}
			data = append(data, vals)
		}
		if _, err := pool.CopyFrom(ctx, pgx.Identifier{table}, header, pgx.CopyFromRows(data)); err != nil {
			return fmt.Errorf("copy %s: %w", table, err)
		}
	}
	return nil
}
