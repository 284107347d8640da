package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Supported dataset sources.
const (
	SourceCSV       = "csv"
	SourcePostgres  = "postgres"
	SourceSQLServer = "sqlserver"
)

// DefaultConfigPath is read when CONFIG_PATH is not set.
const DefaultConfigPath = "config.yaml"

// Config holds all configuration for ekaya-insights.
// Configuration can come from a YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (database passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"5001"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Dataset holds where the four business tables are read from.
	Dataset DatasetConfig `yaml:"dataset"`

	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Validation ValidationConfig `yaml:"validation"`
	CORS       CORSConfig       `yaml:"cors"`
	MCP        MCPConfig        `yaml:"mcp"`
	Audit      AuditConfig      `yaml:"audit"`
}

// DatasetConfig selects and locates the dataset source.
type DatasetConfig struct {
	// Source is one of csv, postgres, sqlserver.
	Source string `yaml:"source" env:"DATASET_SOURCE" env-default:"csv"`

	// Dir is the directory holding the CSV files (csv source only).
	Dir           string `yaml:"dir" env:"DATASET_DIR" env-default:"./data"`
	CustomerFile  string `yaml:"customer_file" env:"DATASET_CUSTOMER_FILE" env-default:"Customer.csv"`
	OrderFile     string `yaml:"order_file" env:"DATASET_ORDER_FILE" env-default:"Inventory.csv"`
	OrderLineFile string `yaml:"order_line_file" env:"DATASET_ORDER_LINE_FILE" env-default:"Detail.csv"`
	PriceListFile string `yaml:"price_list_file" env:"DATASET_PRICE_LIST_FILE" env-default:"Pricelist.csv"`

	SQL SQLConfig `yaml:"sql"`
}

// SQLConfig holds connection settings for the postgres and sqlserver sources.
type SQLConfig struct {
	Host     string `yaml:"host" env:"DATASET_SQL_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DATASET_SQL_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DATASET_SQL_USER" env-default:"insights"`
	Password string `yaml:"-" env:"DATASET_SQL_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"DATASET_SQL_DATABASE" env-default:"insights"`
	SSLMode  string `yaml:"ssl_mode" env:"DATASET_SQL_SSLMODE" env-default:"disable"`

	CustomerTable  string `yaml:"customer_table" env:"DATASET_SQL_CUSTOMER_TABLE" env-default:"customer"`
	OrderTable     string `yaml:"order_table" env:"DATASET_SQL_ORDER_TABLE" env-default:"inventory"`
	OrderLineTable string `yaml:"order_line_table" env:"DATASET_SQL_ORDER_LINE_TABLE" env-default:"detail"`
	PriceListTable string `yaml:"price_list_table" env:"DATASET_SQL_PRICE_LIST_TABLE" env-default:"pricelist"`
}

// AnalyticsConfig tunes the aggregation routines.
type AnalyticsConfig struct {
	// RecentOrdersSince is the cutoff (YYYY-MM-DD) for "recent orders" in the comprehensive analysis.
	RecentOrdersSince string `yaml:"recent_orders_since" env:"ANALYTICS_RECENT_ORDERS_SINCE" env-default:"2025-01-01"`
	// TopN caps ranked lists such as top customers and top products.
	TopN int `yaml:"top_n" env:"ANALYTICS_TOP_N" env-default:"10"`

	// RecentOrdersSinceDate is parsed from RecentOrdersSince (not from config file).
	RecentOrdersSinceDate time.Time `yaml:"-"`
}

// ValidationConfig controls the advisory sanity check on query results.
type ValidationConfig struct {
	Enabled bool    `yaml:"enabled" env:"VALIDATION_ENABLED" env-default:"true"`
	Min     float64 `yaml:"min" env:"VALIDATION_MIN" env-default:"0"`
	Max     float64 `yaml:"max" env:"VALIDATION_MAX" env-default:"1000000"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	// AllowedOriginsStr is a comma-separated list of origins, or "*".
	AllowedOriginsStr string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`

	// AllowedOrigins is the parsed list from AllowedOriginsStr (not from config file).
	AllowedOrigins []string `yaml:"-"`
}

// MCPConfig controls the MCP endpoint.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"true"`
}

// AuditConfig controls security audit logging.
type AuditConfig struct {
	// LogQueries emits an INFO audit event for every dispatched query.
	LogQueries bool `yaml:"log_queries" env:"AUDIT_LOG_QUERIES" env-default:"false"`
}

// Load reads configuration from the YAML file named by CONFIG_PATH (default
// config.yaml) with environment variable overrides. A missing file is not an
// error: environment variables and defaults are used instead.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() error {
	c.CORS.AllowedOrigins = parseList(c.CORS.AllowedOriginsStr)

	since, err := time.Parse(time.DateOnly, strings.TrimSpace(c.Analytics.RecentOrdersSince))
	if err != nil {
		return fmt.Errorf("recent_orders_since must be YYYY-MM-DD: %w", err)
	}
	c.Analytics.RecentOrdersSinceDate = since
	return nil
}

func (c *Config) validate() error {
	switch c.Dataset.Source {
	case SourceCSV, SourcePostgres, SourceSQLServer:
	default:
		return fmt.Errorf("unknown dataset source %q (want csv, postgres or sqlserver)", c.Dataset.Source)
	}

	if c.Validation.Min > c.Validation.Max {
		return fmt.Errorf("validation.min (%g) must not exceed validation.max (%g)", c.Validation.Min, c.Validation.Max)
	}

	if c.Analytics.TopN <= 0 {
		return fmt.Errorf("analytics.top_n must be positive, got %d", c.Analytics.TopN)
	}

	return nil
}

// parseList splits a comma-separated value into trimmed, non-empty entries.
func parseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}

// DSN returns the connection string for the given SQL driver ("postgres" or "sqlserver").
// Localhost is rewritten to host.docker.internal when running inside Docker.
func (c *SQLConfig) DSN(source string) string {
	host := ResolveHostForDocker(c.Host)
	u := &url.URL{
		User: url.UserPassword(c.User, c.Password),
		Host: fmt.Sprintf("%s:%d", host, c.Port),
	}

	switch source {
	case SourceSQLServer:
		u.Scheme = "sqlserver"
		q := url.Values{}
		q.Set("database", c.Database)
		u.RawQuery = q.Encode()
	default:
		u.Scheme = "postgres"
		u.Path = "/" + c.Database
		q := url.Values{}
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Tables returns the configured SQL table names keyed by logical table.
func (c *SQLConfig) Tables() map[string]string {
	return map[string]string{
		"customers":   c.CustomerTable,
		"orders":      c.OrderTable,
		"order_lines": c.OrderLineTable,
		"price_list":  c.PriceListTable,
	}
}

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether /.dockerenv exists. The result is cached.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker maps localhost to host.docker.internal inside Docker so a
// database on the host machine stays reachable. Other hosts are returned unchanged.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}
	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}
	return host
}
