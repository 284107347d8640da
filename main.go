package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-insights/pkg/analytics"
	"github.com/ekaya-inc/ekaya-insights/pkg/audit"
	"github.com/ekaya-inc/ekaya-insights/pkg/config"
	"github.com/ekaya-inc/ekaya-insights/pkg/dataset"
	"github.com/ekaya-inc/ekaya-insights/pkg/dispatch"
	"github.com/ekaya-inc/ekaya-insights/pkg/handlers"
	"github.com/ekaya-inc/ekaya-insights/pkg/mcp"
	"github.com/ekaya-inc/ekaya-insights/pkg/metrics"
	"github.com/ekaya-inc/ekaya-insights/pkg/middleware"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("dataset_source", cfg.Dataset.Source),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled),
		zap.Strings("cors_origins", cfg.CORS.AllowedOrigins),
	)

	source, closeSource, err := openSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	registry := metrics.NewRegistry()
	store := dataset.NewStore(source, logger, dataset.WithObserver(registry))
	if err := store.Load(ctx); err != nil {
		// Start anyway; routes needing the missing tables answer 503 until a reload succeeds.
		logger.Error("Initial dataset load incomplete", zap.Error(err))
	}

	dispatcher, err := dispatch.NewDefault()
	if err != nil {
		return fmt.Errorf("build dispatcher: %w", err)
	}

	insightsService := services.NewInsightsService(
		store,
		dispatcher,
		analytics.NewValidator(cfg.Validation),
		audit.NewSecurityAuditor(logger, cfg.Audit.LogQueries),
		registry,
		analytics.SettingsFromConfig(cfg.Analytics),
		logger,
	)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, insightsService, logger).RegisterRoutes(mux)
	handlers.NewInsightsHandler(insightsService, logger).RegisterRoutes(mux)
	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer(cfg.Version, insightsService, mcp.NewAuditLogger(logger), logger)
		handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux)
	}
	mux.Handle("GET /metrics", registry.Handler())

	// Wrapped inside out; Recoverer ends up outermost.
	var handler http.Handler = registry.Instrument(mux)
	handler = middleware.RequestLogger(logger)(handler)
	handler = middleware.CORS(cfg.CORS.AllowedOrigins)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recoverer(logger)(handler)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting ekaya-insights", zap.String("addr", srv.Addr), zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openSource returns the configured dataset source and a function releasing it.
func openSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (dataset.Source, func(), error) {
	if cfg.Dataset.Source == config.SourceCSV {
		return dataset.NewCSVSource(cfg.Dataset, logger), func() {}, nil
	}

	src, err := dataset.OpenSQLSource(ctx, cfg.Dataset, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s dataset: %w", cfg.Dataset.Source, err)
	}
	return src, func() {
		if err := src.Close(); err != nil {
			logger.Warn("Failed to close dataset connection", zap.Error(err))
		}
	}, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Env == "local" || cfg.Env == "dev" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
