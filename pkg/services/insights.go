package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/analytics"
	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/audit"
	"github.com/ekaya-inc/ekaya-insights/pkg/dataset"
	"github.com/ekaya-inc/ekaya-insights/pkg/dispatch"
	"github.com/ekaya-inc/ekaya-insights/pkg/logging"
	"github.com/ekaya-inc/ekaya-insights/pkg/metrics"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/reports"
	"github.com/ekaya-inc/ekaya-insights/pkg/screening"
)

// Sources of a question, for audit events.
const (
	SourceHTTP = "http"
	SourceMCP  = "mcp"
)

// Health statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Answer is a dispatched question and its result.
type Answer struct {
	QueryID   uuid.UUID
	Question  string
	Decision  dispatch.Decision
	Result    analytics.Result
	Timestamp time.Time
}

// HealthStatus describes the service and its dataset.
type HealthStatus struct {
	Status     string               `json:"status"`
	Timestamp  time.Time            `json:"timestamp"`
	DataLoaded bool                 `json:"data_loaded"`
	LoadedAt   *time.Time           `json:"loaded_at,omitempty"`
	Tables     map[models.Table]int `json:"tables"`
	Missing    []models.Table       `json:"missing_tables,omitempty"`
}

// InsightsService answers business questions against the current dataset snapshot.
type InsightsService interface {
	Query(ctx context.Context, question, source string) (*Answer, error)
	Summary(ctx context.Context) (analytics.DataSummary, error)
	TextReport(ctx context.Context, reportType string) (string, error)
	Chart(ctx context.Context, chartType string) (string, error)
	Advanced(ctx context.Context, analysisType string) (analytics.Result, error)
	Health(ctx context.Context) HealthStatus
	Reload(ctx context.Context) (map[models.Table]int, error)
}

type insightsService struct {
	store      *dataset.Store
	dispatcher *dispatch.Dispatcher
	validator  analytics.Validator
	auditor    *audit.SecurityAuditor
	metrics    *metrics.Registry
	settings   analytics.Settings
	logger     *zap.Logger
	now        func() time.Time
}

var _ InsightsService = (*insightsService)(nil)

// NewInsightsService creates the service. validator may be nil to disable result checks.
func NewInsightsService(
	store *dataset.Store,
	dispatcher *dispatch.Dispatcher,
	validator analytics.Validator,
	auditor *audit.SecurityAuditor,
	registry *metrics.Registry,
	settings analytics.Settings,
	logger *zap.Logger,
) InsightsService {
	return &insightsService{
		store:      store,
		dispatcher: dispatcher,
		validator:  validator,
		auditor:    auditor,
		metrics:    registry,
		settings:   settings,
		logger:     logger.Named("insights"),
		now:        time.Now,
	}
}

// snapshot returns the current dataset. Before the first load every table
// counts as missing.
func (s *insightsService) snapshot() *models.Dataset {
	if ds := s.store.Snapshot(); ds != nil {
		return ds
	}
	return &models.Dataset{Missing: models.AllTables}
}

// frame joins the current snapshot after checking the tables the caller reads.
func (s *insightsService) frame(tables ...models.Table) (*analytics.Frame, error) {
	ds := s.snapshot()
	if err := ds.Require(tables...); err != nil {
		return nil, err
	}
	return analytics.NewFrame(ds, dataset.Join(ds), s.now(), s.settings), nil
}

// Query screens, routes and answers a free-text question.
func (s *insightsService) Query(ctx context.Context, question, source string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.ErrEmptyQuery
	}
	queryID := uuid.New()

	if finding, flagged := screening.Check("query", question); flagged {
		s.metrics.QueriesScreened.Inc()
		s.auditor.LogInjectionAttempt(ctx, queryID, audit.InjectionDetails{
			Field:       finding.Field,
			Value:       question,
			Fingerprint: finding.Fingerprint,
			Source:      source,
		})
	}

	f, err := s.frame()
	if err != nil {
		return nil, err
	}
	decision, result, err := s.dispatcher.Dispatch(f, question)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", decision.Category, decision.Route, err)
	}

	s.metrics.Queries.WithLabelValues(decision.Category).Inc()
	s.auditor.LogQueryDispatched(ctx, queryID, audit.DispatchDetails{
		Question: question,
		Category: decision.Category,
		Route:    decision.Route,
		Source:   source,
	})
	s.logger.Debug("Question answered",
		zap.String("query_id", queryID.String()),
		zap.String("question", logging.TruncateForLog(question)),
		zap.String("category", decision.Category),
		zap.String("route", decision.Route),
	)

	return &Answer{
		QueryID:   queryID,
		Question:  question,
		Decision:  decision,
		Result:    analytics.Annotate(s.validator, result),
		Timestamp: f.Now,
	}, nil
}

// Summary computes the dashboard bundle.
func (s *insightsService) Summary(ctx context.Context) (analytics.DataSummary, error) {
	f, err := s.frame(models.AllTables...)
	if err != nil {
		return analytics.DataSummary{}, err
	}
	return f.Summary(), nil
}

// TextReport renders a text report. An empty type means the summary report.
func (s *insightsService) TextReport(ctx context.Context, reportType string) (string, error) {
	if reportType == "" {
		reportType = reports.ReportSummary
	}
	if !slices.Contains(reports.ReportTypes, reportType) {
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownReportType, reportType)
	}
	f, err := s.frame(models.AllTables...)
	if err != nil {
		return "", err
	}
	return reports.Text(f, reportType)
}

// Chart builds a chart spec and returns it serialized. There is no default chart.
func (s *insightsService) Chart(ctx context.Context, chartType string) (string, error) {
	if !slices.Contains(reports.ChartTypes, chartType) {
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownChartType, chartType)
	}
	f, err := s.frame(models.AllTables...)
	if err != nil {
		return "", err
	}
	chart, err := reports.BuildChart(f, chartType)
	if err != nil {
		return "", err
	}
	return chart.Encode()
}

// Advanced runs an advanced analysis. An empty type means comprehensive.
func (s *insightsService) Advanced(ctx context.Context, analysisType string) (analytics.Result, error) {
	if analysisType == "" {
		analysisType = analytics.AnalysisComprehensive
	}
	if !slices.Contains(analytics.AnalysisTypes, analysisType) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownAnalysisType, analysisType)
	}
	f, err := s.frame(models.AllTables...)
	if err != nil {
		return nil, err
	}
	return f.Advanced(analysisType)
}

// Health reports dataset availability. A partial dataset is degraded, not down.
func (s *insightsService) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusHealthy,
		Timestamp: s.now(),
		Tables:    map[models.Table]int{},
	}
	ds := s.store.Snapshot()
	if ds == nil {
		status.Status = StatusDegraded
		status.Missing = models.AllTables
		return status
	}
	loadedAt := ds.LoadedAt
	status.LoadedAt = &loadedAt
	status.DataLoaded = ds.Complete()
	status.Missing = ds.Missing
	for table, n := range ds.RowCounts() {
		if ds.Has(table) {
			status.Tables[table] = n
		}
	}
	if !status.DataLoaded {
		status.Status = StatusDegraded
	}
	return status
}

// Reload swaps in a freshly loaded dataset and returns its row counts.
func (s *insightsService) Reload(ctx context.Context) (map[models.Table]int, error) {
	ds, err := s.store.Reload(ctx)
	if err != nil {
		return nil, err
	}
	return ds.RowCounts(), nil
}
