package handlers

import (
	"context"
	"time"

	"github.com/ekaya-inc/ekaya-insights/pkg/analytics"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// mockInsightsService fails every call with err.
type mockInsightsService struct {
	err    error
	health services.HealthStatus
}

var _ services.InsightsService = (*mockInsightsService)(nil)

func (m *mockInsightsService) Query(ctx context.Context, question, source string) (*services.Answer, error) {
	return nil, m.err
}

func (m *mockInsightsService) Summary(ctx context.Context) (analytics.DataSummary, error) {
	return analytics.DataSummary{}, m.err
}

func (m *mockInsightsService) TextReport(ctx context.Context, reportType string) (string, error) {
	return "", m.err
}

func (m *mockInsightsService) Chart(ctx context.Context, chartType string) (string, error) {
	return "", m.err
}

func (m *mockInsightsService) Advanced(ctx context.Context, analysisType string) (analytics.Result, error) {
	return nil, m.err
}

func (m *mockInsightsService) Health(ctx context.Context) services.HealthStatus {
	if m.health.Status == "" {
		return services.HealthStatus{Status: services.StatusDegraded, Timestamp: time.Now()}
	}
	return m.health
}

func (m *mockInsightsService) Reload(ctx context.Context) (map[models.Table]int, error) {
	return nil, m.err
}
