package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/analytics"
	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/audit"
	"github.com/ekaya-inc/ekaya-insights/pkg/dataset"
	"github.com/ekaya-inc/ekaya-insights/pkg/dispatch"
	"github.com/ekaya-inc/ekaya-insights/pkg/metrics"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/reports"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
	"github.com/ekaya-inc/ekaya-insights/pkg/testhelpers"
)

func newService(t *testing.T, ds *models.Dataset) services.InsightsService {
	t.Helper()
	d, err := dispatch.NewDefault()
	require.NoError(t, err)
	return services.NewInsightsService(
		dataset.NewStaticStore(ds),
		d,
		analytics.RangeValidator{Min: 0, Max: 1_000_000},
		audit.NewSecurityAuditor(zap.NewNop(), false),
		metrics.NewRegistry(),
		analytics.Settings{TopN: 10, RecentOrdersSince: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		zap.NewNop(),
	)
}

func newMux(svc services.InsightsService) *http.ServeMux {
	mux := http.NewServeMux()
	NewInsightsHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func fixtureMux(t *testing.T) *http.ServeMux {
	return newMux(newService(t, testhelpers.FixtureDataset()))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestQuery(t *testing.T) {
	mux := fixtureMux(t)

	rec := do(t, mux, http.MethodPost, "/query", `{"query":"What is the total revenue?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "What is the total revenue?", body["query"])
	assert.Equal(t, true, body["data_grounded"])
	assert.Equal(t, "revenue", body["category"])
	assert.Equal(t, "total_revenue", body["route"])
	assert.Equal(t, map[string]any{"total_revenue": testhelpers.FixtureTotalRevenue}, body["result"])
	assert.NotEmpty(t, body["timestamp"])
	assert.NotEmpty(t, body["query_id"])
}

func TestQuery_Scenarios(t *testing.T) {
	mux := fixtureMux(t)

	t.Run("all customers", func(t *testing.T) {
		rec := do(t, mux, http.MethodPost, "/query", `{"query":"Show me all customers"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[QueryResponse](t, rec)
		customers, ok := body.Result["customers"].([]any)
		require.True(t, ok)
		assert.Len(t, customers, testhelpers.FixtureCustomers)
	})

	t.Run("pending orders", func(t *testing.T) {
		rec := do(t, mux, http.MethodPost, "/query", `{"query":"How many orders are pending?"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[QueryResponse](t, rec)
		assert.Equal(t, float64(testhelpers.FixturePendingOrders), body.Result["pending_orders"])
		assert.Equal(t, testhelpers.FixturePendingRevenue, body.Result["pending_revenue"])
	})

	t.Run("unmatched question gets the fallback", func(t *testing.T) {
		rec := do(t, mux, http.MethodPost, "/query", `{"query":"zzz"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[QueryResponse](t, rec)
		assert.Equal(t, dispatch.RouteFallback, body.Route)
		assert.Contains(t, body.Result, "message")
	})

	t.Run("api prefix", func(t *testing.T) {
		rec := do(t, mux, http.MethodPost, "/api/query", `{"query":"help"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("numeric query", func(t *testing.T) {
		rec := do(t, mux, http.MethodPost, "/query", `{"query":42}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", decodeBody[QueryResponse](t, rec).Query)
	})
}

func TestQuery_BadRequests(t *testing.T) {
	mux := fixtureMux(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"empty query", `{"query":""}`, "empty_query"},
		{"whitespace query", `{"query":"   "}`, "empty_query"},
		{"missing query", `{}`, "empty_query"},
		{"null query", `{"query":null}`, "empty_query"},
		{"no body", ``, "empty_query"},
		{"malformed body", `{"query":`, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodPost, "/query", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeBody[map[string]string](t, rec)["error"])
		})
	}
}

func TestQuery_DatasetUnavailable(t *testing.T) {
	ds := testhelpers.FixtureDataset()
	ds.Orders = nil
	ds.Missing = []models.Table{models.TableOrders}
	mux := newMux(newService(t, ds))

	rec := do(t, mux, http.MethodPost, "/query", `{"query":"How many orders are pending?"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "dataset_unavailable", body["error"])
	assert.Contains(t, body["message"], "orders")

	rec = do(t, mux, http.MethodPost, "/query", `{"query":"How many customers do we have?"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "routines that skip the missing table still answer")
}

func TestQuery_InternalError(t *testing.T) {
	mux := newMux(&mockInsightsService{err: errors.New("boom")})

	rec := do(t, mux, http.MethodPost, "/query", `{"query":"total revenue"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]string{"error": "internal_error", "message": "boom"}, decodeBody[map[string]string](t, rec))
}

func TestTextReport(t *testing.T) {
	mux := fixtureMux(t)

	rec := do(t, mux, http.MethodPost, "/reports/text", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[TextReportResponse](t, rec)
	assert.Equal(t, reports.ReportSummary, body.Type)
	assert.Contains(t, body.Report, "# Business Summary Report")

	rec = do(t, mux, http.MethodPost, "/reports/text", `{"type":"customer"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody[TextReportResponse](t, rec)
	assert.Equal(t, reports.ReportCustomer, body.Type)
	assert.Contains(t, body.Report, "Alice Ng")

	rec = do(t, mux, http.MethodPost, "/reports/text", `{"type":"weekly"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_type", decodeBody[map[string]string](t, rec)["error"])
}

func TestVisualReport(t *testing.T) {
	mux := fixtureMux(t)

	for _, chartType := range reports.ChartTypes {
		t.Run(chartType, func(t *testing.T) {
			rec := do(t, mux, http.MethodPost, "/reports/visual", `{"type":"`+chartType+`"}`)
			require.Equal(t, http.StatusOK, rec.Code)
			body := decodeBody[ChartResponse](t, rec)
			assert.Equal(t, chartType, body.Type)

			var chart reports.Chart
			require.NoError(t, json.Unmarshal([]byte(body.Chart), &chart), "chart is a serialized spec")
			assert.NotEmpty(t, chart.Series)
		})
	}

	rec := do(t, mux, http.MethodPost, "/reports/visual", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_type", decodeBody[map[string]string](t, rec)["error"])

	rec = do(t, mux, http.MethodPost, "/reports/visual", `{"type":"scatter"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_type", decodeBody[map[string]string](t, rec)["error"])
}

func TestSummary(t *testing.T) {
	rec := do(t, fixtureMux(t), http.MethodGet, "/data/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, float64(testhelpers.FixtureCustomers), body["total_customers"])
	assert.Equal(t, float64(testhelpers.FixtureOrderLines), body["total_order_items"])
	assert.Equal(t, testhelpers.FixtureTotalRevenue, body["total_revenue"])
	assert.Equal(t, map[string]any{"Alice Ng": float64(5)}, body["top_customer_by_orders"])
}

func TestSummary_NotLoaded(t *testing.T) {
	d, err := dispatch.NewDefault()
	require.NoError(t, err)
	svc := services.NewInsightsService(
		dataset.NewStore(nil, zap.NewNop()), d, nil,
		audit.NewSecurityAuditor(zap.NewNop(), false), metrics.NewRegistry(),
		analytics.Settings{TopN: 10}, zap.NewNop(),
	)

	rec := do(t, newMux(svc), http.MethodGet, "/data/summary", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdvanced(t *testing.T) {
	mux := fixtureMux(t)

	t.Run("segmentation tiers cover every customer", func(t *testing.T) {
		rec := do(t, mux, http.MethodPost, "/analytics/advanced", `{"type":"customer_segmentation"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[map[string]any](t, rec)
		assert.Equal(t, analytics.AnalysisCustomerSegmentation, body["analysis_type"])
		assert.NotEmpty(t, body["timestamp"])

		analysis := body["analysis"].(map[string]any)
		segments := analysis["customer_segments"].(map[string]any)
		total := 0.0
		for _, tier := range []analytics.Tier{analytics.TierHigh, analytics.TierMedium, analytics.TierLow} {
			total += segments[string(tier)].(map[string]any)["count"].(float64)
		}
		assert.Equal(t, float64(testhelpers.FixtureCustomers), total)
	})

	t.Run("defaults to comprehensive", func(t *testing.T) {
		rec := do(t, mux, http.MethodPost, "/analytics/advanced", `{}`)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[AdvancedResponse](t, rec)
		assert.Equal(t, analytics.AnalysisComprehensive, body.AnalysisType)
		assert.Contains(t, body.Analysis, "business_overview")
	})

	t.Run("unknown type", func(t *testing.T) {
		rec := do(t, mux, http.MethodPost, "/analytics/advanced", `{"type":"forecast"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReload(t *testing.T) {
	t.Run("static store cannot reload", func(t *testing.T) {
		rec := do(t, fixtureMux(t), http.MethodPost, "/data/reload", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("rejected reload", func(t *testing.T) {
		mux := newMux(&mockInsightsService{err: apperrors.ErrDatasetUnavailable})
		rec := do(t, mux, http.MethodPost, "/api/data/reload", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, fixtureMux(t), http.MethodGet, "/query", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
