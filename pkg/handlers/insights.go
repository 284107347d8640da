package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/analytics"
	"github.com/ekaya-inc/ekaya-insights/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-insights/pkg/logging"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/reports"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// APIPrefix is the alternate mount point for every insights route.
const APIPrefix = "/api"

// ============================================================================
// Request/Response Types
// ============================================================================

// QueryRequest for POST /query. Query may arrive as any JSON scalar.
type QueryRequest struct {
	Query json.RawMessage `json:"query"`
}

// TypeRequest for the report and analytics endpoints.
type TypeRequest struct {
	Type json.RawMessage `json:"type"`
}

// QueryResponse for POST /query.
type QueryResponse struct {
	QueryID      string           `json:"query_id"`
	Query        string           `json:"query"`
	Category     string           `json:"category"`
	Route        string           `json:"route"`
	Result       analytics.Result `json:"result"`
	Timestamp    time.Time        `json:"timestamp"`
	DataGrounded bool             `json:"data_grounded"`
}

// TextReportResponse for POST /reports/text.
type TextReportResponse struct {
	Report string `json:"report"`
	Type   string `json:"type"`
}

// ChartResponse for POST /reports/visual. Chart is the serialized chart spec.
type ChartResponse struct {
	Chart string `json:"chart"`
	Type  string `json:"type"`
}

// AdvancedResponse for POST /analytics/advanced.
type AdvancedResponse struct {
	AnalysisType string           `json:"analysis_type"`
	Analysis     analytics.Result `json:"analysis"`
	Timestamp    time.Time        `json:"timestamp"`
}

// ReloadResponse for POST /data/reload.
type ReloadResponse struct {
	Status string               `json:"status"`
	Tables map[models.Table]int `json:"tables"`
}

// ============================================================================
// Handler
// ============================================================================

// InsightsHandler serves questions, reports and analytics over HTTP.
type InsightsHandler struct {
	insightsService services.InsightsService
	logger          *zap.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(insightsService services.InsightsService, logger *zap.Logger) *InsightsHandler {
	return &InsightsHandler{
		insightsService: insightsService,
		logger:          logger,
	}
}

// RegisterRoutes registers every route at the root and under APIPrefix.
func (h *InsightsHandler) RegisterRoutes(mux *http.ServeMux) {
	for _, base := range []string{"", APIPrefix} {
		mux.HandleFunc("POST "+base+"/query", h.Query)
		mux.HandleFunc("POST "+base+"/reports/text", h.TextReport)
		mux.HandleFunc("POST "+base+"/reports/visual", h.VisualReport)
		mux.HandleFunc("GET "+base+"/data/summary", h.Summary)
		mux.HandleFunc("POST "+base+"/data/reload", h.Reload)
		mux.HandleFunc("POST "+base+"/analytics/advanced", h.Advanced)
	}
}

// Query handles POST /query
func (h *InsightsHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !h.decode(w, r, &req) {
		return
	}

	answer, err := h.insightsService.Query(r.Context(), jsonutil.FlexibleString(req.Query), services.SourceHTTP)
	if err != nil {
		h.serviceError(w, "query", err)
		return
	}

	response := QueryResponse{
		QueryID:      answer.QueryID.String(),
		Query:        answer.Question,
		Category:     answer.Decision.Category,
		Route:        answer.Decision.Route,
		Result:       answer.Result,
		Timestamp:    answer.Timestamp,
		DataGrounded: true,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// TextReport handles POST /reports/text
func (h *InsightsHandler) TextReport(w http.ResponseWriter, r *http.Request) {
	var req TypeRequest
	if !h.decode(w, r, &req) {
		return
	}
	reportType := jsonutil.FlexibleString(req.Type)

	report, err := h.insightsService.TextReport(r.Context(), reportType)
	if err != nil {
		h.serviceError(w, "text_report", err)
		return
	}
	if reportType == "" {
		reportType = reports.ReportSummary
	}

	if err := WriteJSON(w, http.StatusOK, TextReportResponse{Report: report, Type: reportType}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// VisualReport handles POST /reports/visual
func (h *InsightsHandler) VisualReport(w http.ResponseWriter, r *http.Request) {
	var req TypeRequest
	if !h.decode(w, r, &req) {
		return
	}
	chartType := jsonutil.FlexibleString(req.Type)
	if chartType == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_type", "Chart type is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	chart, err := h.insightsService.Chart(r.Context(), chartType)
	if err != nil {
		h.serviceError(w, "visual_report", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ChartResponse{Chart: chart, Type: chartType}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Summary handles GET /data/summary
func (h *InsightsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.insightsService.Summary(r.Context())
	if err != nil {
		h.serviceError(w, "summary", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, summary); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Advanced handles POST /analytics/advanced
func (h *InsightsHandler) Advanced(w http.ResponseWriter, r *http.Request) {
	var req TypeRequest
	if !h.decode(w, r, &req) {
		return
	}
	analysisType := jsonutil.FlexibleString(req.Type)
	if analysisType == "" {
		analysisType = analytics.AnalysisComprehensive
	}

	analysis, err := h.insightsService.Advanced(r.Context(), analysisType)
	if err != nil {
		h.serviceError(w, "advanced_analytics", err)
		return
	}

	response := AdvancedResponse{
		AnalysisType: analysisType,
		Analysis:     analysis,
		Timestamp:    time.Now().UTC(),
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Reload handles POST /data/reload
func (h *InsightsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	counts, err := h.insightsService.Reload(r.Context())
	if err != nil {
		h.serviceError(w, "reload", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ReloadResponse{Status: "reloaded", Tables: counts}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// decode reads a JSON body into dst. An empty body leaves dst zero-valued.
func (h *InsightsHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
	return false
}

// serviceError logs err and writes the matching error response.
func (h *InsightsHandler) serviceError(w http.ResponseWriter, op string, err error) {
	status, code := ErrorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Insights request failed", zap.String("operation", op), zap.Error(err))
	} else {
		h.logger.Warn("Insights request rejected",
			zap.String("operation", op),
			zap.String("error", logging.TruncateForLog(err.Error())))
	}

	if err := ErrorResponse(w, status, code, err.Error()); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
