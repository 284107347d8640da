// Package tools registers the insights MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/analytics"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// InsightsToolDeps contains dependencies for the insights tools.
type InsightsToolDeps struct {
	Service services.InsightsService
	Logger  *zap.Logger
}

type queryResult struct {
	QueryID      string           `json:"query_id"`
	Query        string           `json:"query"`
	Category     string           `json:"category"`
	Route        string           `json:"route"`
	Result       analytics.Result `json:"result"`
	Timestamp    time.Time        `json:"timestamp"`
	DataGrounded bool             `json:"data_grounded"`
}

type advancedResult struct {
	AnalysisType string           `json:"analysis_type"`
	Analysis     analytics.Result `json:"analysis"`
	Timestamp    time.Time        `json:"timestamp"`
}

// RegisterInsightsTools adds query_business_data, data_summary and
// advanced_analytics to the MCP server.
func RegisterInsightsTools(s *server.MCPServer, deps *InsightsToolDeps) {
	registerQueryTool(s, deps)
	registerSummaryTool(s, deps)
	registerAdvancedTool(s, deps)
}

func registerQueryTool(s *server.MCPServer, deps *InsightsToolDeps) {
	tool := mcp.NewTool(
		"query_business_data",
		mcp.WithDescription("Answers a plain-English question about customers, orders, products or revenue "+
			"from the loaded business dataset. Ask \"help\" for example questions."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question, e.g. \"What is the total revenue?\""),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := strings.TrimSpace(req.GetString("query", ""))

		answer, err := deps.Service.Query(ctx, question, services.SourceMCP)
		if err != nil {
			if result := errorResult(err); result != nil {
				return result, nil
			}
			deps.Logger.Error("query_business_data failed", zap.Error(err))
			return nil, fmt.Errorf("query failed: %w", err)
		}

		return jsonResult(queryResult{
			QueryID:      answer.QueryID.String(),
			Query:        answer.Question,
			Category:     answer.Decision.Category,
			Route:        answer.Decision.Route,
			Result:       answer.Result,
			Timestamp:    answer.Timestamp,
			DataGrounded: true,
		})
	})
}

func registerSummaryTool(s *server.MCPServer, deps *InsightsToolDeps) {
	tool := mcp.NewTool(
		"data_summary",
		mcp.WithDescription("Returns dataset totals, total revenue, average order value, "+
			"the most active customer and the best-selling product"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summary, err := deps.Service.Summary(ctx)
		if err != nil {
			if result := errorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("summary failed: %w", err)
		}
		return jsonResult(summary)
	})
}

func registerAdvancedTool(s *server.MCPServer, deps *InsightsToolDeps) {
	tool := mcp.NewTool(
		"advanced_analytics",
		mcp.WithDescription("Runs a deeper analysis: a comprehensive business review, "+
			"customer segmentation by spend, or product performance"),
		mcp.WithString("type",
			mcp.Description("Analysis type; defaults to comprehensive"),
			mcp.Enum(analysisTypes()...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		analysisType := strings.TrimSpace(req.GetString("type", ""))
		if analysisType == "" {
			analysisType = analytics.AnalysisComprehensive
		}

		analysis, err := deps.Service.Advanced(ctx, analysisType)
		if err != nil {
			if result := errorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("advanced analytics failed: %w", err)
		}

		return jsonResult(advancedResult{
			AnalysisType: analysisType,
			Analysis:     analysis,
			Timestamp:    time.Now().UTC(),
		})
	})
}

func analysisTypes() []string {
	return append([]string(nil), analytics.AnalysisTypes...)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}
