package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

type healthResult struct {
	services.HealthStatus
	Version string `json:"version"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool returns dataset availability and the server version.
func RegisterHealthTool(s *server.MCPServer, svc services.InsightsService, version string) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health, dataset availability and per-table row counts"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(healthResult{HealthStatus: svc.Health(ctx), Version: version})
	})
}
