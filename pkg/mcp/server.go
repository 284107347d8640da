// Package mcp exposes the insights service as an MCP server over streamable HTTP.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// ServerName is reported to MCP clients during initialize.
const ServerName = "ekaya-insights"

// Server wraps the mcp-go MCPServer with the insights tools registered.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates an MCP server carrying the health and insights tools.
// Tool calls are reported through audit's hooks.
func NewServer(version string, svc services.InsightsService, audit *AuditLogger, logger *zap.Logger) *Server {
	opts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	}
	if audit != nil {
		opts = append(opts, server.WithHooks(audit.Hooks()))
	}
	mcpServer := server.NewMCPServer(ServerName, version, opts...)

	tools.RegisterHealthTool(mcpServer, svc, version)
	tools.RegisterInsightsTools(mcpServer, &tools.InsightsToolDeps{
		Service: svc,
		Logger:  logger.Named("mcp-tools"),
	})

	return &Server{
		mcp:    mcpServer,
		logger: logger,
	}
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates a stateless HTTP transport for this server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// RegisterTool adds an extra tool alongside the built-in ones.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}
