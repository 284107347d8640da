package mcp

import (
	"context"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/logging"
	"github.com/ekaya-inc/ekaya-insights/pkg/reqctx"
)

// Tool call outcomes.
const (
	EventToolCall  = "tool_call"
	EventToolError = "tool_error"
)

const maxPreviewLength = 200

// AuditLogger records MCP tool calls to the structured log.
type AuditLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by JSON-RPC request id.
	startTimes sync.Map
}

// NewAuditLogger creates an AuditLogger that records MCP events.
func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	return &AuditLogger{logger: logger.Named("mcp-audit")}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *AuditLogger) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	fields := a.baseFields(ctx, id, req)
	if result != nil && result.IsError {
		a.logger.Warn("MCP tool call",
			append(fields,
				zap.String("event_type", EventToolError),
				zap.String("preview", resultPreview(result)))...)
		return
	}
	a.logger.Info("MCP tool call", append(fields, zap.String("event_type", EventToolCall))...)
}

func (a *AuditLogger) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}
	a.logger.Error("MCP tool call failed",
		append(a.baseFields(ctx, id, req),
			zap.String("event_type", EventToolError),
			zap.Error(err))...)
}

func (a *AuditLogger) baseFields(ctx context.Context, id any, req *mcplib.CallToolRequest) []zap.Field {
	start, _ := a.loadAndDeleteStart(id)
	return []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Any("arguments", sanitizeParams(req.Params.Arguments)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.String("request_id", reqctx.RequestID(ctx)),
		zap.String("client_ip", reqctx.ClientIP(ctx)),
	}
}

func (a *AuditLogger) loadAndDeleteStart(id any) (time.Time, bool) {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time), true
	}
	return time.Now(), false
}

// sanitizeParams flattens and truncates string arguments. Non-object
// arguments are dropped.
func sanitizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}
	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok {
			sanitized[k] = logging.TruncateForLog(s)
			continue
		}
		sanitized[k] = v
	}
	return sanitized
}

// resultPreview returns the start of the first text content.
func resultPreview(result *mcplib.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			text := tc.Text
			if len(text) > maxPreviewLength {
				text = text[:maxPreviewLength] + "...[truncated]"
			}
			return text
		}
	}
	return ""
}
