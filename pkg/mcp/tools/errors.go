package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use it for errors the caller can act on; internal failures stay Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context,
// such as the accepted values for a bad argument.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	jsonBytes, _ := json.Marshal(ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	})
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// errorResult converts a service error into a structured tool error. It
// returns nil for errors that are not the caller's to fix.
func errorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperrors.ErrEmptyQuery):
		return NewErrorResult("empty_query", "query must not be empty")
	case errors.Is(err, apperrors.ErrUnknownAnalysisType):
		return NewErrorResultWithDetails("invalid_type", err.Error(), map[string]any{"valid_types": analysisTypes()})
	case errors.Is(err, apperrors.ErrDatasetUnavailable):
		return NewErrorResult("dataset_unavailable", err.Error())
	}
	return nil
}
