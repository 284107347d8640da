package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ErrorStatus maps a service error to an HTTP status and error code.
// Anything unrecognised is an internal error.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrEmptyQuery):
		return http.StatusBadRequest, "empty_query"
	case errors.Is(err, apperrors.ErrUnknownReportType),
		errors.Is(err, apperrors.ErrUnknownChartType),
		errors.Is(err, apperrors.ErrUnknownAnalysisType):
		return http.StatusBadRequest, "invalid_type"
	case errors.Is(err, apperrors.ErrDatasetUnavailable):
		return http.StatusServiceUnavailable, "dataset_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}
