package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
)

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, ErrorResponse(w, http.StatusServiceUnavailable, "dataset_unavailable", "orders not loaded"))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, map[string]string{"error": "dataset_unavailable", "message": "orders not loaded"}, body)
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteJSON(w, http.StatusCreated, map[string]int{"count": 5}))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"count":5}`, w.Body.String())

	err := WriteJSON(httptest.NewRecorder(), http.StatusOK, make(chan int))
	assert.Error(t, err, "channels cannot be encoded")
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.ErrEmptyQuery, http.StatusBadRequest, "empty_query"},
		{fmt.Errorf("%w: %q", apperrors.ErrUnknownReportType, "x"), http.StatusBadRequest, "invalid_type"},
		{fmt.Errorf("%w: %q", apperrors.ErrUnknownChartType, "x"), http.StatusBadRequest, "invalid_type"},
		{fmt.Errorf("%w: %q", apperrors.ErrUnknownAnalysisType, "x"), http.StatusBadRequest, "invalid_type"},
		{fmt.Errorf("revenue/total_revenue: %w", apperrors.ErrDatasetUnavailable), http.StatusServiceUnavailable, "dataset_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, code := ErrorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
