package apperrors

import "errors"

var (
	ErrDatasetUnavailable  = errors.New("dataset unavailable")
	ErrEmptyQuery          = errors.New("no query provided")
	ErrUnknownReportType   = errors.New("unknown report type")
	ErrUnknownChartType    = errors.New("unknown chart type")
	ErrUnknownAnalysisType = errors.New("unknown analysis type")
	ErrInsufficientData    = errors.New("insufficient data")
)
