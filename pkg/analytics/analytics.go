// Package analytics implements the aggregation routines behind business questions.
// Every routine is total: over an empty dataset it returns zero values.
package analytics

import (
	"time"

	"github.com/ekaya-inc/ekaya-insights/pkg/config"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// Result is the JSON object returned for a question or an analysis.
type Result map[string]any

// Settings tunes ranked lists and cutoffs.
type Settings struct {
	// TopN caps ranked lists. Zero means 10.
	TopN int
	// RecentOrdersSince is the "recent orders" cutoff of the comprehensive analysis.
	RecentOrdersSince time.Time
}

// SettingsFromConfig converts the analytics config section.
func SettingsFromConfig(cfg config.AnalyticsConfig) Settings {
	return Settings{TopN: cfg.TopN, RecentOrdersSince: cfg.RecentOrdersSinceDate}
}

func (s Settings) topN() int {
	if s.TopN <= 0 {
		return 10
	}
	return s.TopN
}

// Frame is the input of every routine: one dataset snapshot, its joined view
// and the request's clock.
type Frame struct {
	Data     *models.Dataset
	Rows     []models.JoinedRow
	Now      time.Time
	Settings Settings
}

// NewFrame binds a snapshot and its joined view. A nil dataset is treated as empty.
func NewFrame(ds *models.Dataset, rows []models.JoinedRow, now time.Time, settings Settings) *Frame {
	if ds == nil {
		ds = &models.Dataset{}
	}
	return &Frame{Data: ds, Rows: rows, Now: now, Settings: settings}
}
