// Package audit provides security audit logging for SIEM consumption.
// Events are written as structured JSON under the "security_audit" logger.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/logging"
	"github.com/ekaya-inc/ekaya-insights/pkg/reqctx"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when libinjection flags a question.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventQueryDispatched is logged for every routed question when enabled (high volume).
	EventQueryDispatched SecurityEventType = "query_dispatched"
)

// SecurityEvent is one auditable event.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	QueryID   uuid.UUID         `json:"query_id"`
	RequestID string            `json:"request_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// InjectionDetails describes a flagged question.
type InjectionDetails struct {
	Field       string `json:"field"`
	Value       string `json:"value"` // truncated
	Fingerprint string `json:"fingerprint"`
	Source      string `json:"source"` // http or mcp
}

// DispatchDetails describes a routed question.
type DispatchDetails struct {
	Question string `json:"question"` // truncated
	Category string `json:"category"`
	Route    string `json:"route"`
	Source   string `json:"source"`
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger     *zap.Logger
	logQueries bool
}

// NewSecurityAuditor creates an auditor on a "security_audit" child logger.
// logQueries enables the per-question LogQueryDispatched events.
func NewSecurityAuditor(logger *zap.Logger, logQueries bool) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit"), logQueries: logQueries}
}

func (a *SecurityAuditor) event(ctx context.Context, eventType SecurityEventType, queryID uuid.UUID, severity string, details any) (SecurityEvent, string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		QueryID:   queryID,
		RequestID: reqctx.RequestID(ctx),
		ClientIP:  reqctx.ClientIP(ctx),
		Details:   details,
		Severity:  severity,
	}
	// Marshaling known types cannot fail.
	eventJSON, _ := json.Marshal(event)
	return event, string(eventJSON)
}

// LogInjectionAttempt records a question flagged by screening.
// This is logged at ERROR level with "critical" severity for alerting.
func (a *SecurityAuditor) LogInjectionAttempt(ctx context.Context, queryID uuid.UUID, details InjectionDetails) {
	details.Value = logging.TruncateForLog(details.Value)
	event, eventJSON := a.event(ctx, EventSQLInjectionAttempt, queryID, "critical", details)

	a.logger.Error("SQL injection pattern in question",
		zap.String("event_json", eventJSON),
		zap.String("query_id", queryID.String()),
		zap.String("request_id", event.RequestID),
		zap.String("field", details.Field),
		zap.String("fingerprint", details.Fingerprint),
		zap.String("source", details.Source),
		zap.String("client_ip", event.ClientIP),
		zap.String("severity", event.Severity),
	)
}

// LogQueryDispatched records where a question was routed. It is a no-op
// unless query logging is enabled.
func (a *SecurityAuditor) LogQueryDispatched(ctx context.Context, queryID uuid.UUID, details DispatchDetails) {
	if !a.logQueries {
		return
	}
	details.Question = logging.TruncateForLog(details.Question)
	event, eventJSON := a.event(ctx, EventQueryDispatched, queryID, "info", details)

	a.logger.Info("Question dispatched",
		zap.String("event_json", eventJSON),
		zap.String("query_id", queryID.String()),
		zap.String("request_id", event.RequestID),
		zap.String("category", details.Category),
		zap.String("route", details.Route),
		zap.String("source", details.Source),
		zap.String("client_ip", event.ClientIP),
		zap.String("severity", event.Severity),
	)
}
