// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventAccessDenied is logged when an inactive account attempts a request.
	EventAccessDenied SecurityEventType = "access_denied"
	// EventRoleChange is logged when a user's role set is replaced.
	EventRoleChange SecurityEventType = "role_change"
	// EventStatusChange is logged when an account is suspended, archived, or reactivated.
	EventStatusChange SecurityEventType = "status_change"
)

// SecurityEvent represents an auditable security event with all relevant
// context for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	ActorID   uuid.UUID         `json:"actor_id"`
	SubjectID uuid.UUID         `json:"subject_id,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// RoleChangeDetails contains the before/after role sets of a role change.
type RoleChangeDetails struct {
	NewRoles []string `json:"new_roles"`
}

// StatusChangeDetails contains the new account status.
type StatusChangeDetails struct {
	NewStatus string `json:"new_status"`
}

// AccessDeniedDetails explains why a request was denied before policy
// evaluation.
type AccessDeniedDetails struct {
	AccountStatus string `json:"account_status"`
}

// SecurityAuditor logs security events for SIEM consumption.
// Events are logged in structured JSON format with appropriate severity levels.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger
// namespace. The namespace makes security events easy to filter in SIEM
// systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogAccessDenied records a request by a suspended or archived account.
// Logged at WARN level; repeated events from the same account are a signal
// worth alerting on.
func (a *SecurityAuditor) LogAccessDenied(actorID uuid.UUID, accountStatus string) {
	a.log("Access denied for inactive account", SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventAccessDenied,
		ActorID:   actorID,
		Details:   AccessDeniedDetails{AccountStatus: accountStatus},
		Severity:  "warning",
	})
}

// LogRoleChange records a wholesale replacement of a user's roles.
func (a *SecurityAuditor) LogRoleChange(actorID, subjectID uuid.UUID, newRoles []string) {
	a.log("User roles changed", SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventRoleChange,
		ActorID:   actorID,
		SubjectID: subjectID,
		Details:   RoleChangeDetails{NewRoles: newRoles},
		Severity:  "info",
	})
}

// LogStatusChange records an account status transition.
func (a *SecurityAuditor) LogStatusChange(actorID, subjectID uuid.UUID, newStatus string) {
	a.log("Account status changed", SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventStatusChange,
		ActorID:   actorID,
		SubjectID: subjectID,
		Details:   StatusChangeDetails{NewStatus: newStatus},
		Severity:  "info",
	})
}

func (a *SecurityAuditor) log(msg string, event SecurityEvent) {
	// Serialize event to JSON for SIEM ingestion.
	// Ignoring error as marshaling known types should never fail.
	eventJSON, _ := json.Marshal(event)

	fields := []zap.Field{
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(event.EventType)),
		zap.String("actor_id", event.ActorID.String()),
		zap.String("severity", event.Severity),
	}
	if event.SubjectID != uuid.Nil {
		fields = append(fields, zap.String("subject_id", event.SubjectID.String()))
	}

	switch event.Severity {
	case "critical":
		a.logger.Error(msg, fields...)
	case "warning":
		a.logger.Warn(msg, fields...)
	default:
		a.logger.Info(msg, fields...)
	}
}
