package domain

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Status is the operator-facing state of an alert.
type Status string

const (
	StatusOpen         Status = "open"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	// StatusSuppressed alerts are recorded but never dispatched.
	StatusSuppressed Status = "suppressed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusAcknowledged, StatusResolved, StatusSuppressed:
		return true
	}
	return false
}

// Alert is raised when a rule fires, or when a high severity system event
// matches no rule.
type Alert struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	RuleID         *uuid.UUID
	EventID        uuid.UUID
	EventKind      string
	RecordID       *uuid.UUID
	Severity       Severity
	Title          string
	Message        string
	EventCount     int
	Fields         map[string]any
	Status         Status
	SuppressionID  *uuid.UUID
	AcknowledgedBy *uuid.UUID
	AcknowledgedAt *time.Time
	ResolvedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAlert builds an open alert for an event.
func NewAlert(e *Event, rule *Rule, count int, now time.Time) *Alert {
	a := &Alert{
		ID:         uuid.Must(uuid.NewV7()),
		TenantID:   e.TenantID,
		EventID:    e.ID,
		EventKind:  e.Kind,
		RecordID:   e.RecordID,
		Severity:   e.Severity,
		Title:      e.Title,
		EventCount: count,
		Fields:     maps.Clone(e.Fields),
		Status:     StatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if rule != nil {
		id := rule.ID
		a.RuleID = &id
		a.Message = rule.Name
		if rule.Severity != "" {
			a.Severity = rule.Severity
		}
	}
	if a.Fields == nil {
		a.Fields = map[string]any{}
	}
	return a
}

// Acknowledge marks an open alert as seen by an operator.
func (a *Alert) Acknowledge(operatorID uuid.UUID, now time.Time) error {
	if a.Status != StatusOpen {
		return ErrInvalidAlertTransition
	}
	a.Status = StatusAcknowledged
	a.AcknowledgedBy = &operatorID
	a.AcknowledgedAt = &now
	a.UpdatedAt = now
	return nil
}

// Resolve closes an open or acknowledged alert.
func (a *Alert) Resolve(now time.Time) error {
	if a.Status != StatusOpen && a.Status != StatusAcknowledged {
		return ErrInvalidAlertTransition
	}
	a.Status = StatusResolved
	a.ResolvedAt = &now
	a.UpdatedAt = now
	return nil
}

// Payload is the message handed to channels.
func (a *Alert) Payload() *Payload {
	p := &Payload{
		AlertID:    a.ID.String(),
		TenantID:   a.TenantID.String(),
		EventKind:  a.EventKind,
		Severity:   string(a.Severity),
		Title:      a.Title,
		Message:    a.Message,
		EventCount: a.EventCount,
		Fields:     maps.Clone(a.Fields),
		OccurredAt: a.CreatedAt,
	}
	if a.RecordID != nil {
		p.RecordID = a.RecordID.String()
	}
	if a.RuleID != nil {
		p.RuleID = a.RuleID.String()
	}
	return p
}

// Clone returns a deep copy of a.
func (a *Alert) Clone() *Alert {
	out := *a
	out.Fields = maps.Clone(a.Fields)
	out.RuleID = cloneID(a.RuleID)
	out.RecordID = cloneID(a.RecordID)
	out.SuppressionID = cloneID(a.SuppressionID)
	out.AcknowledgedBy = cloneID(a.AcknowledgedBy)
	out.AcknowledgedAt = cloneTime(a.AcknowledgedAt)
	out.ResolvedAt = cloneTime(a.ResolvedAt)
	return &out
}

// Payload is the JSON document delivered to channels.
type Payload struct {
	AlertID    string         `json:"alert_id"`
	TenantID   string         `json:"tenant_id"`
	RuleID     string         `json:"rule_id,omitempty"`
	EventKind  string         `json:"event_kind"`
	RecordID   string         `json:"record_id,omitempty"`
	Severity   string         `json:"severity"`
	Title      string         `json:"title"`
	Message    string         `json:"message,omitempty"`
	EventCount int            `json:"event_count"`
	Fields     map[string]any `json:"fields,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
