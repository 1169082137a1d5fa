package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Suppression silences matching alerts during [StartsAt, EndsAt). Suppressed
// alerts are stored but not dispatched. An empty selector matches anything;
// a non-empty one must contain the event's value.
type Suppression struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Name       string
	RuleID     *uuid.UUID
	EventKinds []string
	Severities []Severity
	DeviceIDs  []uuid.UUID
	StartsAt   time.Time
	EndsAt     time.Time
	Reason     string
	CreatedBy  *uuid.UUID
	CreatedAt  time.Time
}

// ActiveAt reports whether now falls inside the suppression window.
func (s *Suppression) ActiveAt(now time.Time) bool {
	return !now.Before(s.StartsAt) && now.Before(s.EndsAt)
}

// Matches reports whether an event routed through rule is silenced at now.
// rule is nil for alerts raised without a rule. severity is the severity the
// alert is raised with, which a rule may override.
func (s *Suppression) Matches(e *Event, rule *Rule, severity Severity, now time.Time) bool {
	if s.TenantID != e.TenantID || !s.ActiveAt(now) {
		return false
	}
	if s.RuleID != nil && (rule == nil || rule.ID != *s.RuleID) {
		return false
	}
	if len(s.EventKinds) > 0 && !slices.Contains(s.EventKinds, e.Kind) {
		return false
	}
	if len(s.Severities) > 0 && !slices.Contains(s.Severities, severity) {
		return false
	}
	if len(s.DeviceIDs) > 0 && (e.DeviceID == nil || !slices.Contains(s.DeviceIDs, *e.DeviceID)) {
		return false
	}
	return true
}
