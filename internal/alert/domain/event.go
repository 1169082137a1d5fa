// Package domain defines the alert bus model: events published by the other
// components, the per-tenant rules matching them, suppressions, raised alerts
// and the delivery log of every channel attempt.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds published on the bus.
const (
	EventRecordCommitted   = "record.committed"
	EventSyslogAlert       = "syslog.alert"
	EventSignatureFailed   = "signature.failed"
	EventIntegrityViolated = "integrity.violation"
	EventCollectorOverflow = "collector.overflow"
	EventRetentionSkip     = "retention.skip"
	EventArchiveFailed     = "archive.failed"
	EventDossierTampered   = "dossier.tampered"
)

// Severity orders alerts. Rules drop events below their floor.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s ranks at or above floor. An empty floor admits everything.
func (s Severity) AtLeast(floor Severity) bool {
	if floor == "" {
		return true
	}
	return severityRank[s] >= severityRank[floor]
}

// Event is something that happened in a tenant and may raise alerts.
// DeviceID names the network device the event came from, when known.
type Event struct {
	ID         uuid.UUID
	Kind       string
	TenantID   uuid.UUID
	RecordID   *uuid.UUID
	DeviceID   *uuid.UUID
	Severity   Severity
	Title      string
	Suspicious bool
	SourceIP   string
	Fields     map[string]any
	OccurredAt time.Time
}

// NewEvent builds an event with a fresh id.
func NewEvent(kind string, tenantID uuid.UUID, severity Severity, title string) *Event {
	return &Event{
		ID:         uuid.Must(uuid.NewV7()),
		Kind:       kind,
		TenantID:   tenantID,
		Severity:   severity,
		Title:      title,
		Fields:     map[string]any{},
		OccurredAt: time.Now().UTC(),
	}
}

// Activation is the map exposed to rule predicates as `event`.
func (e *Event) Activation() map[string]any {
	m := map[string]any{
		"id":          e.ID.String(),
		"kind":        e.Kind,
		"tenant_id":   e.TenantID.String(),
		"record_id":   "",
		"device_id":   "",
		"severity":    string(e.Severity),
		"title":       e.Title,
		"suspicious":  e.Suspicious,
		"source_ip":   e.SourceIP,
		"occurred_at": e.OccurredAt,
	}
	if e.RecordID != nil {
		m["record_id"] = e.RecordID.String()
	}
	if e.DeviceID != nil {
		m["device_id"] = e.DeviceID.String()
	}
	fields := make(map[string]any, len(e.Fields))
	for k, v := range e.Fields {
		fields[k] = v
	}
	m["fields"] = fields
	return m
}
