package domain

import (
	"time"

	"github.com/google/uuid"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// EventKind classifies retention events.
type EventKind string

const (
	EventRetentionSkip   EventKind = "RETENTION_SKIP"
	EventPolicyViolation EventKind = "POLICY_VIOLATION"
	EventArchived        EventKind = "ARCHIVED"
	EventPurged          EventKind = "PURGED"
)

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventRetentionSkip, EventPolicyViolation, EventArchived, EventPurged:
		return true
	}
	return false
}

// Skip reasons.
const (
	ReasonRetentionNotElapsed = "retention_not_elapsed"
	ReasonNotArchived         = "not_archived"
	ReasonArchiveMismatch     = "archive_hash_mismatch"
	ReasonNotVerified         = "signature_not_verified"
	ReasonAutoCleanupDisabled = "auto_cleanup_disabled"
)

// Event is one append-only entry of the retention log.
type Event struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Kind       EventKind
	RecordKind recordDomain.Kind
	RecordID   *uuid.UUID
	JobID      *uuid.UUID
	Reason     string
	CreatedAt  time.Time
}

// NewEvent creates an event.
func NewEvent(
	tenantID uuid.UUID,
	kind EventKind,
	recordKind recordDomain.Kind,
	reason string,
	now time.Time,
) *Event {
	return &Event{
		ID:         uuid.Must(uuid.NewV7()),
		TenantID:   tenantID,
		Kind:       kind,
		RecordKind: recordKind,
		Reason:     reason,
		CreatedAt:  now,
	}
}

// ForRecord sets the record the event is about.
func (e *Event) ForRecord(id uuid.UUID) *Event {
	e.RecordID = &id
	return e
}

// ForJob sets the archive job the event is about.
func (e *Event) ForJob(id uuid.UUID) *Event {
	e.JobID = &id
	return e
}

// Clone returns a deep copy.
func (e *Event) Clone() *Event {
	c := *e
	if e.RecordID != nil {
		id := *e.RecordID
		c.RecordID = &id
	}
	if e.JobID != nil {
		id := *e.JobID
		c.JobID = &id
	}
	return &c
}
