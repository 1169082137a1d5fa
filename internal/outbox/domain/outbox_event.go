// Package domain defines the outbox event used for deliveries that must
// survive a restart, such as syslog relaying.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending    OutboxEventStatus = "pending"
	OutboxEventStatusProcessing OutboxEventStatus = "processing"
	OutboxEventStatusProcessed  OutboxEventStatus = "processed"
	OutboxEventStatusFailed     OutboxEventStatus = "failed"
)

// OutboxEvent is a unit of deferred work. Payload is JSON whose shape
// depends on EventType.
type OutboxEvent struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOutboxEvent creates a pending event.
func NewOutboxEvent(tenantID uuid.UUID, eventType, payload string, now time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		TenantID:  tenantID,
		EventType: eventType,
		Payload:   payload,
		Status:    OutboxEventStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
