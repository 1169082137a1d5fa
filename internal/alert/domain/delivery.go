package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryState tracks one channel attempt.
type DeliveryState string

const (
	DeliveryPending   DeliveryState = "pending"
	DeliverySending   DeliveryState = "sending"
	DeliverySent      DeliveryState = "sent"
	DeliveryDelivered DeliveryState = "delivered"
	DeliveryFailed    DeliveryState = "failed"
	DeliveryCancelled DeliveryState = "cancelled"
)

// Delivery is the log row of one alert sent to one channel.
type Delivery struct {
	ID         uuid.UUID
	AlertID    uuid.UUID
	TenantID   uuid.UUID
	Channel    ChannelKind
	Target     string
	State      DeliveryState
	Error      string
	RetryCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewDelivery returns a pending delivery of alert to target.
func NewDelivery(alert *Alert, target ChannelTarget, now time.Time) *Delivery {
	return &Delivery{
		ID:        uuid.Must(uuid.NewV7()),
		AlertID:   alert.ID,
		TenantID:  alert.TenantID,
		Channel:   target.Kind,
		Target:    target.Target,
		State:     DeliveryPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
