package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Trigger decides when a matching event raises an alert.
type Trigger string

const (
	// TriggerImmediate fires on every matching event.
	TriggerImmediate Trigger = "immediate"
	// TriggerEvent fires on every event of the rule's kinds. Kinds are required.
	TriggerEvent Trigger = "event"
	// TriggerCondition fires on every event satisfying the predicate. A predicate is required.
	TriggerCondition Trigger = "condition"
	// TriggerThreshold fires once Threshold matching events arrive within Window.
	TriggerThreshold Trigger = "threshold"
	// TriggerSchedule fires from the scheduler when matching events were seen since the last run.
	TriggerSchedule Trigger = "schedule"
)

// Valid reports whether t is a known trigger.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerImmediate, TriggerEvent, TriggerCondition, TriggerThreshold, TriggerSchedule:
		return true
	}
	return false
}

// ChannelKind names a delivery adapter.
type ChannelKind string

const (
	ChannelLog     ChannelKind = "log"
	ChannelWebhook ChannelKind = "webhook"
	ChannelKafka   ChannelKind = "kafka"
)

// Valid reports whether k is a known channel kind.
func (k ChannelKind) Valid() bool {
	return k == ChannelLog || k == ChannelWebhook || k == ChannelKafka
}

// ChannelTarget is one destination of a rule. Target is the webhook URL or
// Kafka topic; empty means the channel default.
type ChannelTarget struct {
	Kind   ChannelKind `json:"kind"`
	Target string      `json:"target,omitempty"`
}

// Rule routes matching events of one tenant to channels.
type Rule struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	Name          string
	Trigger       Trigger
	EventKinds    []string
	Predicate     string
	Window        time.Duration
	Threshold     int
	SeverityFloor Severity
	// Severity overrides the event severity on raised alerts when set.
	Severity    Severity
	Cooldown    time.Duration
	MaxPerHour  int
	MaxPerDay   int
	Channels    []ChannelTarget
	Active      bool
	LastFiredAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Wants reports whether the rule listens to events of kind.
func (r *Rule) Wants(kind string) bool {
	return len(r.EventKinds) == 0 || slices.Contains(r.EventKinds, kind)
}

// Admits applies the kind and severity filters to an event.
func (r *Rule) Admits(e *Event) bool {
	return r.Active && r.TenantID == e.TenantID && r.Wants(e.Kind) && e.Severity.AtLeast(r.SeverityFloor)
}

// CoolingDown reports whether the rule fired less than Cooldown ago.
func (r *Rule) CoolingDown(now time.Time) bool {
	return r.Cooldown > 0 && r.LastFiredAt != nil && now.Sub(*r.LastFiredAt) < r.Cooldown
}

// Clone returns a deep copy of r.
func (r *Rule) Clone() *Rule {
	out := *r
	out.EventKinds = slices.Clone(r.EventKinds)
	out.Channels = slices.Clone(r.Channels)
	if r.LastFiredAt != nil {
		at := *r.LastFiredAt
		out.LastFiredAt = &at
	}
	return &out
}
