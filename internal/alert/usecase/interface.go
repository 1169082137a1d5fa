// Package usecase implements the alert bus: rule evaluation per tenant,
// suppressions, caps and cooldowns, and best-effort delivery fan-out to
// channels with a delivery log.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// RuleRepository persists alert rules.
type RuleRepository interface {
	Create(ctx context.Context, rule *alertDomain.Rule) error
	Update(ctx context.Context, rule *alertDomain.Rule) error
	Get(ctx context.Context, tenantID, ruleID uuid.UUID) (*alertDomain.Rule, error)
	List(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*alertDomain.Rule, error)
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]*alertDomain.Rule, error)
	// ListScheduled returns the active schedule rules of every tenant.
	ListScheduled(ctx context.Context) ([]*alertDomain.Rule, error)
	Delete(ctx context.Context, tenantID, ruleID uuid.UUID) error
}

// AlertRepository persists raised alerts.
type AlertRepository interface {
	Create(ctx context.Context, alert *alertDomain.Alert) error
	Update(ctx context.Context, alert *alertDomain.Alert) error
	Get(ctx context.Context, tenantID, alertID uuid.UUID) (*alertDomain.Alert, error)
	// List filters by status unless it is empty.
	List(
		ctx context.Context,
		tenantID uuid.UUID,
		status alertDomain.Status,
		offset, limit int,
	) ([]*alertDomain.Alert, error)
	CountByRuleSince(ctx context.Context, ruleID uuid.UUID, since time.Time) (int, error)
}

// DeliveryRepository persists the delivery log.
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *alertDomain.Delivery) error
	Update(ctx context.Context, delivery *alertDomain.Delivery) error
	ListByAlert(ctx context.Context, alertID uuid.UUID) ([]*alertDomain.Delivery, error)
}

// SuppressionRepository persists suppressions.
type SuppressionRepository interface {
	Create(ctx context.Context, suppression *alertDomain.Suppression) error
	Get(ctx context.Context, tenantID, suppressionID uuid.UUID) (*alertDomain.Suppression, error)
	List(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*alertDomain.Suppression, error)
	ListActive(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]*alertDomain.Suppression, error)
	Delete(ctx context.Context, tenantID, suppressionID uuid.UUID) error
}

// RuleInput describes a new rule.
type RuleInput struct {
	TenantID      uuid.UUID
	Name          string
	Trigger       alertDomain.Trigger
	EventKinds    []string
	Predicate     string
	Window        time.Duration
	Threshold     int
	SeverityFloor alertDomain.Severity
	Severity      alertDomain.Severity
	Cooldown      time.Duration
	MaxPerHour    int
	MaxPerDay     int
	Channels      []alertDomain.ChannelTarget
}

// SuppressionInput describes a new suppression.
type SuppressionInput struct {
	TenantID   uuid.UUID
	Name       string
	RuleID     *uuid.UUID
	EventKinds []string
	Severities []alertDomain.Severity
	DeviceIDs  []uuid.UUID
	StartsAt   time.Time
	EndsAt     time.Time
	Reason     string
	CreatedBy  *uuid.UUID
}

// AlertUseCase is the alert bus and its operator surface.
type AlertUseCase interface {
	// Publish evaluates the tenant's rules against the event. Failures are
	// logged, never returned to the producer.
	Publish(ctx context.Context, event *alertDomain.Event)

	// RecordCommitted publishes a record.committed event for a durable record.
	RecordCommitted(ctx context.Context, record *recordDomain.Record)

	// RunSchedules fires schedule rules whose window elapsed.
	RunSchedules(ctx context.Context) error

	// Drain waits for in-flight deliveries.
	Drain(ctx context.Context) error

	CreateRule(ctx context.Context, input *RuleInput) (*alertDomain.Rule, error)
	GetRule(ctx context.Context, tenantID, ruleID uuid.UUID) (*alertDomain.Rule, error)
	ListRules(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*alertDomain.Rule, error)
	SetRuleActive(ctx context.Context, tenantID, ruleID uuid.UUID, active bool) (*alertDomain.Rule, error)
	DeleteRule(ctx context.Context, tenantID, ruleID uuid.UUID) error

	GetAlert(ctx context.Context, tenantID, alertID uuid.UUID) (*alertDomain.Alert, error)
	ListAlerts(
		ctx context.Context,
		tenantID uuid.UUID,
		status alertDomain.Status,
		offset, limit int,
	) ([]*alertDomain.Alert, error)
	Acknowledge(ctx context.Context, tenantID, alertID, operatorID uuid.UUID) (*alertDomain.Alert, error)
	Resolve(ctx context.Context, tenantID, alertID uuid.UUID) (*alertDomain.Alert, error)
	ListDeliveries(ctx context.Context, tenantID, alertID uuid.UUID) ([]*alertDomain.Delivery, error)

	CreateSuppression(ctx context.Context, input *SuppressionInput) (*alertDomain.Suppression, error)
	ListSuppressions(
		ctx context.Context,
		tenantID uuid.UUID,
		offset, limit int,
	) ([]*alertDomain.Suppression, error)
	DeleteSuppression(ctx context.Context, tenantID, suppressionID uuid.UUID) error
}
