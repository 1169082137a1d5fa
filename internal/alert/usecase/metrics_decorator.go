package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	"github.com/allisson/trustlog/internal/metrics"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

type alertUseCaseWithMetrics struct {
	next    AlertUseCase
	metrics metrics.BusinessMetrics
}

// NewAlertUseCaseWithMetrics wraps an AlertUseCase with metrics recording.
func NewAlertUseCaseWithMetrics(useCase AlertUseCase, m metrics.BusinessMetrics) AlertUseCase {
	return &alertUseCaseWithMetrics{next: useCase, metrics: m}
}

func (a *alertUseCaseWithMetrics) Publish(ctx context.Context, event *alertDomain.Event) {
	start := time.Now()
	a.next.Publish(ctx, event)
	metrics.RecordResult(ctx, a.metrics, "alerts", "event_publish", start, nil)
}

func (a *alertUseCaseWithMetrics) RecordCommitted(ctx context.Context, record *recordDomain.Record) {
	start := time.Now()
	a.next.RecordCommitted(ctx, record)
	metrics.RecordResult(ctx, a.metrics, "alerts", "record_observe", start, nil)
}

func (a *alertUseCaseWithMetrics) RunSchedules(ctx context.Context) error {
	start := time.Now()
	err := a.next.RunSchedules(ctx)
	metrics.RecordResult(ctx, a.metrics, "alerts", "schedule_run", start, err)
	return err
}

func (a *alertUseCaseWithMetrics) Drain(ctx context.Context) error {
	return a.next.Drain(ctx)
}

func (a *alertUseCaseWithMetrics) CreateRule(ctx context.Context, input *RuleInput) (*alertDomain.Rule, error) {
	start := time.Now()
	rule, err := a.next.CreateRule(ctx, input)
	metrics.RecordResult(ctx, a.metrics, "alerts", "rule_create", start, err)
	return rule, err
}

func (a *alertUseCaseWithMetrics) GetRule(ctx context.Context, tenantID, ruleID uuid.UUID) (*alertDomain.Rule, error) {
	start := time.Now()
	rule, err := a.next.GetRule(ctx, tenantID, ruleID)
	metrics.RecordResult(ctx, a.metrics, "alerts", "rule_get", start, err)
	return rule, err
}

func (a *alertUseCaseWithMetrics) ListRules(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*alertDomain.Rule, error) {
	start := time.Now()
	rules, err := a.next.ListRules(ctx, tenantID, offset, limit)
	metrics.RecordResult(ctx, a.metrics, "alerts", "rule_list", start, err)
	return rules, err
}

func (a *alertUseCaseWithMetrics) SetRuleActive(
	ctx context.Context,
	tenantID, ruleID uuid.UUID,
	active bool,
) (*alertDomain.Rule, error) {
	start := time.Now()
	rule, err := a.next.SetRuleActive(ctx, tenantID, ruleID, active)
	metrics.RecordResult(ctx, a.metrics, "alerts", "rule_update", start, err)
	return rule, err
}

func (a *alertUseCaseWithMetrics) DeleteRule(ctx context.Context, tenantID, ruleID uuid.UUID) error {
	start := time.Now()
	err := a.next.DeleteRule(ctx, tenantID, ruleID)
	metrics.RecordResult(ctx, a.metrics, "alerts", "rule_delete", start, err)
	return err
}

func (a *alertUseCaseWithMetrics) GetAlert(
	ctx context.Context,
	tenantID, alertID uuid.UUID,
) (*alertDomain.Alert, error) {
	start := time.Now()
	alert, err := a.next.GetAlert(ctx, tenantID, alertID)
	metrics.RecordResult(ctx, a.metrics, "alerts", "alert_get", start, err)
	return alert, err
}

func (a *alertUseCaseWithMetrics) ListAlerts(
	ctx context.Context,
	tenantID uuid.UUID,
	status alertDomain.Status,
	offset, limit int,
) ([]*alertDomain.Alert, error) {
	start := time.Now()
	alerts, err := a.next.ListAlerts(ctx, tenantID, status, offset, limit)
	metrics.RecordResult(ctx, a.metrics, "alerts", "alert_list", start, err)
	return alerts, err
}

func (a *alertUseCaseWithMetrics) Acknowledge(
	ctx context.Context,
	tenantID, alertID, operatorID uuid.UUID,
) (*alertDomain.Alert, error) {
	start := time.Now()
	alert, err := a.next.Acknowledge(ctx, tenantID, alertID, operatorID)
	metrics.RecordResult(ctx, a.metrics, "alerts", "alert_acknowledge", start, err)
	return alert, err
}

func (a *alertUseCaseWithMetrics) Resolve(
	ctx context.Context,
	tenantID, alertID uuid.UUID,
) (*alertDomain.Alert, error) {
	start := time.Now()
	alert, err := a.next.Resolve(ctx, tenantID, alertID)
	metrics.RecordResult(ctx, a.metrics, "alerts", "alert_resolve", start, err)
	return alert, err
}

func (a *alertUseCaseWithMetrics) ListDeliveries(
	ctx context.Context,
	tenantID, alertID uuid.UUID,
) ([]*alertDomain.Delivery, error) {
	start := time.Now()
	deliveries, err := a.next.ListDeliveries(ctx, tenantID, alertID)
	metrics.RecordResult(ctx, a.metrics, "alerts", "delivery_list", start, err)
	return deliveries, err
}

func (a *alertUseCaseWithMetrics) CreateSuppression(
	ctx context.Context,
	input *SuppressionInput,
) (*alertDomain.Suppression, error) {
	start := time.Now()
	suppression, err := a.next.CreateSuppression(ctx, input)
	metrics.RecordResult(ctx, a.metrics, "alerts", "suppression_create", start, err)
	return suppression, err
}

func (a *alertUseCaseWithMetrics) ListSuppressions(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*alertDomain.Suppression, error) {
	start := time.Now()
	suppressions, err := a.next.ListSuppressions(ctx, tenantID, offset, limit)
	metrics.RecordResult(ctx, a.metrics, "alerts", "suppression_list", start, err)
	return suppressions, err
}

func (a *alertUseCaseWithMetrics) DeleteSuppression(ctx context.Context, tenantID, suppressionID uuid.UUID) error {
	start := time.Now()
	err := a.next.DeleteSuppression(ctx, tenantID, suppressionID)
	metrics.RecordResult(ctx, a.metrics, "alerts", "suppression_delete", start, err)
	return err
}
