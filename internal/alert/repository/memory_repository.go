package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	apperrors "github.com/allisson/trustlog/internal/errors"
)

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// MemoryRuleRepository keeps rules in process memory in creation order.
type MemoryRuleRepository struct {
	mu    sync.RWMutex
	rules []*alertDomain.Rule
}

func (r *MemoryRuleRepository) find(tenantID, ruleID uuid.UUID) int {
	return slices.IndexFunc(r.rules, func(rule *alertDomain.Rule) bool {
		return rule.ID == ruleID && rule.TenantID == tenantID
	})
}

func (r *MemoryRuleRepository) Create(_ context.Context, rule *alertDomain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.find(rule.TenantID, rule.ID) >= 0 {
		return apperrors.Wrap(apperrors.ErrConflict, "failed to create rule")
	}
	r.rules = append(r.rules, rule.Clone())
	return nil
}

func (r *MemoryRuleRepository) Update(_ context.Context, rule *alertDomain.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.find(rule.TenantID, rule.ID)
	if i < 0 {
		return alertDomain.ErrRuleNotFound
	}
	r.rules[i] = rule.Clone()
	return nil
}

func (r *MemoryRuleRepository) Get(_ context.Context, tenantID, ruleID uuid.UUID) (*alertDomain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.find(tenantID, ruleID)
	if i < 0 {
		return nil, alertDomain.ErrRuleNotFound
	}
	return r.rules[i].Clone(), nil
}

func (r *MemoryRuleRepository) collect(match func(*alertDomain.Rule) bool) []*alertDomain.Rule {
	out := make([]*alertDomain.Rule, 0)
	for _, rule := range r.rules {
		if match(rule) {
			out = append(out, rule.Clone())
		}
	}
	return out
}

func (r *MemoryRuleRepository) List(
	_ context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*alertDomain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return page(r.collect(func(rule *alertDomain.Rule) bool { return rule.TenantID == tenantID }), offset, limit), nil
}

func (r *MemoryRuleRepository) ListActive(_ context.Context, tenantID uuid.UUID) ([]*alertDomain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(rule *alertDomain.Rule) bool {
		return rule.TenantID == tenantID && rule.Active
	}), nil
}

func (r *MemoryRuleRepository) ListScheduled(_ context.Context) ([]*alertDomain.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(rule *alertDomain.Rule) bool {
		return rule.Active && rule.Trigger == alertDomain.TriggerSchedule
	}), nil
}

func (r *MemoryRuleRepository) Delete(_ context.Context, tenantID, ruleID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.find(tenantID, ruleID)
	if i < 0 {
		return alertDomain.ErrRuleNotFound
	}
	r.rules = slices.Delete(r.rules, i, i+1)
	return nil
}

// NewMemoryRuleRepository creates an empty in-memory rule repository.
func NewMemoryRuleRepository() *MemoryRuleRepository {
	return &MemoryRuleRepository{}
}

// MemoryAlertRepository keeps alerts in process memory in creation order.
type MemoryAlertRepository struct {
	mu     sync.RWMutex
	alerts []*alertDomain.Alert
}

func (r *MemoryAlertRepository) Create(_ context.Context, alert *alertDomain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.alerts {
		if a.ID == alert.ID {
			return apperrors.Wrap(apperrors.ErrConflict, "failed to create alert")
		}
	}
	r.alerts = append(r.alerts, alert.Clone())
	return nil
}

func (r *MemoryAlertRepository) Update(_ context.Context, alert *alertDomain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, a := range r.alerts {
		if a.ID == alert.ID && a.TenantID == alert.TenantID {
			r.alerts[i] = alert.Clone()
			return nil
		}
	}
	return alertDomain.ErrAlertNotFound
}

func (r *MemoryAlertRepository) Get(_ context.Context, tenantID, alertID uuid.UUID) (*alertDomain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.alerts {
		if a.ID == alertID && a.TenantID == tenantID {
			return a.Clone(), nil
		}
	}
	return nil, alertDomain.ErrAlertNotFound
}

// List returns alerts newest first.
func (r *MemoryAlertRepository) List(
	_ context.Context,
	tenantID uuid.UUID,
	status alertDomain.Status,
	offset, limit int,
) ([]*alertDomain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*alertDomain.Alert, 0)
	for i := len(r.alerts) - 1; i >= 0; i-- {
		a := r.alerts[i]
		if a.TenantID != tenantID || (status != "" && a.Status != status) {
			continue
		}
		out = append(out, a.Clone())
	}
	return page(out, offset, limit), nil
}

func (r *MemoryAlertRepository) CountByRuleSince(_ context.Context, ruleID uuid.UUID, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, a := range r.alerts {
		if a.RuleID != nil && *a.RuleID == ruleID && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// NewMemoryAlertRepository creates an empty in-memory alert repository.
func NewMemoryAlertRepository() *MemoryAlertRepository {
	return &MemoryAlertRepository{}
}

// MemoryDeliveryRepository keeps the delivery log in process memory.
type MemoryDeliveryRepository struct {
	mu         sync.RWMutex
	deliveries []*alertDomain.Delivery
}

func (r *MemoryDeliveryRepository) Create(_ context.Context, delivery *alertDomain.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := *delivery
	r.deliveries = append(r.deliveries, &d)
	return nil
}

func (r *MemoryDeliveryRepository) Update(_ context.Context, delivery *alertDomain.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, d := range r.deliveries {
		if d.ID == delivery.ID {
			updated := *delivery
			r.deliveries[i] = &updated
			return nil
		}
	}
	return apperrors.Wrap(apperrors.ErrNotFound, "delivery not found")
}

func (r *MemoryDeliveryRepository) ListByAlert(
	_ context.Context,
	alertID uuid.UUID,
) ([]*alertDomain.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*alertDomain.Delivery, 0)
	for _, d := range r.deliveries {
		if d.AlertID == alertID {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

// NewMemoryDeliveryRepository creates an empty in-memory delivery log.
func NewMemoryDeliveryRepository() *MemoryDeliveryRepository {
	return &MemoryDeliveryRepository{}
}

// MemorySuppressionRepository keeps suppressions in process memory.
type MemorySuppressionRepository struct {
	mu           sync.RWMutex
	suppressions []*alertDomain.Suppression
}

// cloneSuppression copies s so callers never share its selector sets.
func cloneSuppression(s *alertDomain.Suppression) *alertDomain.Suppression {
	copied := *s
	copied.EventKinds = slices.Clone(s.EventKinds)
	copied.Severities = slices.Clone(s.Severities)
	copied.DeviceIDs = slices.Clone(s.DeviceIDs)
	return &copied
}

func (r *MemorySuppressionRepository) Create(_ context.Context, s *alertDomain.Suppression) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.suppressions = append(r.suppressions, cloneSuppression(s))
	return nil
}

func (r *MemorySuppressionRepository) Get(
	_ context.Context,
	tenantID, suppressionID uuid.UUID,
) (*alertDomain.Suppression, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.suppressions {
		if s.ID == suppressionID && s.TenantID == tenantID {
			return cloneSuppression(s), nil
		}
	}
	return nil, alertDomain.ErrSuppressionNotFound
}

func (r *MemorySuppressionRepository) List(
	_ context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*alertDomain.Suppression, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*alertDomain.Suppression, 0)
	for _, s := range r.suppressions {
		if s.TenantID == tenantID {
			out = append(out, cloneSuppression(s))
		}
	}
	return page(out, offset, limit), nil
}

func (r *MemorySuppressionRepository) ListActive(
	_ context.Context,
	tenantID uuid.UUID,
	now time.Time,
) ([]*alertDomain.Suppression, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*alertDomain.Suppression, 0)
	for _, s := range r.suppressions {
		if s.TenantID == tenantID && s.ActiveAt(now) {
			out = append(out, cloneSuppression(s))
		}
	}
	return out, nil
}

func (r *MemorySuppressionRepository) Delete(_ context.Context, tenantID, suppressionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.suppressions, func(s *alertDomain.Suppression) bool {
		return s.ID == suppressionID && s.TenantID == tenantID
	})
	if i < 0 {
		return alertDomain.ErrSuppressionNotFound
	}
	r.suppressions = slices.Delete(r.suppressions, i, i+1)
	return nil
}

// NewMemorySuppressionRepository creates an empty in-memory suppression repository.
func NewMemorySuppressionRepository() *MemorySuppressionRepository {
	return &MemorySuppressionRepository{}
}
