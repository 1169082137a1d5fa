package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	alertService "github.com/allisson/trustlog/internal/alert/service"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/metrics"
	"github.com/allisson/trustlog/internal/retry"
)

// Options tune delivery.
type Options struct {
	// DeliveryTimeout bounds one channel delivery including retries.
	DeliveryTimeout time.Duration
	// MaxInFlight bounds concurrent channel deliveries.
	MaxInFlight int
	Retry       retry.Policy
}

// systemEvents raise an alert even when no rule matches them, provided they
// are at least high severity.
var systemEvents = map[string]bool{
	alertDomain.EventSignatureFailed:   true,
	alertDomain.EventIntegrityViolated: true,
	alertDomain.EventCollectorOverflow: true,
	alertDomain.EventArchiveFailed:     true,
	alertDomain.EventDossierTampered:   true,
}

var defaultTargets = []alertDomain.ChannelTarget{{Kind: alertDomain.ChannelLog}}

// ruleState holds the in-memory trigger state of one rule.
type ruleState struct {
	hits    []time.Time
	pending int
	last    *alertDomain.Event
	lastRun time.Time
}

type alertUseCase struct {
	ruleRepo        RuleRepository
	alertRepo       AlertRepository
	deliveryRepo    DeliveryRepository
	suppressionRepo SuppressionRepository
	predicates      *alertService.Predicates
	channels        map[alertDomain.ChannelKind]alertService.Channel
	pipeline        metrics.PipelineMetrics
	opts            Options
	logger          *slog.Logger
	now             func() time.Time

	tenantLocks sync.Map

	stateMu sync.Mutex
	states  map[uuid.UUID]*ruleState

	inflight sync.WaitGroup
	sem      chan struct{}
}

func (u *alertUseCase) tenantLock(tenantID uuid.UUID) *sync.Mutex {
	mu, _ := u.tenantLocks.LoadOrStore(tenantID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (u *alertUseCase) state(ruleID uuid.UUID) *ruleState {
	u.stateMu.Lock()
	defer u.stateMu.Unlock()

	st, ok := u.states[ruleID]
	if !ok {
		st = &ruleState{}
		u.states[ruleID] = st
	}
	return st
}

func (u *alertUseCase) dropState(ruleID uuid.UUID) {
	u.stateMu.Lock()
	delete(u.states, ruleID)
	u.stateMu.Unlock()
}

// Publish evaluates rules of the event's tenant one event at a time.
func (u *alertUseCase) Publish(ctx context.Context, event *alertDomain.Event) {
	if event == nil {
		return
	}
	if err := u.publish(ctx, event); err != nil {
		u.logger.Error("failed to evaluate alert rules",
			slog.String("tenant_id", event.TenantID.String()),
			slog.String("event_kind", event.Kind),
			slog.Any("error", err),
		)
	}
}

func (u *alertUseCase) publish(ctx context.Context, event *alertDomain.Event) error {
	mu := u.tenantLock(event.TenantID)
	mu.Lock()
	defer mu.Unlock()

	rules, err := u.ruleRepo.ListActive(ctx, event.TenantID)
	if err != nil {
		return err
	}

	now := u.now()
	matched := false
	for _, rule := range rules {
		if !rule.Admits(event) {
			continue
		}
		ok, err := u.predicates.Match(rule.Predicate, event)
		if err != nil {
			u.logger.Warn("rule predicate failed",
				slog.String("rule_id", rule.ID.String()),
				slog.Any("error", err),
			)
			continue
		}
		if !ok {
			continue
		}
		matched = true

		switch rule.Trigger {
		case alertDomain.TriggerThreshold:
			count, fire := u.observeThreshold(rule, now)
			if fire {
				if err := u.raise(ctx, rule, event, count, now); err != nil {
					return err
				}
			}
		case alertDomain.TriggerSchedule:
			st := u.state(rule.ID)
			st.pending++
			st.last = event
		default:
			if err := u.raise(ctx, rule, event, 1, now); err != nil {
				return err
			}
		}
	}

	if !matched && systemEvents[event.Kind] && event.Severity.AtLeast(alertDomain.SeverityHigh) {
		return u.raise(ctx, nil, event, 1, now)
	}
	return nil
}

// observeThreshold records a hit and reports whether the window holds enough
// hits. Firing resets the window.
func (u *alertUseCase) observeThreshold(rule *alertDomain.Rule, now time.Time) (int, bool) {
	st := u.state(rule.ID)

	if rule.Window > 0 {
		cutoff := now.Add(-rule.Window)
		kept := st.hits[:0]
		for _, at := range st.hits {
			if at.After(cutoff) {
				kept = append(kept, at)
			}
		}
		st.hits = kept
	}
	st.hits = append(st.hits, now)

	threshold := max(rule.Threshold, 1)
	if len(st.hits) < threshold {
		return len(st.hits), false
	}
	count := len(st.hits)
	st.hits = nil
	return count, true
}

// raise stores an alert for the event and dispatches it unless suppressed.
// rule is nil for unrouted system events.
func (u *alertUseCase) raise(
	ctx context.Context,
	rule *alertDomain.Rule,
	event *alertDomain.Event,
	count int,
	now time.Time,
) error {
	if rule != nil {
		if rule.CoolingDown(now) {
			u.logger.Debug("rule cooling down", slog.String("rule_id", rule.ID.String()))
			return nil
		}
		if err := u.checkCaps(ctx, rule, now); err != nil {
			if errors.Is(err, alertDomain.ErrRuleCapped) {
				u.logger.Warn("rule alert cap reached", slog.String("rule_id", rule.ID.String()))
				return nil
			}
			return err
		}
	}

	alert := alertDomain.NewAlert(event, rule, count, now)

	suppressions, err := u.suppressionRepo.ListActive(ctx, event.TenantID, now)
	if err != nil {
		return err
	}
	for _, s := range suppressions {
		if s.Matches(event, rule, alert.Severity, now) {
			id := s.ID
			alert.Status = alertDomain.StatusSuppressed
			alert.SuppressionID = &id
			break
		}
	}

	if err := u.alertRepo.Create(ctx, alert); err != nil {
		return err
	}

	targets := defaultTargets
	if rule != nil {
		rule.LastFiredAt = &now
		rule.UpdatedAt = now
		if err := u.ruleRepo.Update(ctx, rule); err != nil {
			return err
		}
		if len(rule.Channels) > 0 {
			targets = rule.Channels
		}
	}

	if alert.Status == alertDomain.StatusSuppressed {
		u.pipeline.RecordEvent(ctx, "alerts", "suppressed", 1)
		return nil
	}
	u.pipeline.RecordEvent(ctx, "alerts", "raised", 1)
	u.dispatch(ctx, alert, targets)
	return nil
}

func (u *alertUseCase) checkCaps(ctx context.Context, rule *alertDomain.Rule, now time.Time) error {
	caps := []struct {
		limit  int
		window time.Duration
	}{
		{rule.MaxPerHour, time.Hour},
		{rule.MaxPerDay, 24 * time.Hour},
	}
	for _, c := range caps {
		if c.limit <= 0 {
			continue
		}
		n, err := u.alertRepo.CountByRuleSince(ctx, rule.ID, now.Add(-c.window))
		if err != nil {
			return err
		}
		if n >= c.limit {
			return alertDomain.ErrRuleCapped
		}
	}
	return nil
}

// dispatch logs a pending delivery per target and hands each one to a
// background worker.
func (u *alertUseCase) dispatch(ctx context.Context, alert *alertDomain.Alert, targets []alertDomain.ChannelTarget) {
	payload := alert.Payload()
	detached := context.WithoutCancel(ctx)

	for _, target := range targets {
		delivery := alertDomain.NewDelivery(alert, target, u.now())
		if err := u.deliveryRepo.Create(ctx, delivery); err != nil {
			u.logger.Error("failed to log alert delivery",
				slog.String("alert_id", alert.ID.String()),
				slog.Any("error", err),
			)
			continue
		}

		u.inflight.Add(1)
		go func() {
			defer u.inflight.Done()
			u.sem <- struct{}{}
			defer func() { <-u.sem }()
			u.deliver(detached, delivery, payload)
		}()
	}
}

func (u *alertUseCase) deliver(ctx context.Context, delivery *alertDomain.Delivery, payload *alertDomain.Payload) {
	logger := u.logger.With(
		slog.String("alert_id", delivery.AlertID.String()),
		slog.String("channel", string(delivery.Channel)),
	)

	channel, ok := u.channels[delivery.Channel]
	if !ok {
		delivery.State = alertDomain.DeliveryFailed
		delivery.Error = alertDomain.ErrChannelUnavailable.Error()
		u.finishDelivery(ctx, delivery, logger)
		return
	}

	delivery.State = alertDomain.DeliverySending
	delivery.UpdatedAt = u.now()
	if err := u.deliveryRepo.Update(ctx, delivery); err != nil {
		logger.Error("failed to update alert delivery", slog.Any("error", err))
	}

	callCtx, cancel := context.WithTimeout(ctx, u.opts.DeliveryTimeout)
	defer cancel()

	attempts := 0
	var state alertDomain.DeliveryState
	err := retry.Do(callCtx, u.opts.Retry, func(ctx context.Context) error {
		attempts++
		var err error
		state, err = channel.Deliver(ctx, delivery.Target, payload)
		return err
	})

	delivery.RetryCount = max(attempts-1, 0)
	switch {
	case err == nil:
		delivery.State = state
		delivery.Error = ""
	case errors.Is(err, context.Canceled):
		delivery.State = alertDomain.DeliveryCancelled
		delivery.Error = err.Error()
	default:
		delivery.State = alertDomain.DeliveryFailed
		delivery.Error = err.Error()
	}
	u.finishDelivery(ctx, delivery, logger)
}

func (u *alertUseCase) finishDelivery(ctx context.Context, delivery *alertDomain.Delivery, logger *slog.Logger) {
	delivery.UpdatedAt = u.now()
	if err := u.deliveryRepo.Update(ctx, delivery); err != nil {
		logger.Error("failed to update alert delivery", slog.Any("error", err))
	}
	if delivery.State == alertDomain.DeliveryFailed {
		logger.Warn("alert delivery failed", slog.String("error", delivery.Error))
	}
	u.pipeline.RecordEvent(ctx, "alerts", string(delivery.State), 1)
}

// RunSchedules fires each schedule rule whose window elapsed and that saw at
// least max(threshold, 1) matching events since its last run.
func (u *alertUseCase) RunSchedules(ctx context.Context) error {
	rules, err := u.ruleRepo.ListScheduled(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, rule := range rules {
		if err := u.runSchedule(ctx, rule); err != nil {
			errs = append(errs, err)
		}
	}
	return apperrors.Join(errs...)
}

func (u *alertUseCase) runSchedule(ctx context.Context, rule *alertDomain.Rule) error {
	mu := u.tenantLock(rule.TenantID)
	mu.Lock()
	defer mu.Unlock()

	now := u.now()
	st := u.state(rule.ID)
	if !st.lastRun.IsZero() && now.Sub(st.lastRun) < rule.Window {
		return nil
	}
	st.lastRun = now

	if st.pending < max(rule.Threshold, 1) || st.last == nil {
		return nil
	}
	count, event := st.pending, st.last
	st.pending, st.last = 0, nil
	return u.raise(ctx, rule, event, count, now)
}

// Drain waits until in-flight deliveries finish or ctx is done.
func (u *alertUseCase) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		u.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreateRule stores an active rule after compiling its predicate.
func (u *alertUseCase) CreateRule(ctx context.Context, input *RuleInput) (*alertDomain.Rule, error) {
	if err := u.predicates.Validate(input.Predicate); err != nil {
		return nil, err
	}

	now := u.now()
	rule := &alertDomain.Rule{
		ID:            uuid.Must(uuid.NewV7()),
		TenantID:      input.TenantID,
		Name:          input.Name,
		Trigger:       input.Trigger,
		EventKinds:    input.EventKinds,
		Predicate:     input.Predicate,
		Window:        input.Window,
		Threshold:     input.Threshold,
		SeverityFloor: input.SeverityFloor,
		Severity:      input.Severity,
		Cooldown:      input.Cooldown,
		MaxPerHour:    input.MaxPerHour,
		MaxPerDay:     input.MaxPerDay,
		Channels:      input.Channels,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := u.ruleRepo.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (u *alertUseCase) GetRule(ctx context.Context, tenantID, ruleID uuid.UUID) (*alertDomain.Rule, error) {
	return u.ruleRepo.Get(ctx, tenantID, ruleID)
}

func (u *alertUseCase) ListRules(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*alertDomain.Rule, error) {
	return u.ruleRepo.List(ctx, tenantID, offset, limit)
}

// SetRuleActive toggles a rule. Trigger state is discarded either way.
func (u *alertUseCase) SetRuleActive(
	ctx context.Context,
	tenantID, ruleID uuid.UUID,
	active bool,
) (*alertDomain.Rule, error) {
	mu := u.tenantLock(tenantID)
	mu.Lock()
	defer mu.Unlock()

	rule, err := u.ruleRepo.Get(ctx, tenantID, ruleID)
	if err != nil {
		return nil, err
	}
	rule.Active = active
	rule.UpdatedAt = u.now()
	if err := u.ruleRepo.Update(ctx, rule); err != nil {
		return nil, err
	}
	u.dropState(ruleID)
	return rule, nil
}

func (u *alertUseCase) DeleteRule(ctx context.Context, tenantID, ruleID uuid.UUID) error {
	mu := u.tenantLock(tenantID)
	mu.Lock()
	defer mu.Unlock()

	if err := u.ruleRepo.Delete(ctx, tenantID, ruleID); err != nil {
		return err
	}
	u.dropState(ruleID)
	return nil
}

func (u *alertUseCase) GetAlert(ctx context.Context, tenantID, alertID uuid.UUID) (*alertDomain.Alert, error) {
	return u.alertRepo.Get(ctx, tenantID, alertID)
}

func (u *alertUseCase) ListAlerts(
	ctx context.Context,
	tenantID uuid.UUID,
	status alertDomain.Status,
	offset, limit int,
) ([]*alertDomain.Alert, error) {
	return u.alertRepo.List(ctx, tenantID, status, offset, limit)
}

func (u *alertUseCase) Acknowledge(
	ctx context.Context,
	tenantID, alertID, operatorID uuid.UUID,
) (*alertDomain.Alert, error) {
	alert, err := u.alertRepo.Get(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}
	if err := alert.Acknowledge(operatorID, u.now()); err != nil {
		return nil, err
	}
	if err := u.alertRepo.Update(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (u *alertUseCase) Resolve(ctx context.Context, tenantID, alertID uuid.UUID) (*alertDomain.Alert, error) {
	alert, err := u.alertRepo.Get(ctx, tenantID, alertID)
	if err != nil {
		return nil, err
	}
	if err := alert.Resolve(u.now()); err != nil {
		return nil, err
	}
	if err := u.alertRepo.Update(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (u *alertUseCase) ListDeliveries(
	ctx context.Context,
	tenantID, alertID uuid.UUID,
) ([]*alertDomain.Delivery, error) {
	if _, err := u.alertRepo.Get(ctx, tenantID, alertID); err != nil {
		return nil, err
	}
	return u.deliveryRepo.ListByAlert(ctx, alertID)
}

// CreateSuppression stores a suppression. A referenced rule must belong to
// the same tenant.
func (u *alertUseCase) CreateSuppression(
	ctx context.Context,
	input *SuppressionInput,
) (*alertDomain.Suppression, error) {
	if !input.EndsAt.After(input.StartsAt) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "suppression must end after it starts")
	}
	for _, severity := range input.Severities {
		if !severity.Valid() {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown suppression severity "+string(severity))
		}
	}
	if input.RuleID != nil {
		if _, err := u.ruleRepo.Get(ctx, input.TenantID, *input.RuleID); err != nil {
			return nil, err
		}
	}

	suppression := &alertDomain.Suppression{
		ID:         uuid.Must(uuid.NewV7()),
		TenantID:   input.TenantID,
		Name:       input.Name,
		RuleID:     input.RuleID,
		EventKinds: input.EventKinds,
		Severities: input.Severities,
		DeviceIDs:  input.DeviceIDs,
		StartsAt:   input.StartsAt.UTC(),
		EndsAt:     input.EndsAt.UTC(),
		Reason:     input.Reason,
		CreatedBy:  input.CreatedBy,
		CreatedAt:  u.now(),
	}
	if err := u.suppressionRepo.Create(ctx, suppression); err != nil {
		return nil, err
	}
	return suppression, nil
}

func (u *alertUseCase) ListSuppressions(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*alertDomain.Suppression, error) {
	return u.suppressionRepo.List(ctx, tenantID, offset, limit)
}

func (u *alertUseCase) DeleteSuppression(ctx context.Context, tenantID, suppressionID uuid.UUID) error {
	return u.suppressionRepo.Delete(ctx, tenantID, suppressionID)
}

// NewAlertUseCase creates the alert bus. Channels are keyed by their kind.
func NewAlertUseCase(
	ruleRepo RuleRepository,
	alertRepo AlertRepository,
	deliveryRepo DeliveryRepository,
	suppressionRepo SuppressionRepository,
	predicates *alertService.Predicates,
	channels []alertService.Channel,
	pipeline metrics.PipelineMetrics,
	opts Options,
	logger *slog.Logger,
) AlertUseCase {
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = 5 * time.Second
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 16
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = retry.Default
	}
	if pipeline == nil {
		pipeline = metrics.NewNoOpPipelineMetrics()
	}

	byKind := make(map[alertDomain.ChannelKind]alertService.Channel, len(channels))
	for _, ch := range channels {
		byKind[ch.Kind()] = ch
	}

	return &alertUseCase{
		ruleRepo:        ruleRepo,
		alertRepo:       alertRepo,
		deliveryRepo:    deliveryRepo,
		suppressionRepo: suppressionRepo,
		predicates:      predicates,
		channels:        byKind,
		pipeline:        pipeline,
		opts:            opts,
		logger:          logger.With("component", "alert-bus"),
		now:             func() time.Time { return time.Now().UTC() },
		states:          make(map[uuid.UUID]*ruleState),
		sem:             make(chan struct{}, opts.MaxInFlight),
	}
}
