package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	alertRepository "github.com/allisson/trustlog/internal/alert/repository"
	alertService "github.com/allisson/trustlog/internal/alert/service"
	apperrors "github.com/allisson/trustlog/internal/errors"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	"github.com/allisson/trustlog/internal/retry"
)

type recordingChannel struct {
	kind alertDomain.ChannelKind
	err  error

	mu       sync.Mutex
	payloads []*alertDomain.Payload
	calls    int
}

func (c *recordingChannel) Kind() alertDomain.ChannelKind { return c.kind }

func (c *recordingChannel) Deliver(
	ctx context.Context,
	_ string,
	payload *alertDomain.Payload,
) (alertDomain.DeliveryState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return alertDomain.DeliveryFailed, c.err
	}
	c.payloads = append(c.payloads, payload)
	return alertDomain.DeliveryDelivered, nil
}

func (c *recordingChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

type fixture struct {
	uc           *alertUseCase
	rules        *alertRepository.MemoryRuleRepository
	alerts       *alertRepository.MemoryAlertRepository
	deliveries   *alertRepository.MemoryDeliveryRepository
	suppressions *alertRepository.MemorySuppressionRepository
	log          *recordingChannel
	webhook      *recordingChannel
	tenantID     uuid.UUID
	clock        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	predicates, err := alertService.NewPredicates()
	require.NoError(t, err)

	f := &fixture{
		rules:        alertRepository.NewMemoryRuleRepository(),
		alerts:       alertRepository.NewMemoryAlertRepository(),
		deliveries:   alertRepository.NewMemoryDeliveryRepository(),
		suppressions: alertRepository.NewMemorySuppressionRepository(),
		log:          &recordingChannel{kind: alertDomain.ChannelLog},
		webhook:      &recordingChannel{kind: alertDomain.ChannelWebhook},
		tenantID:     uuid.Must(uuid.NewV7()),
		clock:        time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	f.uc = NewAlertUseCase(
		f.rules, f.alerts, f.deliveries, f.suppressions, predicates,
		[]alertService.Channel{f.log, f.webhook},
		nil,
		Options{
			DeliveryTimeout: time.Second,
			Retry:           retry.Policy{Attempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
		},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	).(*alertUseCase)
	f.uc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.uc.Drain(ctx))
}

func (f *fixture) rule(t *testing.T, input RuleInput) *alertDomain.Rule {
	t.Helper()
	input.TenantID = f.tenantID
	rule, err := f.uc.CreateRule(context.Background(), &input)
	require.NoError(t, err)
	return rule
}

func (f *fixture) sessionRecord(suspicious bool) *recordDomain.Record {
	return &recordDomain.Record{
		ID:         uuid.Must(uuid.NewV7()),
		TenantID:   f.tenantID,
		Kind:       recordDomain.KindSession,
		EntryTime:  f.clock,
		Suspicious: suspicious,
		Session: &recordDomain.SessionRecord{
			IdentityKind:  recordDomain.IdentityNationalID,
			IdentityValue: "12345678901",
			DisplayName:   "X",
		},
	}
}

func (f *fixture) listAlerts(t *testing.T) []*alertDomain.Alert {
	t.Helper()
	alerts, err := f.alerts.List(context.Background(), f.tenantID, "", 0, 100)
	require.NoError(t, err)
	return alerts
}

func TestAlertUseCase_Immediate(t *testing.T) {
	t.Run("Success_SuspiciousSessionFiresOnce", func(t *testing.T) {
		f := newFixture(t)
		f.rule(t, RuleInput{
			Name:       "suspicious session",
			Trigger:    alertDomain.TriggerImmediate,
			EventKinds: []string{alertDomain.EventRecordCommitted},
			Predicate:  `event.suspicious && event.fields.record_kind == "session"`,
			Channels:   []alertDomain.ChannelTarget{{Kind: alertDomain.ChannelWebhook}},
		})

		f.uc.RecordCommitted(context.Background(), f.sessionRecord(true))
		f.uc.RecordCommitted(context.Background(), f.sessionRecord(false))
		f.drain(t)

		alerts := f.listAlerts(t)
		require.Len(t, alerts, 1)
		assert.Equal(t, alertDomain.StatusOpen, alerts[0].Status)
		assert.Equal(t, alertDomain.SeverityMedium, alerts[0].Severity)
		assert.NotContains(t, alerts[0].Fields, "identity_value")
		assert.Equal(t, 1, f.webhook.count())
		assert.Equal(t, 0, f.log.count())

		deliveries, err := f.uc.ListDeliveries(context.Background(), f.tenantID, alerts[0].ID)
		require.NoError(t, err)
		require.Len(t, deliveries, 1)
		assert.Equal(t, alertDomain.DeliveryDelivered, deliveries[0].State)
	})

	t.Run("Success_OtherTenantIgnored", func(t *testing.T) {
		f := newFixture(t)
		f.rule(t, RuleInput{Name: "all", Trigger: alertDomain.TriggerImmediate})

		e := alertDomain.NewEvent(alertDomain.EventSyslogAlert, uuid.Must(uuid.NewV7()), alertDomain.SeverityHigh, "x")
		f.uc.Publish(context.Background(), e)
		f.drain(t)

		assert.Empty(t, f.listAlerts(t))
	})

	t.Run("Success_SeverityFloor", func(t *testing.T) {
		f := newFixture(t)
		f.rule(t, RuleInput{
			Name:          "high only",
			Trigger:       alertDomain.TriggerImmediate,
			SeverityFloor: alertDomain.SeverityHigh,
		})

		f.uc.Publish(context.Background(), alertDomain.NewEvent(alertDomain.EventSyslogAlert, f.tenantID,
			alertDomain.SeverityMedium, "medium"))
		f.uc.Publish(context.Background(), alertDomain.NewEvent(alertDomain.EventSyslogAlert, f.tenantID,
			alertDomain.SeverityCritical, "critical"))
		f.drain(t)

		alerts := f.listAlerts(t)
		require.Len(t, alerts, 1)
		assert.Equal(t, "critical", alerts[0].Title)
		assert.Equal(t, 1, f.log.count())
	})
}

func TestAlertUseCase_Threshold(t *testing.T) {
	f := newFixture(t)
	f.rule(t, RuleInput{
		Name:       "burst",
		Trigger:    alertDomain.TriggerThreshold,
		EventKinds: []string{alertDomain.EventSyslogAlert},
		Threshold:  3,
		Window:     time.Minute,
	})
	publish := func() {
		f.uc.Publish(context.Background(), alertDomain.NewEvent(alertDomain.EventSyslogAlert, f.tenantID,
			alertDomain.SeverityLow, "login failure"))
	}

	publish()
	f.clock = f.clock.Add(2 * time.Minute)
	publish()
	publish()
	assert.Empty(t, f.listAlerts(t), "first hit fell out of the window")

	publish()
	f.drain(t)
	alerts := f.listAlerts(t)
	require.Len(t, alerts, 1)
	assert.Equal(t, 3, alerts[0].EventCount)
}

func TestAlertUseCase_Schedule(t *testing.T) {
	f := newFixture(t)
	f.rule(t, RuleInput{
		Name:    "hourly digest",
		Trigger: alertDomain.TriggerSchedule,
		Window:  time.Hour,
	})
	ctx := context.Background()

	require.NoError(t, f.uc.RunSchedules(ctx))
	assert.Empty(t, f.listAlerts(t), "nothing observed yet")

	for range 4 {
		f.uc.Publish(ctx, alertDomain.NewEvent(alertDomain.EventRetentionSkip, f.tenantID,
			alertDomain.SeverityInfo, "skip"))
	}
	f.clock = f.clock.Add(30 * time.Minute)
	require.NoError(t, f.uc.RunSchedules(ctx))
	assert.Empty(t, f.listAlerts(t), "window not elapsed")

	f.clock = f.clock.Add(31 * time.Minute)
	require.NoError(t, f.uc.RunSchedules(ctx))
	f.drain(t)
	alerts := f.listAlerts(t)
	require.Len(t, alerts, 1)
	assert.Equal(t, 4, alerts[0].EventCount)
}

func TestAlertUseCase_CooldownAndCaps(t *testing.T) {
	t.Run("Cooldown", func(t *testing.T) {
		f := newFixture(t)
		f.rule(t, RuleInput{Name: "r", Trigger: alertDomain.TriggerImmediate, Cooldown: 10 * time.Minute})
		publish := func() {
			f.uc.Publish(context.Background(), alertDomain.NewEvent(alertDomain.EventSyslogAlert, f.tenantID,
				alertDomain.SeverityHigh, "x"))
		}

		publish()
		f.clock = f.clock.Add(5 * time.Minute)
		publish()
		f.clock = f.clock.Add(6 * time.Minute)
		publish()
		f.drain(t)

		assert.Len(t, f.listAlerts(t), 2)
	})

	t.Run("HourlyCap", func(t *testing.T) {
		f := newFixture(t)
		f.rule(t, RuleInput{Name: "r", Trigger: alertDomain.TriggerImmediate, MaxPerHour: 2})

		for range 5 {
			f.uc.Publish(context.Background(), alertDomain.NewEvent(alertDomain.EventSyslogAlert, f.tenantID,
				alertDomain.SeverityHigh, "x"))
			f.clock = f.clock.Add(time.Second)
		}
		f.clock = f.clock.Add(time.Hour)
		f.uc.Publish(context.Background(), alertDomain.NewEvent(alertDomain.EventSyslogAlert, f.tenantID,
			alertDomain.SeverityHigh, "x"))
		f.drain(t)

		assert.Len(t, f.listAlerts(t), 3)
	})
}

func TestAlertUseCase_Suppression(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.rule(t, RuleInput{Name: "r", Trigger: alertDomain.TriggerImmediate})

	device := uuid.Must(uuid.NewV7())
	_, err := f.uc.CreateSuppression(ctx, &SuppressionInput{
		TenantID:   f.tenantID,
		Name:       "firewall maintenance",
		EventKinds: []string{alertDomain.EventSyslogAlert},
		Severities: []alertDomain.Severity{alertDomain.SeverityHigh},
		DeviceIDs:  []uuid.UUID{device},
		StartsAt:   f.clock.Add(-time.Minute),
		EndsAt:     f.clock.Add(time.Hour),
	})
	require.NoError(t, err)

	event := func(title string, severity alertDomain.Severity, deviceID uuid.UUID) *alertDomain.Event {
		e := alertDomain.NewEvent(alertDomain.EventSyslogAlert, f.tenantID, severity, title)
		e.DeviceID = &deviceID
		return e
	}
	f.uc.Publish(ctx, event("inside", alertDomain.SeverityHigh, device))
	f.uc.Publish(ctx, event("other device", alertDomain.SeverityHigh, uuid.Must(uuid.NewV7())))
	f.uc.Publish(ctx, event("other severity", alertDomain.SeverityLow, device))
	f.drain(t)

	suppressed, err := f.uc.ListAlerts(ctx, f.tenantID, alertDomain.StatusSuppressed, 0, 10)
	require.NoError(t, err)
	require.Len(t, suppressed, 1)
	assert.Equal(t, "inside", suppressed[0].Title)
	assert.NotNil(t, suppressed[0].SuppressionID)

	deliveries, err := f.uc.ListDeliveries(ctx, f.tenantID, suppressed[0].ID)
	require.NoError(t, err)
	assert.Empty(t, deliveries)
	assert.Equal(t, 2, f.log.count())

	t.Run("Error_UnknownSeverity", func(t *testing.T) {
		_, err := f.uc.CreateSuppression(ctx, &SuppressionInput{
			TenantID:   f.tenantID,
			Severities: []alertDomain.Severity{"urgent"},
			StartsAt:   f.clock,
			EndsAt:     f.clock.Add(time.Hour),
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Error_InvalidWindow", func(t *testing.T) {
		_, err := f.uc.CreateSuppression(ctx, &SuppressionInput{
			TenantID: f.tenantID,
			StartsAt: f.clock,
			EndsAt:   f.clock,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Error_ForeignRule", func(t *testing.T) {
		id := uuid.Must(uuid.NewV7())
		_, err := f.uc.CreateSuppression(ctx, &SuppressionInput{
			TenantID: f.tenantID,
			RuleID:   &id,
			StartsAt: f.clock,
			EndsAt:   f.clock.Add(time.Hour),
		})
		assert.ErrorIs(t, err, alertDomain.ErrRuleNotFound)
	})
}

func TestAlertUseCase_SystemEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.uc.Publish(ctx, alertDomain.NewEvent(alertDomain.EventIntegrityViolated, f.tenantID,
		alertDomain.SeverityCritical, "signature falsified"))
	f.uc.Publish(ctx, alertDomain.NewEvent(alertDomain.EventRetentionSkip, f.tenantID,
		alertDomain.SeverityInfo, "retention skip"))
	f.uc.Publish(ctx, alertDomain.NewEvent(alertDomain.EventRecordCommitted, f.tenantID,
		alertDomain.SeverityCritical, "record"))
	f.drain(t)

	alerts := f.listAlerts(t)
	require.Len(t, alerts, 1)
	assert.Equal(t, alertDomain.EventIntegrityViolated, alerts[0].EventKind)
	assert.Nil(t, alerts[0].RuleID)
	assert.Equal(t, 1, f.log.count())
}

func TestAlertUseCase_Delivery(t *testing.T) {
	t.Run("Error_ChannelFailsOthersContinue", func(t *testing.T) {
		f := newFixture(t)
		f.webhook.err = apperrors.Wrap(apperrors.ErrUnreachable, "down")
		f.rule(t, RuleInput{
			Name:    "both",
			Trigger: alertDomain.TriggerImmediate,
			Channels: []alertDomain.ChannelTarget{
				{Kind: alertDomain.ChannelWebhook},
				{Kind: alertDomain.ChannelLog},
				{Kind: alertDomain.ChannelKafka},
			},
		})

		f.uc.Publish(context.Background(), alertDomain.NewEvent(alertDomain.EventSyslogAlert, f.tenantID,
			alertDomain.SeverityHigh, "x"))
		f.drain(t)

		alerts := f.listAlerts(t)
		require.Len(t, alerts, 1)
		deliveries, err := f.uc.ListDeliveries(context.Background(), f.tenantID, alerts[0].ID)
		require.NoError(t, err)
		require.Len(t, deliveries, 3)

		states := map[alertDomain.ChannelKind]*alertDomain.Delivery{}
		for _, d := range deliveries {
			states[d.Channel] = d
		}
		assert.Equal(t, alertDomain.DeliveryFailed, states[alertDomain.ChannelWebhook].State)
		assert.Equal(t, 1, states[alertDomain.ChannelWebhook].RetryCount)
		assert.Equal(t, 2, f.webhook.calls)
		assert.Equal(t, alertDomain.DeliveryDelivered, states[alertDomain.ChannelLog].State)
		assert.Equal(t, alertDomain.DeliveryFailed, states[alertDomain.ChannelKafka].State)
		assert.Contains(t, states[alertDomain.ChannelKafka].Error, "unavailable")
	})
}

func TestAlertUseCase_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.uc.Publish(ctx, alertDomain.NewEvent(alertDomain.EventSignatureFailed, f.tenantID,
		alertDomain.SeverityHigh, "signing failed"))
	f.drain(t)
	alert := f.listAlerts(t)[0]
	operatorID := uuid.Must(uuid.NewV7())

	acked, err := f.uc.Acknowledge(ctx, f.tenantID, alert.ID, operatorID)
	require.NoError(t, err)
	assert.Equal(t, alertDomain.StatusAcknowledged, acked.Status)
	assert.Equal(t, operatorID, *acked.AcknowledgedBy)

	_, err = f.uc.Acknowledge(ctx, f.tenantID, alert.ID, operatorID)
	assert.ErrorIs(t, err, alertDomain.ErrInvalidAlertTransition)

	resolved, err := f.uc.Resolve(ctx, f.tenantID, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alertDomain.StatusResolved, resolved.Status)

	_, err = f.uc.Resolve(ctx, f.tenantID, alert.ID)
	assert.ErrorIs(t, err, apperrors.ErrPolicyViolation)

	_, err = f.uc.Resolve(ctx, uuid.Must(uuid.NewV7()), alert.ID)
	assert.ErrorIs(t, err, alertDomain.ErrAlertNotFound)
}

func TestAlertUseCase_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateRule(ctx, &RuleInput{TenantID: f.tenantID, Name: "bad", Predicate: "event.kind =="})
	assert.ErrorIs(t, err, alertDomain.ErrInvalidPredicate)

	rule := f.rule(t, RuleInput{Name: "r", Trigger: alertDomain.TriggerImmediate})
	disabled, err := f.uc.SetRuleActive(ctx, f.tenantID, rule.ID, false)
	require.NoError(t, err)
	assert.False(t, disabled.Active)

	f.uc.Publish(ctx, alertDomain.NewEvent(alertDomain.EventSyslogAlert, f.tenantID, alertDomain.SeverityHigh, "x"))
	f.drain(t)
	assert.Empty(t, f.listAlerts(t))

	require.NoError(t, f.uc.DeleteRule(ctx, f.tenantID, rule.ID))
	_, err = f.uc.GetRule(ctx, f.tenantID, rule.ID)
	assert.True(t, errors.Is(err, alertDomain.ErrRuleNotFound))
}

func TestEventFromRecord(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	flow := &recordDomain.Record{
		ID:         uuid.Must(uuid.NewV7()),
		TenantID:   tenantID,
		Kind:       recordDomain.KindFlow,
		Suspicious: true,
		Flow: &recordDomain.FlowRecord{
			SrcIP:       "198.51.100.7",
			DstIP:       "10.0.0.5",
			DstPort:     3389,
			Protocol:    recordDomain.ProtocolTCP,
			ThreatLevel: recordDomain.ThreatHigh,
		},
	}

	e := EventFromRecord(flow)
	assert.Equal(t, alertDomain.EventRecordCommitted, e.Kind)
	assert.Equal(t, alertDomain.SeverityHigh, e.Severity)
	assert.Equal(t, "198.51.100.7", e.SourceIP)
	assert.Equal(t, 3389, e.Fields["dst_port"])
	assert.Equal(t, flow.ID, *e.RecordID)

	syslog := &recordDomain.Record{
		ID:       uuid.Must(uuid.NewV7()),
		TenantID: tenantID,
		Kind:     recordDomain.KindSyslog,
		Syslog:   &recordDomain.SyslogMessage{Severity: 6, ThreatLevel: recordDomain.ThreatLow},
	}
	assert.Equal(t, alertDomain.SeverityInfo, EventFromRecord(syslog).Severity)
}
