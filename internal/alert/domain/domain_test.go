package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func TestRule_Admits(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	rule := &Rule{
		ID:            uuid.Must(uuid.NewV7()),
		TenantID:      tenantID,
		Trigger:       TriggerEvent,
		EventKinds:    []string{EventSyslogAlert},
		SeverityFloor: SeverityMedium,
		Active:        true,
	}

	assert.True(t, rule.Admits(NewEvent(EventSyslogAlert, tenantID, SeverityHigh, "x")))
	assert.False(t, rule.Admits(NewEvent(EventSyslogAlert, tenantID, SeverityLow, "x")), "below floor")
	assert.False(t, rule.Admits(NewEvent(EventRecordCommitted, tenantID, SeverityHigh, "x")), "other kind")
	assert.False(t, rule.Admits(NewEvent(EventSyslogAlert, uuid.Must(uuid.NewV7()), SeverityHigh, "x")),
		"other tenant")

	rule.Active = false
	assert.False(t, rule.Admits(NewEvent(EventSyslogAlert, tenantID, SeverityHigh, "x")))
}

func TestRule_CoolingDown(t *testing.T) {
	rule := &Rule{Cooldown: 10 * time.Minute}
	assert.False(t, rule.CoolingDown(now))

	fired := now.Add(-5 * time.Minute)
	rule.LastFiredAt = &fired
	assert.True(t, rule.CoolingDown(now))
	assert.False(t, rule.CoolingDown(now.Add(5*time.Minute)))
}

func TestAlert_Transitions(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	rule := &Rule{ID: uuid.Must(uuid.NewV7()), Name: "rdp from outside", Severity: SeverityCritical}
	e := NewEvent(EventRecordCommitted, tenantID, SeverityMedium, "flow")
	e.Fields["dst_port"] = 3389

	alert := NewAlert(e, rule, 2, now)
	assert.Equal(t, StatusOpen, alert.Status)
	assert.Equal(t, SeverityCritical, alert.Severity)
	assert.Equal(t, "rdp from outside", alert.Message)
	assert.Equal(t, rule.ID, *alert.RuleID)

	e.Fields["dst_port"] = 22
	assert.Equal(t, 3389, alert.Fields["dst_port"], "fields are copied")

	t.Run("Error_ResolveSuppressed", func(t *testing.T) {
		suppressed := alert.Clone()
		suppressed.Status = StatusSuppressed
		assert.ErrorIs(t, suppressed.Resolve(now), ErrInvalidAlertTransition)
		assert.ErrorIs(t, suppressed.Acknowledge(uuid.Must(uuid.NewV7()), now), ErrInvalidAlertTransition)
	})

	operatorID := uuid.Must(uuid.NewV7())
	require.NoError(t, alert.Acknowledge(operatorID, now.Add(time.Minute)))
	assert.Equal(t, StatusAcknowledged, alert.Status)
	require.NoError(t, alert.Resolve(now.Add(2*time.Minute)))
	assert.Equal(t, StatusResolved, alert.Status)
	assert.Equal(t, now.Add(2*time.Minute), *alert.ResolvedAt)

	payload := alert.Payload()
	assert.Equal(t, alert.ID.String(), payload.AlertID)
	assert.Equal(t, rule.ID.String(), payload.RuleID)
	assert.Equal(t, "critical", payload.Severity)
}

func TestSuppression_Matches(t *testing.T) {
	tenantID := uuid.Must(uuid.NewV7())
	ruleID := uuid.Must(uuid.NewV7())
	deviceID := uuid.Must(uuid.NewV7())
	otherDevice := uuid.Must(uuid.NewV7())
	rule := &Rule{ID: ruleID}

	event := func(kind string, device *uuid.UUID) *Event {
		e := NewEvent(kind, tenantID, SeverityHigh, "x")
		e.DeviceID = device
		return e
	}
	window := func(s Suppression) *Suppression {
		s.TenantID = tenantID
		s.StartsAt = now
		s.EndsAt = now.Add(time.Hour)
		return &s
	}

	tests := []struct {
		name        string
		suppression *Suppression
		event       *Event
		rule        *Rule
		severity    Severity
		at          time.Time
		want        bool
	}{
		{
			name:        "EmptySelectorsMatchAnything",
			suppression: window(Suppression{}),
			event:       event(EventSyslogAlert, nil),
			severity:    SeverityLow,
			at:          now,
			want:        true,
		},
		{
			name:        "WindowEndIsExclusive",
			suppression: window(Suppression{}),
			event:       event(EventSyslogAlert, nil),
			severity:    SeverityLow,
			at:          now.Add(time.Hour),
		},
		{
			name:        "OtherTenant",
			suppression: &Suppression{TenantID: uuid.Must(uuid.NewV7()), StartsAt: now, EndsAt: now.Add(time.Hour)},
			event:       event(EventSyslogAlert, nil),
			severity:    SeverityLow,
			at:          now,
		},
		{
			name:        "Rule_Matches",
			suppression: window(Suppression{RuleID: &ruleID}),
			event:       event(EventSyslogAlert, nil),
			rule:        rule,
			severity:    SeverityHigh,
			at:          now,
			want:        true,
		},
		{
			name:        "Rule_AlertWithoutRule",
			suppression: window(Suppression{RuleID: &ruleID}),
			event:       event(EventSyslogAlert, nil),
			severity:    SeverityHigh,
			at:          now,
		},
		{
			name:        "Rule_OtherRule",
			suppression: window(Suppression{RuleID: &ruleID}),
			event:       event(EventSyslogAlert, nil),
			rule:        &Rule{ID: uuid.Must(uuid.NewV7())},
			severity:    SeverityHigh,
			at:          now,
		},
		{
			name:        "EventKinds_InSet",
			suppression: window(Suppression{EventKinds: []string{EventRetentionSkip, EventSyslogAlert}}),
			event:       event(EventSyslogAlert, nil),
			severity:    SeverityHigh,
			at:          now,
			want:        true,
		},
		{
			name:        "EventKinds_NotInSet",
			suppression: window(Suppression{EventKinds: []string{EventRetentionSkip}}),
			event:       event(EventSyslogAlert, nil),
			severity:    SeverityHigh,
			at:          now,
		},
		{
			name:        "Severities_InSet",
			suppression: window(Suppression{Severities: []Severity{SeverityLow, SeverityMedium}}),
			event:       event(EventSyslogAlert, nil),
			severity:    SeverityMedium,
			at:          now,
			want:        true,
		},
		{
			name:        "Severities_NotInSet",
			suppression: window(Suppression{Severities: []Severity{SeverityLow, SeverityMedium}}),
			event:       event(EventSyslogAlert, nil),
			severity:    SeverityCritical,
			at:          now,
		},
		{
			name:        "DeviceIDs_InSet",
			suppression: window(Suppression{DeviceIDs: []uuid.UUID{otherDevice, deviceID}}),
			event:       event(EventSyslogAlert, &deviceID),
			severity:    SeverityHigh,
			at:          now,
			want:        true,
		},
		{
			name:        "DeviceIDs_NotInSet",
			suppression: window(Suppression{DeviceIDs: []uuid.UUID{otherDevice}}),
			event:       event(EventSyslogAlert, &deviceID),
			severity:    SeverityHigh,
			at:          now,
		},
		{
			name:        "DeviceIDs_EventWithoutDevice",
			suppression: window(Suppression{DeviceIDs: []uuid.UUID{deviceID}}),
			event:       event(EventSyslogAlert, nil),
			severity:    SeverityHigh,
			at:          now,
		},
		{
			name: "AllSelectorsMustMatch",
			suppression: window(Suppression{
				EventKinds: []string{EventSyslogAlert},
				Severities: []Severity{SeverityHigh},
				DeviceIDs:  []uuid.UUID{otherDevice},
			}),
			event:    event(EventSyslogAlert, &deviceID),
			severity: SeverityHigh,
			at:       now,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.suppression.Matches(tt.event, tt.rule, tt.severity, tt.at))
		})
	}
}

func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityInfo.AtLeast(""))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
	assert.True(t, SeverityMedium.Valid())
	assert.False(t, Severity("urgent").Valid())
}
