// Package dto provides request and response bodies for the alert endpoints.
package dto

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	alertUseCase "github.com/allisson/trustlog/internal/alert/usecase"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

// ChannelRequest is one delivery target of a rule.
type ChannelRequest struct {
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

// CreateRuleRequest creates an alert rule. Durations are in seconds.
type CreateRuleRequest struct {
	Name            string           `json:"name"`
	Trigger         string           `json:"trigger"`
	EventKinds      []string         `json:"event_kinds"`
	Predicate       string           `json:"predicate"`
	WindowSeconds   int64            `json:"window_seconds"`
	Threshold       int              `json:"threshold"`
	SeverityFloor   string           `json:"severity_floor"`
	Severity        string           `json:"severity"`
	CooldownSeconds int64            `json:"cooldown_seconds"`
	MaxPerHour      int              `json:"max_per_hour"`
	MaxPerDay       int              `json:"max_per_day"`
	Channels        []ChannelRequest `json:"channels"`
}

func severityRule(value any) error {
	s, _ := value.(string)
	if s == "" || alertDomain.Severity(s).Valid() {
		return nil
	}
	return validation.NewError("validation_severity", "must be one of info, low, medium, high, critical")
}

// Validate checks the rule shape. Predicates are compiled by the use case.
func (r *CreateRuleRequest) Validate() error {
	trigger := alertDomain.Trigger(r.Trigger)
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&r.Trigger, validation.Required, validation.By(func(any) error {
			if !trigger.Valid() {
				return validation.NewError("validation_trigger",
					"must be one of immediate, event, condition, threshold, schedule")
			}
			return nil
		})),
		validation.Field(&r.EventKinds,
			validation.When(trigger == alertDomain.TriggerEvent, validation.Required),
			validation.Each(validation.Required, customValidation.NoWhitespace),
		),
		validation.Field(&r.Predicate,
			validation.When(trigger == alertDomain.TriggerCondition, validation.Required, customValidation.NotBlank),
			validation.Length(0, 4096),
		),
		validation.Field(&r.WindowSeconds,
			validation.Min(int64(0)),
			validation.When(trigger == alertDomain.TriggerThreshold || trigger == alertDomain.TriggerSchedule,
				validation.Required),
		),
		validation.Field(&r.Threshold,
			validation.Min(0),
			validation.When(trigger == alertDomain.TriggerThreshold, validation.Required),
		),
		validation.Field(&r.SeverityFloor, validation.By(severityRule)),
		validation.Field(&r.Severity, validation.By(severityRule)),
		validation.Field(&r.CooldownSeconds, validation.Min(int64(0))),
		validation.Field(&r.MaxPerHour, validation.Min(0)),
		validation.Field(&r.MaxPerDay, validation.Min(0)),
		validation.Field(&r.Channels, validation.Each(validation.By(func(value any) error {
			ch, _ := value.(ChannelRequest)
			return validation.ValidateStruct(&ch,
				validation.Field(&ch.Kind, validation.Required, validation.By(func(any) error {
					if !alertDomain.ChannelKind(ch.Kind).Valid() {
						return validation.NewError("validation_channel", "must be one of log, webhook, kafka")
					}
					return nil
				})),
				validation.Field(&ch.Target,
					validation.When(ch.Kind == string(alertDomain.ChannelWebhook) && ch.Target != "",
						customValidation.HTTPURL),
					validation.Length(0, 2048),
				),
			)
		}))),
	)
}

// ToInput converts the request to a use case input.
func (r *CreateRuleRequest) ToInput(tenantID uuid.UUID) *alertUseCase.RuleInput {
	channels := make([]alertDomain.ChannelTarget, 0, len(r.Channels))
	for _, ch := range r.Channels {
		channels = append(channels, alertDomain.ChannelTarget{
			Kind:   alertDomain.ChannelKind(ch.Kind),
			Target: ch.Target,
		})
	}
	return &alertUseCase.RuleInput{
		TenantID:      tenantID,
		Name:          r.Name,
		Trigger:       alertDomain.Trigger(r.Trigger),
		EventKinds:    r.EventKinds,
		Predicate:     r.Predicate,
		Window:        time.Duration(r.WindowSeconds) * time.Second,
		Threshold:     r.Threshold,
		SeverityFloor: alertDomain.Severity(r.SeverityFloor),
		Severity:      alertDomain.Severity(r.Severity),
		Cooldown:      time.Duration(r.CooldownSeconds) * time.Second,
		MaxPerHour:    r.MaxPerHour,
		MaxPerDay:     r.MaxPerDay,
		Channels:      channels,
	}
}

// CreateSuppressionRequest creates a suppression window.
type CreateSuppressionRequest struct {
	Name       string      `json:"name"`
	RuleID     *uuid.UUID  `json:"rule_id"`
	EventKinds []string    `json:"event_kinds"`
	Severities []string    `json:"severities"`
	DeviceIDs  []uuid.UUID `json:"device_ids"`
	StartsAt   time.Time   `json:"starts_at"`
	EndsAt     time.Time   `json:"ends_at"`
	Reason     string      `json:"reason"`
}

// Validate checks the suppression shape.
func (r *CreateSuppressionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&r.EventKinds, validation.Each(
			validation.Required, customValidation.NoWhitespace, validation.Length(1, 64),
		)),
		validation.Field(&r.Severities, validation.Each(validation.Required, validation.By(severityRule))),
		validation.Field(&r.DeviceIDs, validation.Each(validation.By(func(value any) error {
			if id, _ := value.(uuid.UUID); id == uuid.Nil {
				return validation.NewError("validation_device_id", "must be a non-nil uuid")
			}
			return nil
		}))),
		validation.Field(&r.StartsAt, validation.Required),
		validation.Field(&r.EndsAt, validation.Required, validation.Min(r.StartsAt).Exclusive()),
		validation.Field(&r.Reason, validation.Length(0, 1024)),
	)
}

// ToInput converts the request to a use case input.
func (r *CreateSuppressionRequest) ToInput(tenantID uuid.UUID, createdBy *uuid.UUID) *alertUseCase.SuppressionInput {
	severities := make([]alertDomain.Severity, 0, len(r.Severities))
	for _, s := range r.Severities {
		severities = append(severities, alertDomain.Severity(s))
	}
	return &alertUseCase.SuppressionInput{
		TenantID:   tenantID,
		Name:       r.Name,
		RuleID:     r.RuleID,
		EventKinds: r.EventKinds,
		Severities: severities,
		DeviceIDs:  r.DeviceIDs,
		StartsAt:   r.StartsAt,
		EndsAt:     r.EndsAt,
		Reason:     r.Reason,
		CreatedBy:  createdBy,
	}
}
