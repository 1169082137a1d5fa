package dto

import (
	"time"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
)

func idString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// AlertResponse is the operator view of an alert.
type AlertResponse struct {
	ID             string         `json:"id"`
	TenantID       string         `json:"tenant_id"`
	RuleID         string         `json:"rule_id,omitempty"`
	EventKind      string         `json:"event_kind"`
	RecordID       string         `json:"record_id,omitempty"`
	Severity       string         `json:"severity"`
	Title          string         `json:"title"`
	Message        string         `json:"message,omitempty"`
	EventCount     int            `json:"event_count"`
	Fields         map[string]any `json:"fields"`
	Status         string         `json:"status"`
	SuppressionID  string         `json:"suppression_id,omitempty"`
	AcknowledgedBy string         `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time     `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// MapAlertToResponse converts an alert to its response body.
func MapAlertToResponse(a *alertDomain.Alert) AlertResponse {
	return AlertResponse{
		ID:             a.ID.String(),
		TenantID:       a.TenantID.String(),
		RuleID:         idString(a.RuleID),
		EventKind:      a.EventKind,
		RecordID:       idString(a.RecordID),
		Severity:       string(a.Severity),
		Title:          a.Title,
		Message:        a.Message,
		EventCount:     a.EventCount,
		Fields:         a.Fields,
		Status:         string(a.Status),
		SuppressionID:  idString(a.SuppressionID),
		AcknowledgedBy: idString(a.AcknowledgedBy),
		AcknowledgedAt: a.AcknowledgedAt,
		ResolvedAt:     a.ResolvedAt,
		CreatedAt:      a.CreatedAt,
	}
}

// ListAlertsResponse is a page of alerts.
type ListAlertsResponse struct {
	Data []AlertResponse `json:"data"`
}

// MapAlertsToListResponse converts alerts to a list response.
func MapAlertsToListResponse(alerts []*alertDomain.Alert) ListAlertsResponse {
	data := make([]AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		data = append(data, MapAlertToResponse(a))
	}
	return ListAlertsResponse{Data: data}
}

// RuleResponse is the operator view of a rule.
type RuleResponse struct {
	ID              string                      `json:"id"`
	TenantID        string                      `json:"tenant_id"`
	Name            string                      `json:"name"`
	Trigger         string                      `json:"trigger"`
	EventKinds      []string                    `json:"event_kinds"`
	Predicate       string                      `json:"predicate,omitempty"`
	WindowSeconds   int64                       `json:"window_seconds"`
	Threshold       int                         `json:"threshold"`
	SeverityFloor   string                      `json:"severity_floor,omitempty"`
	Severity        string                      `json:"severity,omitempty"`
	CooldownSeconds int64                       `json:"cooldown_seconds"`
	MaxPerHour      int                         `json:"max_per_hour"`
	MaxPerDay       int                         `json:"max_per_day"`
	Channels        []alertDomain.ChannelTarget `json:"channels"`
	Active          bool                        `json:"active"`
	LastFiredAt     *time.Time                  `json:"last_fired_at,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// MapRuleToResponse converts a rule to its response body.
func MapRuleToResponse(r *alertDomain.Rule) RuleResponse {
	kinds := r.EventKinds
	if kinds == nil {
		kinds = []string{}
	}
	channels := r.Channels
	if channels == nil {
		channels = []alertDomain.ChannelTarget{}
	}
	return RuleResponse{
		ID:              r.ID.String(),
		TenantID:        r.TenantID.String(),
		Name:            r.Name,
		Trigger:         string(r.Trigger),
		EventKinds:      kinds,
		Predicate:       r.Predicate,
		WindowSeconds:   int64(r.Window.Seconds()),
		Threshold:       r.Threshold,
		SeverityFloor:   string(r.SeverityFloor),
		Severity:        string(r.Severity),
		CooldownSeconds: int64(r.Cooldown.Seconds()),
		MaxPerHour:      r.MaxPerHour,
		MaxPerDay:       r.MaxPerDay,
		Channels:        channels,
		Active:          r.Active,
		LastFiredAt:     r.LastFiredAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// ListRulesResponse is a page of rules.
type ListRulesResponse struct {
	Data []RuleResponse `json:"data"`
}

// MapRulesToListResponse converts rules to a list response.
func MapRulesToListResponse(rules []*alertDomain.Rule) ListRulesResponse {
	data := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		data = append(data, MapRuleToResponse(r))
	}
	return ListRulesResponse{Data: data}
}

// DeliveryResponse is one delivery attempt of an alert.
type DeliveryResponse struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	Target     string    `json:"target,omitempty"`
	State      string    `json:"state"`
	Error      string    `json:"error,omitempty"`
	RetryCount int       `json:"retry_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListDeliveriesResponse lists the deliveries of an alert.
type ListDeliveriesResponse struct {
	Data []DeliveryResponse `json:"data"`
}

// MapDeliveriesToListResponse converts deliveries to a list response.
func MapDeliveriesToListResponse(deliveries []*alertDomain.Delivery) ListDeliveriesResponse {
	data := make([]DeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		data = append(data, DeliveryResponse{
			ID:         d.ID.String(),
			Channel:    string(d.Channel),
			Target:     d.Target,
			State:      string(d.State),
			Error:      d.Error,
			RetryCount: d.RetryCount,
			CreatedAt:  d.CreatedAt,
			UpdatedAt:  d.UpdatedAt,
		})
	}
	return ListDeliveriesResponse{Data: data}
}

// SuppressionResponse is the operator view of a suppression.
type SuppressionResponse struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Name       string    `json:"name"`
	RuleID     string    `json:"rule_id,omitempty"`
	EventKinds []string  `json:"event_kinds"`
	Severities []string  `json:"severities"`
	DeviceIDs  []string  `json:"device_ids"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Reason     string    `json:"reason,omitempty"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MapSuppressionToResponse converts a suppression to its response body.
func MapSuppressionToResponse(s *alertDomain.Suppression) SuppressionResponse {
	kinds := s.EventKinds
	if kinds == nil {
		kinds = []string{}
	}
	severities := make([]string, 0, len(s.Severities))
	for _, severity := range s.Severities {
		severities = append(severities, string(severity))
	}
	devices := make([]string, 0, len(s.DeviceIDs))
	for _, id := range s.DeviceIDs {
		devices = append(devices, id.String())
	}
	return SuppressionResponse{
		ID:         s.ID.String(),
		TenantID:   s.TenantID.String(),
		Name:       s.Name,
		RuleID:     idString(s.RuleID),
		EventKinds: kinds,
		Severities: severities,
		DeviceIDs:  devices,
		StartsAt:   s.StartsAt,
		EndsAt:     s.EndsAt,
		Reason:     s.Reason,
		CreatedBy:  idString(s.CreatedBy),
		CreatedAt:  s.CreatedAt,
	}
}

// ListSuppressionsResponse is a page of suppressions.
type ListSuppressionsResponse struct {
	Data []SuppressionResponse `json:"data"`
}

// MapSuppressionsToListResponse converts suppressions to a list response.
func MapSuppressionsToListResponse(suppressions []*alertDomain.Suppression) ListSuppressionsResponse {
	data := make([]SuppressionResponse, 0, len(suppressions))
	for _, s := range suppressions {
		data = append(data, MapSuppressionToResponse(s))
	}
	return ListSuppressionsResponse{Data: data}
}
