package service

import (
	"context"
	"log/slog"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
)

// Channel is a message sink. Deliver returns the state reached on success:
// delivered when the receiver confirmed, sent when only the transport did.
type Channel interface {
	Kind() alertDomain.ChannelKind
	Deliver(ctx context.Context, target string, payload *alertDomain.Payload) (alertDomain.DeliveryState, error)
}

// LogChannel writes alerts to the structured log.
type LogChannel struct {
	logger *slog.Logger
}

// NewLogChannel creates a log channel.
func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger.With("component", "alert-log-channel")}
}

// Kind returns ChannelLog.
func (c *LogChannel) Kind() alertDomain.ChannelKind {
	return alertDomain.ChannelLog
}

// Deliver logs the payload at a level derived from its severity.
func (c *LogChannel) Deliver(
	ctx context.Context,
	_ string,
	payload *alertDomain.Payload,
) (alertDomain.DeliveryState, error) {
	level := slog.LevelInfo
	if alertDomain.Severity(payload.Severity).AtLeast(alertDomain.SeverityHigh) {
		level = slog.LevelWarn
	}
	c.logger.Log(ctx, level, "alert raised",
		slog.String("alert_id", payload.AlertID),
		slog.String("tenant_id", payload.TenantID),
		slog.String("event_kind", payload.EventKind),
		slog.String("severity", payload.Severity),
		slog.String("title", payload.Title),
		slog.Int("event_count", payload.EventCount),
	)
	return alertDomain.DeliveryDelivered, nil
}
