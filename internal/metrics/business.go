package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/allisson/trustlog/internal/errors"
)

// Operation outcomes used as the status label.
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// BusinessMetrics records use case calls, one series per (domain, operation,
// status). Domains are the module names: "records", "signing", "retention",
// "dossiers", "alerts", "auth".
type BusinessMetrics interface {
	RecordOperation(ctx context.Context, domain, operation, status string)
	// RecordDuration observes duration in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)
}

type businessMetrics struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewBusinessMetrics registers <namespace>_operations_total and
// <namespace>_operation_duration_seconds on meterProvider.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	calls, err := meter.Int64Counter(
		namespace+"_operations_total",
		metric.WithDescription("Use case calls by outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		namespace+"_operation_duration_seconds",
		metric.WithDescription("Use case call duration"),
		metric.WithUnit("s"),
		// Dossier generation and archive runs take far longer than a portal submit.
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.025, 0.1, 0.5, 1, 5, 30, 120, 600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &businessMetrics{calls: calls, duration: duration}, nil
}

func operationAttrs(domain, operation, status string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.calls.Add(ctx, 1, operationAttrs(domain, operation, status))
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.duration.Record(ctx, duration.Seconds(), operationAttrs(domain, operation, status))
}

// NoOpBusinessMetrics discards everything. Used when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics returns a NoOpBusinessMetrics.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(context.Context, string, string, string) {}

func (n *NoOpBusinessMetrics) RecordDuration(context.Context, string, string, time.Duration, string) {
}

// StatusOf maps an operation result to its status label. Errors caused by the
// caller (bad input, missing consent, denied access) are "rejected" so they do
// not count against the error rate.
func StatusOf(err error) string {
	if err == nil {
		return StatusSuccess
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindValidationFailed,
		apperrors.KindConsentMissing,
		apperrors.KindIdentityRejected,
		apperrors.KindTenantUnknown,
		apperrors.KindNotFound,
		apperrors.KindConflict,
		apperrors.KindRetentionSkip,
		apperrors.KindPolicyViolation,
		apperrors.KindRateLimited,
		apperrors.KindUnauthorized,
		apperrors.KindForbidden,
		apperrors.KindLocked:
		return StatusRejected
	default:
		return StatusError
	}
}

// RecordResult records the counter and the duration of an operation that
// started at start and finished with err.
func RecordResult(ctx context.Context, m BusinessMetrics, domain, operation string, start time.Time, err error) {
	status := StatusOf(err)
	m.RecordOperation(ctx, domain, operation, status)
	m.RecordDuration(ctx, domain, operation, time.Since(start), status)
}
