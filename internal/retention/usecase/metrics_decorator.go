package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/metrics"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
)

type retentionUseCaseWithMetrics struct {
	next    RetentionUseCase
	metrics metrics.BusinessMetrics
}

// NewRetentionUseCaseWithMetrics wraps a RetentionUseCase with metrics recording.
func NewRetentionUseCaseWithMetrics(useCase RetentionUseCase, m metrics.BusinessMetrics) RetentionUseCase {
	return &retentionUseCaseWithMetrics{next: useCase, metrics: m}
}

func (r *retentionUseCaseWithMetrics) SetPolicy(
	ctx context.Context,
	tenantID uuid.UUID,
	input *PolicyInput,
) (*retentionDomain.Policy, error) {
	start := time.Now()
	policy, err := r.next.SetPolicy(ctx, tenantID, input)
	metrics.RecordResult(ctx, r.metrics, "retention", "policy_set", start, err)
	return policy, err
}

func (r *retentionUseCaseWithMetrics) GetPolicy(
	ctx context.Context,
	tenantID uuid.UUID,
	kind recordDomain.Kind,
) (*retentionDomain.Policy, error) {
	start := time.Now()
	policy, err := r.next.GetPolicy(ctx, tenantID, kind)
	metrics.RecordResult(ctx, r.metrics, "retention", "policy_get", start, err)
	return policy, err
}

func (r *retentionUseCaseWithMetrics) ListPolicies(
	ctx context.Context,
	tenantID uuid.UUID,
) ([]*retentionDomain.Policy, error) {
	start := time.Now()
	policies, err := r.next.ListPolicies(ctx, tenantID)
	metrics.RecordResult(ctx, r.metrics, "retention", "policy_list", start, err)
	return policies, err
}

func (r *retentionUseCaseWithMetrics) RunArchive(
	ctx context.Context,
	tenantID uuid.UUID,
	kind recordDomain.Kind,
) (*retentionDomain.ArchiveJob, error) {
	start := time.Now()
	job, err := r.next.RunArchive(ctx, tenantID, kind)
	metrics.RecordResult(ctx, r.metrics, "retention", "archive_run", start, err)
	return job, err
}

func (r *retentionUseCaseWithMetrics) RunCleanup(
	ctx context.Context,
	tenantID uuid.UUID,
	kind recordDomain.Kind,
) (*CleanupReport, error) {
	start := time.Now()
	report, err := r.next.RunCleanup(ctx, tenantID, kind)
	metrics.RecordResult(ctx, r.metrics, "retention", "cleanup_run", start, err)
	return report, err
}

func (r *retentionUseCaseWithMetrics) RunDue(ctx context.Context, cadence retentionDomain.Cadence) error {
	start := time.Now()
	err := r.next.RunDue(ctx, cadence)
	metrics.RecordResult(ctx, r.metrics, "retention", "run_due_"+string(cadence), start, err)
	return err
}

func (r *retentionUseCaseWithMetrics) GetJob(
	ctx context.Context,
	tenantID, jobID uuid.UUID,
) (*retentionDomain.ArchiveJob, error) {
	start := time.Now()
	job, err := r.next.GetJob(ctx, tenantID, jobID)
	metrics.RecordResult(ctx, r.metrics, "retention", "job_get", start, err)
	return job, err
}

func (r *retentionUseCaseWithMetrics) ListJobs(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*retentionDomain.ArchiveJob, error) {
	start := time.Now()
	jobs, err := r.next.ListJobs(ctx, tenantID, offset, limit)
	metrics.RecordResult(ctx, r.metrics, "retention", "job_list", start, err)
	return jobs, err
}

func (r *retentionUseCaseWithMetrics) VerifyJob(
	ctx context.Context,
	tenantID, jobID uuid.UUID,
) (*retentionDomain.ArchiveJob, error) {
	start := time.Now()
	job, err := r.next.VerifyJob(ctx, tenantID, jobID)
	metrics.RecordResult(ctx, r.metrics, "retention", "job_verify", start, err)
	return job, err
}

func (r *retentionUseCaseWithMetrics) ListEvents(
	ctx context.Context,
	tenantID uuid.UUID,
	kind retentionDomain.EventKind,
	offset, limit int,
) ([]*retentionDomain.Event, error) {
	start := time.Now()
	events, err := r.next.ListEvents(ctx, tenantID, kind, offset, limit)
	metrics.RecordResult(ctx, r.metrics, "retention", "event_list", start, err)
	return events, err
}

func (r *retentionUseCaseWithMetrics) ReadArchived(
	ctx context.Context,
	q retentionDomain.IndexQuery,
) ([]*ArchivedEntry, error) {
	start := time.Now()
	entries, err := r.next.ReadArchived(ctx, q)
	metrics.RecordResult(ctx, r.metrics, "retention", "archive_read", start, err)
	return entries, err
}
