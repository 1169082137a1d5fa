// Package usecase runs the retention engine: per-tenant archive runs that
// stream aged records into sealed blobs, and cleanup runs that delete a
// record only after retention elapsed, its archive verified and its
// signature verified.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	recordUsecase "github.com/allisson/trustlog/internal/record/usecase"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
	retentionService "github.com/allisson/trustlog/internal/retention/service"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

// PolicyRepository persists one policy per tenant and kind.
type PolicyRepository interface {
	Upsert(ctx context.Context, policy *retentionDomain.Policy) error
	Get(ctx context.Context, tenantID uuid.UUID, kind recordDomain.Kind) (*retentionDomain.Policy, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*retentionDomain.Policy, error)
}

// JobRepository persists archive jobs and the record index.
type JobRepository interface {
	Create(ctx context.Context, job *retentionDomain.ArchiveJob) error
	Update(ctx context.Context, job *retentionDomain.ArchiveJob) error
	Get(ctx context.Context, tenantID, jobID uuid.UUID) (*retentionDomain.ArchiveJob, error)
	List(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*retentionDomain.ArchiveJob, error)
	AddIndex(ctx context.Context, entries []retentionDomain.IndexEntry) error

	// JobsForRecord returns the completed jobs holding the record.
	JobsForRecord(ctx context.Context, tenantID, recordID uuid.UUID) ([]*retentionDomain.ArchiveJob, error)

	// FindIndex returns entries of completed jobs in (entry_time, record_id) order.
	FindIndex(ctx context.Context, q retentionDomain.IndexQuery) ([]retentionDomain.IndexEntry, error)
}

// EventRepository appends to the retention event log.
type EventRepository interface {
	Create(ctx context.Context, event *retentionDomain.Event) error
	List(
		ctx context.Context,
		tenantID uuid.UUID,
		kind retentionDomain.EventKind,
		offset, limit int,
	) ([]*retentionDomain.Event, error)
}

// RecordStore is the part of the record store the engine drives.
type RecordStore interface {
	RangeSealed(ctx context.Context, q recordUsecase.RangeFilter) (*recordDomain.Page, error)
	MarkArchived(ctx context.Context, tenantID uuid.UUID, recordIDs []uuid.UUID, at time.Time) error
	Purge(ctx context.Context, tenantID, recordID uuid.UUID, minRetention time.Duration, now time.Time) error
}

// SignatureLookup returns the current signature of a record.
type SignatureLookup interface {
	LatestForSubject(ctx context.Context, tenantID, subjectID uuid.UUID) (*signingDomain.Signature, error)
}

// TenantLookup resolves tenants and their statutory retention.
type TenantLookup interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*tenantDomain.Tenant, error)
	List(ctx context.Context, offset, limit int) ([]*tenantDomain.Tenant, error)
}

// AlertPublisher hands events to the alert bus.
type AlertPublisher interface {
	Publish(ctx context.Context, event *alertDomain.Event)
}

// PolicyInput sets a policy. A zero MinRetention means the tenant's retention.
type PolicyInput struct {
	Kind         recordDomain.Kind
	MinRetention time.Duration
	ArchiveAfter time.Duration
	Compress     bool
	Encrypt      bool
	Backend      retentionDomain.BackendKind
	Cadence      retentionDomain.Cadence
	AutoCleanup  bool
}

// CleanupReport summarizes a cleanup run.
type CleanupReport struct {
	Checked int
	Purged  int
	Skipped int
	// Reasons counts skipped records per skip reason.
	Reasons map[string]int
}

// ArchivedEntry is a sealed record read back from an archive blob.
type ArchivedEntry = retentionService.Entry

// RetentionUseCase is the retention and archival engine.
type RetentionUseCase interface {
	// SetPolicy stores the tenant's policy for a kind. A minimum retention
	// below the tenant's statutory retention is refused with ErrPolicyViolation
	// and recorded as a POLICY_VIOLATION event.
	SetPolicy(ctx context.Context, tenantID uuid.UUID, input *PolicyInput) (*retentionDomain.Policy, error)

	// GetPolicy returns the effective policy: the stored one or the defaults.
	GetPolicy(ctx context.Context, tenantID uuid.UUID, kind recordDomain.Kind) (*retentionDomain.Policy, error)

	// ListPolicies returns the effective policy of every kind.
	ListPolicies(ctx context.Context, tenantID uuid.UUID) ([]*retentionDomain.Policy, error)

	// RunArchive archives the records of the kind older than archive_after
	// that are not archived yet. Returns nil when nothing was due.
	RunArchive(ctx context.Context, tenantID uuid.UUID, kind recordDomain.Kind) (*retentionDomain.ArchiveJob, error)

	// RunCleanup deletes archived records that pass every deletion check and
	// records a RETENTION_SKIP event for the rest.
	RunCleanup(ctx context.Context, tenantID uuid.UUID, kind recordDomain.Kind) (*CleanupReport, error)

	// RunDue runs archive, then cleanup, for every tenant kind whose policy
	// has the cadence.
	RunDue(ctx context.Context, cadence retentionDomain.Cadence) error

	GetJob(ctx context.Context, tenantID, jobID uuid.UUID) (*retentionDomain.ArchiveJob, error)

	ListJobs(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*retentionDomain.ArchiveJob, error)

	// VerifyJob re-hashes the stored blob of a completed job.
	VerifyJob(ctx context.Context, tenantID, jobID uuid.UUID) (*retentionDomain.ArchiveJob, error)

	ListEvents(
		ctx context.Context,
		tenantID uuid.UUID,
		kind retentionDomain.EventKind,
		offset, limit int,
	) ([]*retentionDomain.Event, error)

	// ReadArchived returns archived records matching q in entry-time order.
	ReadArchived(ctx context.Context, q retentionDomain.IndexQuery) ([]*ArchivedEntry, error)
}
