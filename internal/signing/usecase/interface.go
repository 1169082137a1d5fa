// Package usecase drives the signature state machine: pending signatures are
// written with their subject, stamped in batches by a per-tenant worker and
// later re-verified against the current subject hash.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

// SignatureRepository persists signatures.
type SignatureRepository interface {
	Create(ctx context.Context, signature *signingDomain.Signature) error
	Update(ctx context.Context, signature *signingDomain.Signature) error
	Get(ctx context.Context, tenantID, signatureID uuid.UUID) (*signingDomain.Signature, error)

	// LatestForSubject returns the newest signature of the subject.
	LatestForSubject(ctx context.Context, tenantID, subjectID uuid.UUID) (*signingDomain.Signature, error)

	// ListDue returns pending signatures with next_attempt_at <= now, oldest first.
	ListDue(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]*signingDomain.Signature, error)

	// ListByStatus pages signatures of a tenant in creation order. An empty
	// status lists every signature.
	ListByStatus(
		ctx context.Context,
		tenantID uuid.UUID,
		status signingDomain.Status,
		offset, limit int,
	) ([]*signingDomain.Signature, error)

	// TenantsWithPending returns the tenants owning at least one pending signature.
	TenantsWithPending(ctx context.Context) ([]uuid.UUID, error)
}

// SubjectHasher recomputes the canonical hash of a signed subject.
type SubjectHasher interface {
	ContentHash(ctx context.Context, tenantID, subjectID uuid.UUID) (string, error)
}

// TenantLookup resolves the signing and retention policy of a tenant.
type TenantLookup interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*tenantDomain.Tenant, error)
}

// AlertPublisher hands events to the alert bus. Publishing never fails the caller.
type AlertPublisher interface {
	Publish(ctx context.Context, event *alertDomain.Event)
}

// VerifyReport summarizes a bulk verification run.
type VerifyReport struct {
	Checked  int
	Verified int
	Failed   int
	Errors   int
}

// SigningUseCase is the signer face of the timestamp signing service.
type SigningUseCase interface {
	// Enqueue writes a pending signature for the subject.
	Enqueue(
		ctx context.Context,
		tenantID uuid.UUID,
		kind signingDomain.SubjectKind,
		subjectID uuid.UUID,
	) (*signingDomain.Signature, error)

	// ProcessTenant stamps up to one batch of due signatures and returns how
	// many became signed.
	ProcessTenant(ctx context.Context, tenantID uuid.UUID) (int, error)

	// Tick runs one batch for every tenant with pending work whose interval elapsed.
	Tick(ctx context.Context) error

	Get(ctx context.Context, tenantID, signatureID uuid.UUID) (*signingDomain.Signature, error)

	LatestForSubject(ctx context.Context, tenantID, subjectID uuid.UUID) (*signingDomain.Signature, error)

	List(
		ctx context.Context,
		tenantID uuid.UUID,
		status signingDomain.Status,
		offset, limit int,
	) ([]*signingDomain.Signature, error)

	// Verify re-hashes the subject and checks the token. A mismatch marks the
	// signature failed, publishes an integrity alert and returns ErrVerifyFailed.
	// Verifying a verified signature that still matches changes nothing.
	Verify(ctx context.Context, tenantID, signatureID uuid.UUID) (*signingDomain.Signature, error)

	// VerifyTenant verifies every signed or verified signature of the tenant.
	VerifyTenant(ctx context.Context, tenantID uuid.UUID) (*VerifyReport, error)

	// RegisterHasher binds the hasher used for a subject kind.
	RegisterHasher(kind signingDomain.SubjectKind, hasher SubjectHasher)
}
