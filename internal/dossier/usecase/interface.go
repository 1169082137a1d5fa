// Package usecase builds evidence dossiers: the approval state machine with
// its audit trail, deterministic rendering over live and archived records,
// the dossier's own timestamp signature and the access trail kept on every
// served artifact.
package usecase

import (
	"context"
	"io"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	recordUsecase "github.com/allisson/trustlog/internal/record/usecase"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
	retentionService "github.com/allisson/trustlog/internal/retention/service"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

// DossierRepository persists dossiers.
type DossierRepository interface {
	// Create inserts a dossier. A reused request number yields ErrRequestNumberTaken.
	Create(ctx context.Context, dossier *dossierDomain.Dossier) error

	// Update stores dossier when the persisted status still equals expected,
	// otherwise it returns ErrInvalidTransition.
	Update(ctx context.Context, dossier *dossierDomain.Dossier, expected dossierDomain.Status) error

	Get(ctx context.Context, tenantID, dossierID uuid.UUID) (*dossierDomain.Dossier, error)

	List(
		ctx context.Context,
		tenantID uuid.UUID,
		status dossierDomain.Status,
		offset, limit int,
	) ([]*dossierDomain.Dossier, error)

	// ListFrozen pages generated and delivered dossiers of every tenant.
	ListFrozen(ctx context.Context, offset, limit int) ([]*dossierDomain.Dossier, error)
}

// AuditRepository appends status transitions.
type AuditRepository interface {
	Append(ctx context.Context, entry *dossierDomain.AuditEntry) error
	List(ctx context.Context, tenantID, dossierID uuid.UUID) ([]*dossierDomain.AuditEntry, error)
}

// AccessRepository appends artifact accesses.
type AccessRepository interface {
	Append(ctx context.Context, access *dossierDomain.Access) error
	List(ctx context.Context, tenantID, dossierID uuid.UUID, offset, limit int) ([]*dossierDomain.Access, error)
}

// RecordSource reads sealed records from the live store.
type RecordSource interface {
	RangeSealed(ctx context.Context, q recordUsecase.RangeFilter) (*recordDomain.Page, error)
	Open(record *recordDomain.Record) *recordDomain.Record
}

// ArchiveReader reads records back from archive blobs.
type ArchiveReader interface {
	ReadArchived(ctx context.Context, q retentionDomain.IndexQuery) ([]*retentionService.Entry, error)
}

// Signer is the part of the timestamp signing service a dossier uses.
type Signer interface {
	Enqueue(
		ctx context.Context,
		tenantID uuid.UUID,
		kind signingDomain.SubjectKind,
		subjectID uuid.UUID,
	) (*signingDomain.Signature, error)
	ProcessTenant(ctx context.Context, tenantID uuid.UUID) (int, error)
	Get(ctx context.Context, tenantID, signatureID uuid.UUID) (*signingDomain.Signature, error)
	LatestForSubject(ctx context.Context, tenantID, subjectID uuid.UUID) (*signingDomain.Signature, error)
}

// Digester computes the tenant-keyed digest used by record indexes.
type Digester interface {
	Digest(tenantID uuid.UUID, value string) string
}

// TenantLookup resolves the tenant a dossier belongs to.
type TenantLookup interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*tenantDomain.Tenant, error)
}

// AlertPublisher hands events to the alert bus.
type AlertPublisher interface {
	Publish(ctx context.Context, event *alertDomain.Event)
}

// TransitionInput identifies who moves a dossier and why.
type TransitionInput struct {
	TenantID   uuid.UUID
	DossierID  uuid.UUID
	OperatorID uuid.UUID
	Note       string
}

// SweepReport summarizes an integrity sweep.
type SweepReport struct {
	Checked  int
	Tampered int
	Rebound  int
	Errors   int
}

// AuditReport summarizes the verification of a dossier audit trail.
type AuditReport struct {
	Checked  int
	Valid    int
	Invalid  int
	Unsigned int
}

// DossierUseCase is the evidence report builder.
type DossierUseCase interface {
	// Create stores a draft. Identity and source IP filters are digested and
	// never persisted in plaintext.
	Create(ctx context.Context, input *dossierDomain.CreateInput) (*dossierDomain.Dossier, error)

	Submit(ctx context.Context, input *TransitionInput) (*dossierDomain.Dossier, error)

	// Approve and Reject refuse the requester with ErrSelfApproval.
	Approve(ctx context.Context, input *TransitionInput) (*dossierDomain.Dossier, error)
	Reject(ctx context.Context, input *TransitionInput) (*dossierDomain.Dossier, error)

	// Generate renders the artifact of an approved dossier, stores it with
	// its hash and requests the dossier's own signature. Generating a
	// generated or delivered dossier returns it unchanged.
	Generate(ctx context.Context, input *TransitionInput) (*dossierDomain.Dossier, error)

	Deliver(ctx context.Context, input *TransitionInput) (*dossierDomain.Dossier, error)

	Get(ctx context.Context, tenantID, dossierID uuid.UUID) (*dossierDomain.Dossier, error)

	List(
		ctx context.Context,
		tenantID uuid.UUID,
		status dossierDomain.Status,
		offset, limit int,
	) ([]*dossierDomain.Dossier, error)

	ListAudit(ctx context.Context, tenantID, dossierID uuid.UUID) ([]*dossierDomain.AuditEntry, error)

	// VerifyAudit checks the signature of every audit entry of the dossier.
	// Invalid entries are counted, logged and reported as an integrity alert.
	VerifyAudit(ctx context.Context, tenantID, dossierID uuid.UUID) (*AuditReport, error)

	ListAccesses(
		ctx context.Context,
		tenantID, dossierID uuid.UUID,
		offset, limit int,
	) ([]*dossierDomain.Access, error)

	// RecordAccess writes an access row for an artifact consumed elsewhere.
	RecordAccess(
		ctx context.Context,
		tenantID, dossierID uuid.UUID,
		input *dossierDomain.AccessInput,
	) (*dossierDomain.Access, error)

	// Open writes the access row, then opens the artifact. The caller closes it.
	Open(
		ctx context.Context,
		tenantID, dossierID uuid.UUID,
		input *dossierDomain.AccessInput,
	) (*dossierDomain.Dossier, io.ReadCloser, error)

	// ContentHash re-hashes the stored artifact. It is the signing hasher
	// for dossier subjects.
	ContentHash(ctx context.Context, tenantID, dossierID uuid.UUID) (string, error)

	// VerifyIntegrity compares the stored artifact with its recorded hash and
	// returns ErrArtifactTampered on mismatch.
	VerifyIntegrity(ctx context.Context, tenantID, dossierID uuid.UUID) error

	// SweepIntegrity verifies every frozen dossier and refreshes detached
	// signature bindings whose signature changed state.
	SweepIntegrity(ctx context.Context) (*SweepReport, error)
}
