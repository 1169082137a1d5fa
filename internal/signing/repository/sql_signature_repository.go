// Package repository implements signature persistence for PostgreSQL, MySQL
// and the in-memory driver.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

const signatureColumns = `id, tenant_id, subject_kind, subject_id, status, hash_algorithm, token_hash, token,
	serial, tsa, attempts, next_attempt_at, last_error, signed_at, verified_at, created_at, updated_at`

// SQLSignatureRepository stores signatures in the signatures table.
type SQLSignatureRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Create inserts a signature.
func (r *SQLSignatureRepository) Create(ctx context.Context, sig *signingDomain.Signature) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO signatures (` + signatureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`)

	_, err := querier.ExecContext(
		ctx,
		query,
		sig.ID,
		sig.TenantID,
		string(sig.SubjectKind),
		sig.SubjectID,
		string(sig.Status),
		sig.HashAlgorithm,
		sig.TokenHash,
		sig.Token,
		sig.Serial,
		sig.TSA,
		sig.Attempts,
		sig.NextAttemptAt,
		sig.LastError,
		sig.SignedAt,
		sig.VerifiedAt,
		sig.CreatedAt,
		sig.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to create signature")
	}
	return nil
}

// Update stores the mutable fields of a signature.
func (r *SQLSignatureRepository) Update(ctx context.Context, sig *signingDomain.Signature) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE signatures SET status = $1, token_hash = $2, token = $3, serial = $4,
		tsa = $5, attempts = $6, next_attempt_at = $7, last_error = $8, signed_at = $9, verified_at = $10,
		updated_at = $11
		WHERE tenant_id = $12 AND id = $13`)

	result, err := querier.ExecContext(
		ctx,
		query,
		string(sig.Status),
		sig.TokenHash,
		sig.Token,
		sig.Serial,
		sig.TSA,
		sig.Attempts,
		sig.NextAttemptAt,
		sig.LastError,
		sig.SignedAt,
		sig.VerifiedAt,
		sig.UpdatedAt,
		sig.TenantID,
		sig.ID,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to update signature")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return signingDomain.ErrSignatureNotFound
	}
	return nil
}

// Get returns one signature of the tenant.
func (r *SQLSignatureRepository) Get(
	ctx context.Context,
	tenantID, signatureID uuid.UUID,
) (*signingDomain.Signature, error) {
	query := r.dialect.Rebind(`SELECT ` + signatureColumns + ` FROM signatures WHERE tenant_id = $1 AND id = $2`)
	return r.getOne(ctx, query, tenantID, signatureID)
}

// LatestForSubject returns the newest signature of a subject.
func (r *SQLSignatureRepository) LatestForSubject(
	ctx context.Context,
	tenantID, subjectID uuid.UUID,
) (*signingDomain.Signature, error) {
	query := r.dialect.Rebind(`SELECT ` + signatureColumns + ` FROM signatures
		WHERE tenant_id = $1 AND subject_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`)
	return r.getOne(ctx, query, tenantID, subjectID)
}

// ListDue returns pending signatures whose next attempt is due.
func (r *SQLSignatureRepository) ListDue(
	ctx context.Context,
	tenantID uuid.UUID,
	now time.Time,
	limit int,
) ([]*signingDomain.Signature, error) {
	query := r.dialect.Rebind(`SELECT ` + signatureColumns + ` FROM signatures
		WHERE tenant_id = $1 AND status = $2 AND next_attempt_at <= $3
		ORDER BY created_at ASC, id ASC
		LIMIT $4`)
	return r.list(ctx, query, tenantID, string(signingDomain.StatusPending), now, limit)
}

// ListByStatus pages the signatures of a tenant.
func (r *SQLSignatureRepository) ListByStatus(
	ctx context.Context,
	tenantID uuid.UUID,
	status signingDomain.Status,
	offset, limit int,
) ([]*signingDomain.Signature, error) {
	if status == "" {
		query := r.dialect.Rebind(`SELECT ` + signatureColumns + ` FROM signatures
			WHERE tenant_id = $1
			ORDER BY created_at ASC, id ASC
			LIMIT $2 OFFSET $3`)
		return r.list(ctx, query, tenantID, limit, offset)
	}
	query := r.dialect.Rebind(`SELECT ` + signatureColumns + ` FROM signatures
		WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at ASC, id ASC
		LIMIT $3 OFFSET $4`)
	return r.list(ctx, query, tenantID, string(status), limit, offset)
}

// TenantsWithPending returns the tenants that own pending signatures.
func (r *SQLSignatureRepository) TenantsWithPending(ctx context.Context) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT DISTINCT tenant_id FROM signatures WHERE status = $1`)

	rows, err := querier.QueryContext(ctx, query, string(signingDomain.StatusPending))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list tenants with pending signatures")
	}
	defer func() {
		_ = rows.Close()
	}()

	tenantIDs := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan tenant id")
		}
		tenantIDs = append(tenantIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate tenant ids")
	}
	return tenantIDs, nil
}

func (r *SQLSignatureRepository) list(ctx context.Context, query string, args ...any) ([]*signingDomain.Signature, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list signatures")
	}
	defer func() {
		_ = rows.Close()
	}()

	sigs := make([]*signingDomain.Signature, 0)
	for rows.Next() {
		sig, err := scanSignature(rows)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate signatures")
	}
	return sigs, nil
}

func (r *SQLSignatureRepository) getOne(
	ctx context.Context,
	query string,
	args ...any,
) (*signingDomain.Signature, error) {
	querier := database.GetTx(ctx, r.db)

	sig, err := scanSignature(querier.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, signingDomain.ErrSignatureNotFound
		}
		return nil, err
	}
	return sig, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSignature(row scanner) (*signingDomain.Signature, error) {
	var (
		sig         signingDomain.Signature
		subjectKind string
		status      string
		signedAt    sql.NullTime
		verifiedAt  sql.NullTime
	)

	err := row.Scan(
		&sig.ID,
		&sig.TenantID,
		&subjectKind,
		&sig.SubjectID,
		&status,
		&sig.HashAlgorithm,
		&sig.TokenHash,
		&sig.Token,
		&sig.Serial,
		&sig.TSA,
		&sig.Attempts,
		&sig.NextAttemptAt,
		&sig.LastError,
		&signedAt,
		&verifiedAt,
		&sig.CreatedAt,
		&sig.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan signature")
	}

	sig.SubjectKind = signingDomain.SubjectKind(subjectKind)
	sig.Status = signingDomain.Status(status)
	if signedAt.Valid {
		at := signedAt.Time.UTC()
		sig.SignedAt = &at
	}
	if verifiedAt.Valid {
		at := verifiedAt.Time.UTC()
		sig.VerifiedAt = &at
	}
	sig.NextAttemptAt = sig.NextAttemptAt.UTC()
	sig.CreatedAt = sig.CreatedAt.UTC()
	sig.UpdatedAt = sig.UpdatedAt.UTC()
	return &sig, nil
}

// NewSQLSignatureRepository creates a signature repository for db.
func NewSQLSignatureRepository(db *sql.DB, dialect database.Dialect) *SQLSignatureRepository {
	return &SQLSignatureRepository{db: db, dialect: dialect}
}
