package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
)

const policyColumns = `id, tenant_id, kind, min_retention_ms, archive_after_ms, compress, encrypt, backend,
	cadence, auto_cleanup, created_at, updated_at`

// SQLPolicyRepository stores policies in retention_policies, one row per
// tenant and kind. Durations are milliseconds.
type SQLPolicyRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Upsert updates the tenant's policy for the kind or inserts it.
func (r *SQLPolicyRepository) Upsert(ctx context.Context, policy *retentionDomain.Policy) error {
	querier := database.GetTx(ctx, r.db)

	update := r.dialect.Rebind(`UPDATE retention_policies SET min_retention_ms = $1, archive_after_ms = $2,
		compress = $3, encrypt = $4, backend = $5, cadence = $6, auto_cleanup = $7, updated_at = $8
		WHERE tenant_id = $9 AND kind = $10`)

	result, err := querier.ExecContext(
		ctx,
		update,
		policy.MinRetention.Milliseconds(),
		policy.ArchiveAfter.Milliseconds(),
		policy.Compress,
		policy.Encrypt,
		string(policy.Backend),
		string(policy.Cadence),
		policy.AutoCleanup,
		policy.UpdatedAt,
		policy.TenantID,
		string(policy.Kind),
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to update retention policy")
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	insert := r.dialect.Rebind(`INSERT INTO retention_policies (` + policyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`)

	_, err = querier.ExecContext(
		ctx,
		insert,
		policy.ID,
		policy.TenantID,
		string(policy.Kind),
		policy.MinRetention.Milliseconds(),
		policy.ArchiveAfter.Milliseconds(),
		policy.Compress,
		policy.Encrypt,
		string(policy.Backend),
		string(policy.Cadence),
		policy.AutoCleanup,
		policy.CreatedAt,
		policy.UpdatedAt,
	)
	if err != nil {
		err = database.TranslateError(err)
		// MySQL reports zero affected rows for an update that changed nothing.
		if errors.Is(err, apperrors.ErrConflict) {
			return nil
		}
		return apperrors.Wrap(err, "failed to create retention policy")
	}
	return nil
}

// Get returns the policy of the tenant for kind.
func (r *SQLPolicyRepository) Get(
	ctx context.Context,
	tenantID uuid.UUID,
	kind recordDomain.Kind,
) (*retentionDomain.Policy, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + policyColumns + ` FROM retention_policies
		WHERE tenant_id = $1 AND kind = $2`)

	policy, err := scanPolicy(querier.QueryRowContext(ctx, query, tenantID, string(kind)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, retentionDomain.ErrPolicyNotFound
		}
		return nil, err
	}
	return policy, nil
}

// List returns the policies of the tenant ordered by kind.
func (r *SQLPolicyRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*retentionDomain.Policy, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + policyColumns + ` FROM retention_policies
		WHERE tenant_id = $1 ORDER BY kind ASC`)

	rows, err := querier.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list retention policies")
	}
	defer func() {
		_ = rows.Close()
	}()

	policies := make([]*retentionDomain.Policy, 0)
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate retention policies")
	}
	return policies, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row scanner) (*retentionDomain.Policy, error) {
	var (
		policy         retentionDomain.Policy
		kind           string
		minRetentionMS int64
		archiveAfterMS int64
		backend        string
		cadence        string
	)

	err := row.Scan(
		&policy.ID,
		&policy.TenantID,
		&kind,
		&minRetentionMS,
		&archiveAfterMS,
		&policy.Compress,
		&policy.Encrypt,
		&backend,
		&cadence,
		&policy.AutoCleanup,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan retention policy")
	}

	policy.Kind = recordDomain.Kind(kind)
	policy.MinRetention = time.Duration(minRetentionMS) * time.Millisecond
	policy.ArchiveAfter = time.Duration(archiveAfterMS) * time.Millisecond
	policy.Backend = retentionDomain.BackendKind(backend)
	policy.Cadence = retentionDomain.Cadence(cadence)
	return &policy, nil
}

// NewSQLPolicyRepository creates a policy repository for the given dialect.
func NewSQLPolicyRepository(db *sql.DB, dialect database.Dialect) *SQLPolicyRepository {
	return &SQLPolicyRepository{db: db, dialect: dialect}
}
