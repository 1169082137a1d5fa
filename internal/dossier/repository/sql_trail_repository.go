package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/database"
	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
	apperrors "github.com/allisson/trustlog/internal/errors"
)

const (
	auditColumns  = `id, dossier_id, tenant_id, from_status, to_status, operator_id, note, at, signature`
	accessColumns = `id, dossier_id, tenant_id, operator_id, kind, source_ip, session_id, pages_viewed,
	duration_ms, at`
)

// SQLAuditRepository appends to dossier_audit. Rows are never updated.
type SQLAuditRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Append inserts an audit entry.
func (r *SQLAuditRepository) Append(ctx context.Context, entry *dossierDomain.AuditEntry) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO dossier_audit (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)

	_, err := querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.DossierID,
		entry.TenantID,
		string(entry.FromStatus),
		string(entry.ToStatus),
		entry.OperatorID,
		entry.Note,
		entry.At,
		entry.Signature,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to append dossier audit entry")
	}
	return nil
}

// List returns the audit trail of a dossier in order.
func (r *SQLAuditRepository) List(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
) ([]*dossierDomain.AuditEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + auditColumns + ` FROM dossier_audit
		WHERE tenant_id = $1 AND dossier_id = $2 ORDER BY at ASC, id ASC`)

	rows, err := querier.QueryContext(ctx, query, tenantID, dossierID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dossier audit")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*dossierDomain.AuditEntry, 0)
	for rows.Next() {
		var (
			entry    dossierDomain.AuditEntry
			from, to string
		)
		err := rows.Scan(
			&entry.ID,
			&entry.DossierID,
			&entry.TenantID,
			&from,
			&to,
			&entry.OperatorID,
			&entry.Note,
			&entry.At,
			&entry.Signature,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan dossier audit entry")
		}
		entry.FromStatus = dossierDomain.Status(from)
		entry.ToStatus = dossierDomain.Status(to)
		entry.At = entry.At.UTC()
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate dossier audit")
	}
	return entries, nil
}

// SQLAccessRepository appends to dossier_accesses. Rows are never updated.
type SQLAccessRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Append inserts an access row.
func (r *SQLAccessRepository) Append(ctx context.Context, access *dossierDomain.Access) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO dossier_accesses (` + accessColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)

	_, err := querier.ExecContext(
		ctx,
		query,
		access.ID,
		access.DossierID,
		access.TenantID,
		access.OperatorID,
		string(access.Kind),
		access.SourceIP,
		access.SessionID,
		access.PagesViewed,
		access.Duration.Milliseconds(),
		access.At,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to append dossier access")
	}
	return nil
}

// List returns the accesses of a dossier in order.
func (r *SQLAccessRepository) List(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
	offset, limit int,
) ([]*dossierDomain.Access, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + accessColumns + ` FROM dossier_accesses
		WHERE tenant_id = $1 AND dossier_id = $2 ORDER BY at ASC, id ASC LIMIT $3 OFFSET $4`)

	rows, err := querier.QueryContext(ctx, query, tenantID, dossierID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dossier accesses")
	}
	defer func() {
		_ = rows.Close()
	}()

	accesses := make([]*dossierDomain.Access, 0)
	for rows.Next() {
		var (
			access     dossierDomain.Access
			kind       string
			durationMS int64
		)
		err := rows.Scan(
			&access.ID,
			&access.DossierID,
			&access.TenantID,
			&access.OperatorID,
			&kind,
			&access.SourceIP,
			&access.SessionID,
			&access.PagesViewed,
			&durationMS,
			&access.At,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan dossier access")
		}
		access.Kind = dossierDomain.AccessKind(kind)
		access.Duration = time.Duration(durationMS) * time.Millisecond
		access.At = access.At.UTC()
		accesses = append(accesses, &access)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate dossier accesses")
	}
	return accesses, nil
}

// NewSQLAuditRepository creates an audit repository for the given dialect.
func NewSQLAuditRepository(db *sql.DB, dialect database.Dialect) *SQLAuditRepository {
	return &SQLAuditRepository{db: db, dialect: dialect}
}

// NewSQLAccessRepository creates an access repository for the given dialect.
func NewSQLAccessRepository(db *sql.DB, dialect database.Dialect) *SQLAccessRepository {
	return &SQLAccessRepository{db: db, dialect: dialect}
}
