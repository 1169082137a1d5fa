package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/database"
	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
	apperrors "github.com/allisson/trustlog/internal/errors"
)

const dossierColumns = `id, tenant_id, request_number, type, requested_by, approved_by, range_from, range_to,
	filter, format, status, record_count, signature_count, artifact_key, artifact_size, sha256, signature_id,
	generated_at, delivered_at, created_at, updated_at`

// SQLDossierRepository stores dossiers. The record filter is a JSON document
// holding digests only.
type SQLDossierRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Create inserts a dossier.
func (r *SQLDossierRepository) Create(ctx context.Context, dossier *dossierDomain.Dossier) error {
	querier := database.GetTx(ctx, r.db)

	filter, err := json.Marshal(dossier.Filter)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode dossier filter")
	}

	query := r.dialect.Rebind(`INSERT INTO dossiers (` + dossierColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`)

	_, err = querier.ExecContext(
		ctx,
		query,
		dossier.ID,
		dossier.TenantID,
		dossier.RequestNumber,
		string(dossier.Type),
		dossier.RequestedBy,
		nullUUID(dossier.ApprovedBy),
		dossier.From,
		dossier.To,
		string(filter),
		string(dossier.Format),
		string(dossier.Status),
		dossier.RecordCount,
		dossier.SignatureCount,
		dossier.ArtifactKey,
		dossier.ArtifactSize,
		dossier.SHA256,
		nullUUID(dossier.SignatureID),
		dossier.GeneratedAt,
		dossier.DeliveredAt,
		dossier.CreatedAt,
		dossier.UpdatedAt,
	)
	if err != nil {
		err = database.TranslateError(err)
		if errors.Is(err, apperrors.ErrConflict) {
			return dossierDomain.ErrRequestNumberTaken
		}
		return apperrors.Wrap(err, "failed to create dossier")
	}
	return nil
}

// Update rewrites the mutable columns when the stored status is still expected.
func (r *SQLDossierRepository) Update(
	ctx context.Context,
	dossier *dossierDomain.Dossier,
	expected dossierDomain.Status,
) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE dossiers SET approved_by = $1, status = $2, record_count = $3,
		signature_count = $4, artifact_key = $5, artifact_size = $6, sha256 = $7, signature_id = $8,
		generated_at = $9, delivered_at = $10, updated_at = $11
		WHERE id = $12 AND tenant_id = $13 AND status = $14`)

	result, err := querier.ExecContext(
		ctx,
		query,
		nullUUID(dossier.ApprovedBy),
		string(dossier.Status),
		dossier.RecordCount,
		dossier.SignatureCount,
		dossier.ArtifactKey,
		dossier.ArtifactSize,
		dossier.SHA256,
		nullUUID(dossier.SignatureID),
		dossier.GeneratedAt,
		dossier.DeliveredAt,
		dossier.UpdatedAt,
		dossier.ID,
		dossier.TenantID,
		string(expected),
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to update dossier")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return dossierDomain.ErrInvalidTransition
	}
	return nil
}

// Get returns one dossier of the tenant.
func (r *SQLDossierRepository) Get(ctx context.Context, tenantID, dossierID uuid.UUID) (*dossierDomain.Dossier, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + dossierColumns + ` FROM dossiers WHERE tenant_id = $1 AND id = $2`)

	dossier, err := scanDossier(querier.QueryRowContext(ctx, query, tenantID, dossierID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dossierDomain.ErrDossierNotFound
		}
		return nil, err
	}
	return dossier, nil
}

// List returns dossiers of the tenant, newest first. An empty status lists all.
func (r *SQLDossierRepository) List(
	ctx context.Context,
	tenantID uuid.UUID,
	status dossierDomain.Status,
	offset, limit int,
) ([]*dossierDomain.Dossier, error) {
	if status == "" {
		query := r.dialect.Rebind(`SELECT ` + dossierColumns + ` FROM dossiers WHERE tenant_id = $1
			ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`)
		return r.list(ctx, query, tenantID, limit, offset)
	}
	query := r.dialect.Rebind(`SELECT ` + dossierColumns + ` FROM dossiers WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`)
	return r.list(ctx, query, tenantID, string(status), limit, offset)
}

// ListFrozen returns generated and delivered dossiers of every tenant.
func (r *SQLDossierRepository) ListFrozen(ctx context.Context, offset, limit int) ([]*dossierDomain.Dossier, error) {
	query := r.dialect.Rebind(`SELECT ` + dossierColumns + ` FROM dossiers WHERE status IN ($1, $2)
		ORDER BY created_at ASC, id ASC LIMIT $3 OFFSET $4`)
	return r.list(ctx, query, string(dossierDomain.StatusGenerated), string(dossierDomain.StatusDelivered),
		limit, offset)
}

func (r *SQLDossierRepository) list(ctx context.Context, query string, args ...any) ([]*dossierDomain.Dossier, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dossiers")
	}
	defer func() {
		_ = rows.Close()
	}()

	dossiers := make([]*dossierDomain.Dossier, 0)
	for rows.Next() {
		dossier, err := scanDossier(rows)
		if err != nil {
			return nil, err
		}
		dossiers = append(dossiers, dossier)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate dossiers")
	}
	return dossiers, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDossier(row scanner) (*dossierDomain.Dossier, error) {
	var (
		dossier     dossierDomain.Dossier
		kind        string
		approvedBy  uuid.NullUUID
		filter      string
		format      string
		status      string
		signatureID uuid.NullUUID
		generatedAt sql.NullTime
		deliveredAt sql.NullTime
	)

	err := row.Scan(
		&dossier.ID,
		&dossier.TenantID,
		&dossier.RequestNumber,
		&kind,
		&dossier.RequestedBy,
		&approvedBy,
		&dossier.From,
		&dossier.To,
		&filter,
		&format,
		&status,
		&dossier.RecordCount,
		&dossier.SignatureCount,
		&dossier.ArtifactKey,
		&dossier.ArtifactSize,
		&dossier.SHA256,
		&signatureID,
		&generatedAt,
		&deliveredAt,
		&dossier.CreatedAt,
		&dossier.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan dossier")
	}

	dossier.Type = dossierDomain.Type(kind)
	dossier.Format = dossierDomain.Format(format)
	dossier.Status = dossierDomain.Status(status)
	dossier.ApprovedBy = nullID(approvedBy)
	dossier.SignatureID = nullID(signatureID)
	dossier.GeneratedAt = nullTime(generatedAt)
	dossier.DeliveredAt = nullTime(deliveredAt)
	dossier.From = dossier.From.UTC()
	dossier.To = dossier.To.UTC()
	if err := json.Unmarshal([]byte(filter), &dossier.Filter); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode dossier filter")
	}
	return &dossier, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullID(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	at := t.Time.UTC()
	return &at
}

// NewSQLDossierRepository creates a dossier repository for the given dialect.
func NewSQLDossierRepository(db *sql.DB, dialect database.Dialect) *SQLDossierRepository {
	return &SQLDossierRepository{db: db, dialect: dialect}
}
