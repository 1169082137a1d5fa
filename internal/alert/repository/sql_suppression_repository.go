package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
)

const suppressionColumns = `id, tenant_id, name, rule_id, event_kinds, severities, device_ids, starts_at, ends_at,
	reason, created_by, created_at`

// SQLSuppressionRepository stores suppressions in the alert_suppressions table.
// The selector sets are JSON arrays; an empty array matches anything.
type SQLSuppressionRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Create inserts a suppression.
func (r *SQLSuppressionRepository) Create(ctx context.Context, s *alertDomain.Suppression) error {
	kinds, severities, devices, err := encodeSelectors(s)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode suppression selectors")
	}

	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO alert_suppressions (` + suppressionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`)

	_, err = querier.ExecContext(
		ctx,
		query,
		s.ID,
		s.TenantID,
		s.Name,
		s.RuleID,
		kinds,
		severities,
		devices,
		s.StartsAt,
		s.EndsAt,
		s.Reason,
		s.CreatedBy,
		s.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to create suppression")
	}
	return nil
}

// Get returns one suppression of the tenant.
func (r *SQLSuppressionRepository) Get(
	ctx context.Context,
	tenantID, suppressionID uuid.UUID,
) (*alertDomain.Suppression, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + suppressionColumns + ` FROM alert_suppressions
		WHERE tenant_id = $1 AND id = $2`)

	s, err := scanSuppression(querier.QueryRowContext(ctx, query, tenantID, suppressionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, alertDomain.ErrSuppressionNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns suppressions of the tenant in creation order.
func (r *SQLSuppressionRepository) List(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*alertDomain.Suppression, error) {
	query := r.dialect.Rebind(`SELECT ` + suppressionColumns + ` FROM alert_suppressions WHERE tenant_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3`)
	return r.list(ctx, query, tenantID, limit, offset)
}

// ListActive returns the suppressions whose window contains now.
func (r *SQLSuppressionRepository) ListActive(
	ctx context.Context,
	tenantID uuid.UUID,
	now time.Time,
) ([]*alertDomain.Suppression, error) {
	query := r.dialect.Rebind(`SELECT ` + suppressionColumns + ` FROM alert_suppressions
		WHERE tenant_id = $1 AND starts_at <= $2 AND ends_at > $3
		ORDER BY created_at ASC, id ASC`)
	return r.list(ctx, query, tenantID, now, now)
}

// Delete removes a suppression.
func (r *SQLSuppressionRepository) Delete(ctx context.Context, tenantID, suppressionID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`DELETE FROM alert_suppressions WHERE tenant_id = $1 AND id = $2`)

	result, err := querier.ExecContext(ctx, query, tenantID, suppressionID)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to delete suppression")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return alertDomain.ErrSuppressionNotFound
	}
	return nil
}

func (r *SQLSuppressionRepository) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]*alertDomain.Suppression, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list suppressions")
	}
	defer func() {
		_ = rows.Close()
	}()

	suppressions := make([]*alertDomain.Suppression, 0)
	for rows.Next() {
		s, err := scanSuppression(rows)
		if err != nil {
			return nil, err
		}
		suppressions = append(suppressions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate suppressions")
	}
	return suppressions, nil
}

func scanSuppression(row scanner) (*alertDomain.Suppression, error) {
	var (
		s          alertDomain.Suppression
		ruleID     uuid.NullUUID
		createdBy  uuid.NullUUID
		kinds      string
		severities string
		devices    string
	)

	err := row.Scan(
		&s.ID,
		&s.TenantID,
		&s.Name,
		&ruleID,
		&kinds,
		&severities,
		&devices,
		&s.StartsAt,
		&s.EndsAt,
		&s.Reason,
		&createdBy,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan suppression")
	}
	s.RuleID = nullID(ruleID)
	s.CreatedBy = nullID(createdBy)
	if err := json.Unmarshal([]byte(kinds), &s.EventKinds); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode suppression event kinds")
	}
	if err := json.Unmarshal([]byte(severities), &s.Severities); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode suppression severities")
	}
	if err := json.Unmarshal([]byte(devices), &s.DeviceIDs); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode suppression device ids")
	}
	return &s, nil
}

// encodeSelectors renders the selector sets as JSON arrays, never null.
func encodeSelectors(s *alertDomain.Suppression) (kinds, severities, devices string, err error) {
	k, err := json.Marshal(nonNil(s.EventKinds))
	if err != nil {
		return "", "", "", err
	}
	sv, err := json.Marshal(nonNil(s.Severities))
	if err != nil {
		return "", "", "", err
	}
	d, err := json.Marshal(nonNil(s.DeviceIDs))
	if err != nil {
		return "", "", "", err
	}
	return string(k), string(sv), string(d), nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// NewSQLSuppressionRepository creates a suppression repository for the given dialect.
func NewSQLSuppressionRepository(db *sql.DB, dialect database.Dialect) *SQLSuppressionRepository {
	return &SQLSuppressionRepository{db: db, dialect: dialect}
}
