package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
	syslogDomain "github.com/allisson/trustlog/internal/syslog/domain"
)

const filterColumns = `id, tenant_id, name, priority, facilities, severities, hostname_pattern, tag_pattern,
	content_pattern, source_cidr, action, alert_severity, forward_address, active, created_at, updated_at`

// SQLFilterRepository stores filters in syslog_filters. Facility and
// severity sets are JSON arrays.
type SQLFilterRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func filterArgs(filter *syslogDomain.Filter) ([]any, error) {
	facilities, err := json.Marshal(intsOrEmpty(filter.Facilities))
	if err != nil {
		return nil, err
	}
	severities, err := json.Marshal(intsOrEmpty(filter.Severities))
	if err != nil {
		return nil, err
	}
	return []any{
		filter.ID,
		filter.TenantID,
		filter.Name,
		filter.Priority,
		string(facilities),
		string(severities),
		filter.HostnamePattern,
		filter.TagPattern,
		filter.ContentPattern,
		filter.SourceCIDR,
		string(filter.Action),
		filter.AlertSeverity,
		filter.ForwardAddress,
		filter.Active,
		filter.CreatedAt,
		filter.UpdatedAt,
	}, nil
}

func intsOrEmpty(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

// Create inserts a filter.
func (r *SQLFilterRepository) Create(ctx context.Context, filter *syslogDomain.Filter) error {
	querier := database.GetTx(ctx, r.db)

	args, err := filterArgs(filter)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode syslog filter")
	}

	query := r.dialect.Rebind(`INSERT INTO syslog_filters (` + filterColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`)

	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to create syslog filter")
	}
	return nil
}

// Update replaces every mutable column of a filter.
func (r *SQLFilterRepository) Update(ctx context.Context, filter *syslogDomain.Filter) error {
	querier := database.GetTx(ctx, r.db)

	args, err := filterArgs(filter)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode syslog filter")
	}
	// name through active, then updated_at and the key.
	args = append(args[2:14:14], filter.UpdatedAt, filter.ID, filter.TenantID)

	query := r.dialect.Rebind(`UPDATE syslog_filters SET name = $1, priority = $2, facilities = $3,
		severities = $4, hostname_pattern = $5, tag_pattern = $6, content_pattern = $7, source_cidr = $8,
		action = $9, alert_severity = $10, forward_address = $11, active = $12, updated_at = $13
		WHERE id = $14 AND tenant_id = $15`)

	result, err := querier.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to update syslog filter")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return syslogDomain.ErrFilterNotFound
	}
	return nil
}

// Get returns one filter of the tenant.
func (r *SQLFilterRepository) Get(ctx context.Context, tenantID, filterID uuid.UUID) (*syslogDomain.Filter, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + filterColumns + ` FROM syslog_filters WHERE tenant_id = $1 AND id = $2`)

	filter, err := scanFilter(querier.QueryRowContext(ctx, query, tenantID, filterID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, syslogDomain.ErrFilterNotFound
		}
		return nil, err
	}
	return filter, nil
}

// List returns the tenant's filters in evaluation order.
func (r *SQLFilterRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*syslogDomain.Filter, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + filterColumns + ` FROM syslog_filters WHERE tenant_id = $1
		ORDER BY priority ASC, created_at ASC, id ASC`)

	rows, err := querier.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list syslog filters")
	}
	defer func() {
		_ = rows.Close()
	}()

	filters := make([]*syslogDomain.Filter, 0)
	for rows.Next() {
		filter, err := scanFilter(rows)
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate syslog filters")
	}
	return filters, nil
}

// Delete removes a filter.
func (r *SQLFilterRepository) Delete(ctx context.Context, tenantID, filterID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`DELETE FROM syslog_filters WHERE tenant_id = $1 AND id = $2`)

	result, err := querier.ExecContext(ctx, query, tenantID, filterID)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to delete syslog filter")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return syslogDomain.ErrFilterNotFound
	}
	return nil
}

func scanFilter(row scanner) (*syslogDomain.Filter, error) {
	var (
		filter     syslogDomain.Filter
		facilities string
		severities string
		action     string
	)

	err := row.Scan(
		&filter.ID,
		&filter.TenantID,
		&filter.Name,
		&filter.Priority,
		&facilities,
		&severities,
		&filter.HostnamePattern,
		&filter.TagPattern,
		&filter.ContentPattern,
		&filter.SourceCIDR,
		&action,
		&filter.AlertSeverity,
		&filter.ForwardAddress,
		&filter.Active,
		&filter.CreatedAt,
		&filter.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan syslog filter")
	}

	filter.Action = syslogDomain.Action(action)
	if err := json.Unmarshal([]byte(facilities), &filter.Facilities); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode syslog filter facilities")
	}
	if err := json.Unmarshal([]byte(severities), &filter.Severities); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode syslog filter severities")
	}
	return &filter, nil
}

// NewSQLFilterRepository creates a filter repository for the given dialect.
func NewSQLFilterRepository(db *sql.DB, dialect database.Dialect) *SQLFilterRepository {
	return &SQLFilterRepository{db: db, dialect: dialect}
}
