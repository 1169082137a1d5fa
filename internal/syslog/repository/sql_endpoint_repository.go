// Package repository implements syslog collector persistence for PostgreSQL,
// MySQL and the in-memory driver.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
	syslogDomain "github.com/allisson/trustlog/internal/syslog/domain"
)

const endpointColumns = `id, tenant_id, name, protocol, address, tls_cert_file, tls_key_file, active,
	created_at, updated_at`

// SQLEndpointRepository stores listeners in syslog_endpoints. (protocol,
// address) is unique across tenants.
type SQLEndpointRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Create inserts an endpoint.
func (r *SQLEndpointRepository) Create(ctx context.Context, endpoint *syslogDomain.Endpoint) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO syslog_endpoints (` + endpointColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)

	_, err := querier.ExecContext(ctx, query,
		endpoint.ID,
		endpoint.TenantID,
		endpoint.Name,
		string(endpoint.Protocol),
		endpoint.Address,
		endpoint.TLSCertFile,
		endpoint.TLSKeyFile,
		endpoint.Active,
		endpoint.CreatedAt,
		endpoint.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to create syslog endpoint")
	}
	return nil
}

// Update rewrites the mutable columns of an endpoint.
func (r *SQLEndpointRepository) Update(ctx context.Context, endpoint *syslogDomain.Endpoint) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE syslog_endpoints SET name = $1, active = $2, updated_at = $3
		WHERE id = $4 AND tenant_id = $5`)

	result, err := querier.ExecContext(ctx, query,
		endpoint.Name, endpoint.Active, endpoint.UpdatedAt, endpoint.ID, endpoint.TenantID)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to update syslog endpoint")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return syslogDomain.ErrEndpointNotFound
	}
	return nil
}

// Get returns one endpoint of the tenant.
func (r *SQLEndpointRepository) Get(
	ctx context.Context,
	tenantID, endpointID uuid.UUID,
) (*syslogDomain.Endpoint, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + endpointColumns + ` FROM syslog_endpoints
		WHERE tenant_id = $1 AND id = $2`)

	endpoint, err := scanEndpoint(querier.QueryRowContext(ctx, query, tenantID, endpointID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, syslogDomain.ErrEndpointNotFound
		}
		return nil, err
	}
	return endpoint, nil
}

// List returns endpoints of the tenant in creation order.
func (r *SQLEndpointRepository) List(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*syslogDomain.Endpoint, error) {
	query := r.dialect.Rebind(`SELECT ` + endpointColumns + ` FROM syslog_endpoints WHERE tenant_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3`)
	return r.list(ctx, query, tenantID, limit, offset)
}

// ListActive returns the active endpoints of every tenant.
func (r *SQLEndpointRepository) ListActive(ctx context.Context) ([]*syslogDomain.Endpoint, error) {
	query := r.dialect.Rebind(`SELECT ` + endpointColumns + ` FROM syslog_endpoints WHERE active = $1
		ORDER BY created_at ASC, id ASC`)
	return r.list(ctx, query, true)
}

// Delete removes an endpoint.
func (r *SQLEndpointRepository) Delete(ctx context.Context, tenantID, endpointID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`DELETE FROM syslog_endpoints WHERE tenant_id = $1 AND id = $2`)

	result, err := querier.ExecContext(ctx, query, tenantID, endpointID)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to delete syslog endpoint")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return syslogDomain.ErrEndpointNotFound
	}
	return nil
}

func (r *SQLEndpointRepository) list(ctx context.Context, query string, args ...any) ([]*syslogDomain.Endpoint, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list syslog endpoints")
	}
	defer func() {
		_ = rows.Close()
	}()

	endpoints := make([]*syslogDomain.Endpoint, 0)
	for rows.Next() {
		endpoint, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, endpoint)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate syslog endpoints")
	}
	return endpoints, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEndpoint(row scanner) (*syslogDomain.Endpoint, error) {
	var (
		endpoint syslogDomain.Endpoint
		protocol string
	)

	err := row.Scan(
		&endpoint.ID,
		&endpoint.TenantID,
		&endpoint.Name,
		&protocol,
		&endpoint.Address,
		&endpoint.TLSCertFile,
		&endpoint.TLSKeyFile,
		&endpoint.Active,
		&endpoint.CreatedAt,
		&endpoint.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan syslog endpoint")
	}
	endpoint.Protocol = syslogDomain.Protocol(protocol)
	return &endpoint, nil
}

// NewSQLEndpointRepository creates an endpoint repository for the given dialect.
func NewSQLEndpointRepository(db *sql.DB, dialect database.Dialect) *SQLEndpointRepository {
	return &SQLEndpointRepository{db: db, dialect: dialect}
}
