// Package repository implements tenant persistence for PostgreSQL, MySQL and
// the in-memory driver.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

const tenantColumns = `id, slug, display_name, consent_text, branding, allow_foreign_identity,
	retention, signing, remember_device_seconds, flow_byte_rate_threshold, created_at, updated_at`

// SQLTenantRepository persists tenants in PostgreSQL or MySQL. Policy
// documents are stored as JSON text columns.
type SQLTenantRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Create inserts a new tenant.
func (r *SQLTenantRepository) Create(ctx context.Context, tenant *tenantDomain.Tenant) error {
	querier := database.GetTx(ctx, r.db)

	branding, retention, signing, err := encodePolicies(tenant)
	if err != nil {
		return err
	}

	query := r.dialect.Rebind(`INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`)

	_, err = querier.ExecContext(
		ctx,
		query,
		tenant.ID,
		tenant.Slug,
		tenant.DisplayName,
		tenant.ConsentText,
		branding,
		tenant.AllowForeignIdentity,
		retention,
		signing,
		int64(tenant.RememberDeviceWindow/time.Second),
		tenant.FlowByteRateThreshold,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to create tenant")
	}
	return nil
}

// Update rewrites the mutable tenant fields.
func (r *SQLTenantRepository) Update(ctx context.Context, tenant *tenantDomain.Tenant) error {
	querier := database.GetTx(ctx, r.db)

	branding, retention, signing, err := encodePolicies(tenant)
	if err != nil {
		return err
	}

	query := r.dialect.Rebind(`UPDATE tenants
		SET display_name = $1,
			consent_text = $2,
			branding = $3,
			allow_foreign_identity = $4,
			retention = $5,
			signing = $6,
			remember_device_seconds = $7,
			flow_byte_rate_threshold = $8,
			updated_at = $9
		WHERE id = $10`)

	result, err := querier.ExecContext(
		ctx,
		query,
		tenant.DisplayName,
		tenant.ConsentText,
		branding,
		tenant.AllowForeignIdentity,
		retention,
		signing,
		int64(tenant.RememberDeviceWindow/time.Second),
		tenant.FlowByteRateThreshold,
		tenant.UpdatedAt,
		tenant.ID,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to update tenant")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return tenantDomain.ErrTenantNotFound
	}
	return nil
}

// Get retrieves a tenant by id.
func (r *SQLTenantRepository) Get(ctx context.Context, tenantID uuid.UUID) (*tenantDomain.Tenant, error) {
	query := r.dialect.Rebind(`SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`)
	return r.getOne(ctx, query, tenantID)
}

// GetBySlug retrieves a tenant by slug.
func (r *SQLTenantRepository) GetBySlug(ctx context.Context, slug string) (*tenantDomain.Tenant, error) {
	query := r.dialect.Rebind(`SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1`)
	return r.getOne(ctx, query, slug)
}

// List returns tenants ordered by slug.
func (r *SQLTenantRepository) List(ctx context.Context, offset, limit int) ([]*tenantDomain.Tenant, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + tenantColumns + ` FROM tenants ORDER BY slug LIMIT $1 OFFSET $2`)

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list tenants")
	}
	defer func() {
		_ = rows.Close()
	}()

	tenants := make([]*tenantDomain.Tenant, 0)
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate tenants")
	}
	return tenants, nil
}

func (r *SQLTenantRepository) getOne(ctx context.Context, query string, arg any) (*tenantDomain.Tenant, error) {
	querier := database.GetTx(ctx, r.db)

	tenant, err := scanTenant(querier.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenantDomain.ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTenant(row scanner) (*tenantDomain.Tenant, error) {
	var (
		tenant                       tenantDomain.Tenant
		branding, retention, signing string
		rememberSeconds              int64
	)

	err := row.Scan(
		&tenant.ID,
		&tenant.Slug,
		&tenant.DisplayName,
		&tenant.ConsentText,
		&branding,
		&tenant.AllowForeignIdentity,
		&retention,
		&signing,
		&rememberSeconds,
		&tenant.FlowByteRateThreshold,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan tenant")
	}

	if err := json.Unmarshal([]byte(branding), &tenant.Branding); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode tenant branding")
	}
	if err := json.Unmarshal([]byte(retention), &tenant.Retention); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode tenant retention")
	}
	if err := json.Unmarshal([]byte(signing), &tenant.Signing); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode tenant signing policy")
	}
	tenant.RememberDeviceWindow = time.Duration(rememberSeconds) * time.Second
	tenant.CreatedAt = tenant.CreatedAt.UTC()
	tenant.UpdatedAt = tenant.UpdatedAt.UTC()

	return &tenant, nil
}

func encodePolicies(tenant *tenantDomain.Tenant) (branding, retention, signing string, err error) {
	b, err := json.Marshal(tenant.Branding)
	if err != nil {
		return "", "", "", apperrors.Wrap(err, "failed to encode branding")
	}
	rt, err := json.Marshal(tenant.Retention)
	if err != nil {
		return "", "", "", apperrors.Wrap(err, "failed to encode retention")
	}
	s, err := json.Marshal(tenant.Signing)
	if err != nil {
		return "", "", "", apperrors.Wrap(err, "failed to encode signing policy")
	}
	return string(b), string(rt), string(s), nil
}

// NewSQLTenantRepository creates a tenant repository for the given dialect.
func NewSQLTenantRepository(db *sql.DB, dialect database.Dialect) *SQLTenantRepository {
	return &SQLTenantRepository{db: db, dialect: dialect}
}
