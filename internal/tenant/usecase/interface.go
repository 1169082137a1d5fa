// Package usecase implements tenant lifecycle and policy management.
package usecase

import (
	"context"

	"github.com/google/uuid"

	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

// TenantRepository defines persistence operations for tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant *tenantDomain.Tenant) error
	Update(ctx context.Context, tenant *tenantDomain.Tenant) error
	// Get returns ErrTenantNotFound when the id does not resolve.
	Get(ctx context.Context, tenantID uuid.UUID) (*tenantDomain.Tenant, error)
	// GetBySlug returns ErrTenantNotFound when the slug does not resolve.
	GetBySlug(ctx context.Context, slug string) (*tenantDomain.Tenant, error)
	List(ctx context.Context, offset, limit int) ([]*tenantDomain.Tenant, error)
}

// TenantUseCase manages tenants and their policy documents.
type TenantUseCase interface {
	// Create registers a tenant. Retention defaults to the statutory minimum
	// and may never be configured below it.
	Create(ctx context.Context, input *tenantDomain.CreateTenantInput) (*tenantDomain.Tenant, error)

	Get(ctx context.Context, tenantID uuid.UUID) (*tenantDomain.Tenant, error)

	// GetBySlug resolves the tenant addressed by a captive portal URL.
	GetBySlug(ctx context.Context, slug string) (*tenantDomain.Tenant, error)

	List(ctx context.Context, offset, limit int) ([]*tenantDomain.Tenant, error)

	// UpdatePolicy replaces the consent, branding, signing and retention
	// documents. Retention changes apply to future cleanup runs only.
	UpdatePolicy(
		ctx context.Context,
		tenantID uuid.UUID,
		input *tenantDomain.UpdateTenantPolicyInput,
	) (*tenantDomain.Tenant, error)
}
