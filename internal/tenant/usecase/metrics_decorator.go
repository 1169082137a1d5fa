package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/metrics"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

type tenantUseCaseWithMetrics struct {
	next    TenantUseCase
	metrics metrics.BusinessMetrics
}

// NewTenantUseCaseWithMetrics wraps a TenantUseCase with metrics recording.
func NewTenantUseCaseWithMetrics(useCase TenantUseCase, m metrics.BusinessMetrics) TenantUseCase {
	return &tenantUseCaseWithMetrics{next: useCase, metrics: m}
}

func (t *tenantUseCaseWithMetrics) Create(
	ctx context.Context,
	input *tenantDomain.CreateTenantInput,
) (*tenantDomain.Tenant, error) {
	start := time.Now()
	tenant, err := t.next.Create(ctx, input)
	metrics.RecordResult(ctx, t.metrics, "tenant", "tenant_create", start, err)
	return tenant, err
}

func (t *tenantUseCaseWithMetrics) Get(ctx context.Context, tenantID uuid.UUID) (*tenantDomain.Tenant, error) {
	start := time.Now()
	tenant, err := t.next.Get(ctx, tenantID)
	metrics.RecordResult(ctx, t.metrics, "tenant", "tenant_get", start, err)
	return tenant, err
}

func (t *tenantUseCaseWithMetrics) GetBySlug(ctx context.Context, slug string) (*tenantDomain.Tenant, error) {
	start := time.Now()
	tenant, err := t.next.GetBySlug(ctx, slug)
	metrics.RecordResult(ctx, t.metrics, "tenant", "tenant_get_by_slug", start, err)
	return tenant, err
}

func (t *tenantUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*tenantDomain.Tenant, error) {
	start := time.Now()
	tenants, err := t.next.List(ctx, offset, limit)
	metrics.RecordResult(ctx, t.metrics, "tenant", "tenant_list", start, err)
	return tenants, err
}

func (t *tenantUseCaseWithMetrics) UpdatePolicy(
	ctx context.Context,
	tenantID uuid.UUID,
	input *tenantDomain.UpdateTenantPolicyInput,
) (*tenantDomain.Tenant, error) {
	start := time.Now()
	tenant, err := t.next.UpdatePolicy(ctx, tenantID, input)
	metrics.RecordResult(ctx, t.metrics, "tenant", "tenant_update_policy", start, err)
	return tenant, err
}
