package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/allisson/trustlog/internal/errors"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

// MemoryTenantRepository keeps tenants in process memory.
type MemoryTenantRepository struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]tenantDomain.Tenant
}

func (r *MemoryTenantRepository) Create(_ context.Context, tenant *tenantDomain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tenants {
		if existing.Slug == tenant.Slug {
			return apperrors.Wrap(apperrors.ErrConflict, "failed to create tenant")
		}
	}
	r.tenants[tenant.ID] = *tenant
	return nil
}

func (r *MemoryTenantRepository) Update(_ context.Context, tenant *tenantDomain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tenants[tenant.ID]; !ok {
		return tenantDomain.ErrTenantNotFound
	}
	r.tenants[tenant.ID] = *tenant
	return nil
}

func (r *MemoryTenantRepository) Get(_ context.Context, tenantID uuid.UUID) (*tenantDomain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenant, ok := r.tenants[tenantID]
	if !ok {
		return nil, tenantDomain.ErrTenantNotFound
	}
	return &tenant, nil
}

func (r *MemoryTenantRepository) GetBySlug(_ context.Context, slug string) (*tenantDomain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tenant := range r.tenants {
		if tenant.Slug == slug {
			return &tenant, nil
		}
	}
	return nil, tenantDomain.ErrTenantNotFound
}

func (r *MemoryTenantRepository) List(_ context.Context, offset, limit int) ([]*tenantDomain.Tenant, error) {
	r.mu.RLock()
	all := make([]*tenantDomain.Tenant, 0, len(r.tenants))
	for _, tenant := range r.tenants {
		all = append(all, &tenant)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Slug < all[j].Slug })
	return paginate(all, offset, limit), nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// NewMemoryTenantRepository creates an empty in-memory tenant repository.
func NewMemoryTenantRepository() *MemoryTenantRepository {
	return &MemoryTenantRepository{tenants: make(map[uuid.UUID]tenantDomain.Tenant)}
}
