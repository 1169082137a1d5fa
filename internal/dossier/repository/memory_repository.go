// Package repository implements dossier persistence for PostgreSQL, MySQL and
// the in-memory driver.
package repository

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
)

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// MemoryDossierRepository keeps dossiers in creation order.
type MemoryDossierRepository struct {
	mu       sync.RWMutex
	dossiers []*dossierDomain.Dossier
}

func (r *MemoryDossierRepository) find(tenantID, dossierID uuid.UUID) int {
	return slices.IndexFunc(r.dossiers, func(d *dossierDomain.Dossier) bool {
		return d.ID == dossierID && d.TenantID == tenantID
	})
}

func (r *MemoryDossierRepository) Create(_ context.Context, dossier *dossierDomain.Dossier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	taken := slices.ContainsFunc(r.dossiers, func(d *dossierDomain.Dossier) bool {
		return d.TenantID == dossier.TenantID && d.RequestNumber == dossier.RequestNumber
	})
	if taken {
		return dossierDomain.ErrRequestNumberTaken
	}
	r.dossiers = append(r.dossiers, dossier.Clone())
	return nil
}

func (r *MemoryDossierRepository) Update(
	_ context.Context,
	dossier *dossierDomain.Dossier,
	expected dossierDomain.Status,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.find(dossier.TenantID, dossier.ID)
	if i < 0 {
		return dossierDomain.ErrDossierNotFound
	}
	if r.dossiers[i].Status != expected {
		return dossierDomain.ErrInvalidTransition
	}
	r.dossiers[i] = dossier.Clone()
	return nil
}

func (r *MemoryDossierRepository) Get(_ context.Context, tenantID, dossierID uuid.UUID) (*dossierDomain.Dossier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.find(tenantID, dossierID)
	if i < 0 {
		return nil, dossierDomain.ErrDossierNotFound
	}
	return r.dossiers[i].Clone(), nil
}

func (r *MemoryDossierRepository) List(
	_ context.Context,
	tenantID uuid.UUID,
	status dossierDomain.Status,
	offset, limit int,
) ([]*dossierDomain.Dossier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*dossierDomain.Dossier, 0)
	for i := len(r.dossiers) - 1; i >= 0; i-- {
		d := r.dossiers[i]
		if d.TenantID == tenantID && (status == "" || d.Status == status) {
			matched = append(matched, d.Clone())
		}
	}
	return page(matched, offset, limit), nil
}

func (r *MemoryDossierRepository) ListFrozen(_ context.Context, offset, limit int) ([]*dossierDomain.Dossier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*dossierDomain.Dossier, 0)
	for _, d := range r.dossiers {
		if d.Frozen() {
			matched = append(matched, d.Clone())
		}
	}
	return page(matched, offset, limit), nil
}

// MemoryAuditRepository is an append-only list of audit entries.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []dossierDomain.AuditEntry
}

func (r *MemoryAuditRepository) Append(_ context.Context, entry *dossierDomain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := *entry
	e.Signature = bytes.Clone(entry.Signature)
	r.entries = append(r.entries, e)
	return nil
}

func (r *MemoryAuditRepository) List(
	_ context.Context,
	tenantID, dossierID uuid.UUID,
) ([]*dossierDomain.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*dossierDomain.AuditEntry, 0)
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.DossierID == dossierID {
			entry := e
			entry.Signature = bytes.Clone(e.Signature)
			out = append(out, &entry)
		}
	}
	return out, nil
}

// MemoryAccessRepository is an append-only list of dossier accesses.
type MemoryAccessRepository struct {
	mu       sync.RWMutex
	accesses []dossierDomain.Access
}

func (r *MemoryAccessRepository) Append(_ context.Context, access *dossierDomain.Access) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accesses = append(r.accesses, *access)
	return nil
}

func (r *MemoryAccessRepository) List(
	_ context.Context,
	tenantID, dossierID uuid.UUID,
	offset, limit int,
) ([]*dossierDomain.Access, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*dossierDomain.Access, 0)
	for _, a := range r.accesses {
		if a.TenantID == tenantID && a.DossierID == dossierID {
			access := a
			matched = append(matched, &access)
		}
	}
	return page(matched, offset, limit), nil
}

// NewMemoryDossierRepository creates an empty in-memory dossier repository.
func NewMemoryDossierRepository() *MemoryDossierRepository {
	return &MemoryDossierRepository{}
}

// NewMemoryAuditRepository creates an empty in-memory audit repository.
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

// NewMemoryAccessRepository creates an empty in-memory access repository.
func NewMemoryAccessRepository() *MemoryAccessRepository {
	return &MemoryAccessRepository{}
}
