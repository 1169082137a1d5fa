// Package repository implements retention persistence for PostgreSQL, MySQL
// and the in-memory driver.
package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/allisson/trustlog/internal/errors"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
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

// MemoryPolicyRepository keeps one policy per tenant and kind.
type MemoryPolicyRepository struct {
	mu       sync.RWMutex
	policies []*retentionDomain.Policy
}

func (r *MemoryPolicyRepository) find(tenantID uuid.UUID, kind recordDomain.Kind) int {
	return slices.IndexFunc(r.policies, func(p *retentionDomain.Policy) bool {
		return p.TenantID == tenantID && p.Kind == kind
	})
}

func (r *MemoryPolicyRepository) Upsert(_ context.Context, policy *retentionDomain.Policy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.find(policy.TenantID, policy.Kind); i >= 0 {
		stored := policy.Clone()
		stored.ID = r.policies[i].ID
		stored.CreatedAt = r.policies[i].CreatedAt
		r.policies[i] = stored
		return nil
	}
	r.policies = append(r.policies, policy.Clone())
	return nil
}

func (r *MemoryPolicyRepository) Get(
	_ context.Context,
	tenantID uuid.UUID,
	kind recordDomain.Kind,
) (*retentionDomain.Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.find(tenantID, kind)
	if i < 0 {
		return nil, retentionDomain.ErrPolicyNotFound
	}
	return r.policies[i].Clone(), nil
}

func (r *MemoryPolicyRepository) List(_ context.Context, tenantID uuid.UUID) ([]*retentionDomain.Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*retentionDomain.Policy, 0)
	for _, p := range r.policies {
		if p.TenantID == tenantID {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// MemoryJobRepository keeps archive jobs and their record index.
type MemoryJobRepository struct {
	mu    sync.RWMutex
	jobs  []*retentionDomain.ArchiveJob
	index []retentionDomain.IndexEntry
}

func (r *MemoryJobRepository) find(tenantID, jobID uuid.UUID) int {
	return slices.IndexFunc(r.jobs, func(j *retentionDomain.ArchiveJob) bool {
		return j.ID == jobID && j.TenantID == tenantID
	})
}

func (r *MemoryJobRepository) Create(_ context.Context, job *retentionDomain.ArchiveJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.find(job.TenantID, job.ID) >= 0 {
		return apperrors.Wrap(apperrors.ErrConflict, "failed to create archive job")
	}
	r.jobs = append(r.jobs, job.Clone())
	return nil
}

func (r *MemoryJobRepository) Update(_ context.Context, job *retentionDomain.ArchiveJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.find(job.TenantID, job.ID)
	if i < 0 {
		return retentionDomain.ErrJobNotFound
	}
	r.jobs[i] = job.Clone()
	return nil
}

func (r *MemoryJobRepository) Get(_ context.Context, tenantID, jobID uuid.UUID) (*retentionDomain.ArchiveJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.find(tenantID, jobID)
	if i < 0 {
		return nil, retentionDomain.ErrJobNotFound
	}
	return r.jobs[i].Clone(), nil
}

// List returns jobs of the tenant, newest first.
func (r *MemoryJobRepository) List(
	_ context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*retentionDomain.ArchiveJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*retentionDomain.ArchiveJob, 0)
	for i := len(r.jobs) - 1; i >= 0; i-- {
		if r.jobs[i].TenantID == tenantID {
			out = append(out, r.jobs[i].Clone())
		}
	}
	return page(out, offset, limit), nil
}

func (r *MemoryJobRepository) AddIndex(_ context.Context, entries []retentionDomain.IndexEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index = append(r.index, entries...)
	return nil
}

func (r *MemoryJobRepository) JobsForRecord(
	_ context.Context,
	tenantID, recordID uuid.UUID,
) ([]*retentionDomain.ArchiveJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*retentionDomain.ArchiveJob, 0)
	for _, e := range r.index {
		if e.TenantID != tenantID || e.RecordID != recordID {
			continue
		}
		i := r.find(tenantID, e.JobID)
		if i >= 0 && r.jobs[i].Status == retentionDomain.JobCompleted {
			out = append(out, r.jobs[i].Clone())
		}
	}
	return out, nil
}

func (r *MemoryJobRepository) FindIndex(
	_ context.Context,
	q retentionDomain.IndexQuery,
) ([]retentionDomain.IndexEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]retentionDomain.IndexEntry, 0)
	for _, e := range r.index {
		if e.TenantID != q.TenantID {
			continue
		}
		if len(q.Kinds) > 0 && !slices.Contains(q.Kinds, e.Kind) {
			continue
		}
		if !q.From.IsZero() && e.EntryTime.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !e.EntryTime.Before(q.To) {
			continue
		}
		if q.IdentityDigest != "" && e.IdentityDigest != q.IdentityDigest {
			continue
		}
		i := r.find(e.TenantID, e.JobID)
		if i < 0 || r.jobs[i].Status != retentionDomain.JobCompleted {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b retentionDomain.IndexEntry) int {
		if c := a.EntryTime.Compare(b.EntryTime); c != 0 {
			return c
		}
		return cmp.Compare(a.RecordID.String(), b.RecordID.String())
	})
	return out, nil
}

// MemoryEventRepository keeps the retention event log.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events []*retentionDomain.Event
}

func (r *MemoryEventRepository) Create(_ context.Context, event *retentionDomain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event.Clone())
	return nil
}

// List returns events of the tenant, newest first. An empty kind lists all.
func (r *MemoryEventRepository) List(
	_ context.Context,
	tenantID uuid.UUID,
	kind retentionDomain.EventKind,
	offset, limit int,
) ([]*retentionDomain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*retentionDomain.Event, 0)
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		if e.TenantID == tenantID && (kind == "" || e.Kind == kind) {
			out = append(out, e.Clone())
		}
	}
	return page(out, offset, limit), nil
}

// NewMemoryPolicyRepository creates an empty policy repository.
func NewMemoryPolicyRepository() *MemoryPolicyRepository {
	return &MemoryPolicyRepository{}
}

// NewMemoryJobRepository creates an empty job repository.
func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{}
}

// NewMemoryEventRepository creates an empty event repository.
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{}
}
