package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/trustlog/internal/errors"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

// MemorySignatureRepository keeps signatures in process memory in creation order.
type MemorySignatureRepository struct {
	mu   sync.RWMutex
	sigs []*signingDomain.Signature
	byID map[uuid.UUID]*signingDomain.Signature
}

func (r *MemorySignatureRepository) Create(_ context.Context, sig *signingDomain.Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[sig.ID]; ok {
		return apperrors.Wrap(apperrors.ErrConflict, "failed to create signature")
	}
	stored := sig.Clone()
	r.sigs = append(r.sigs, stored)
	r.byID[sig.ID] = stored
	return nil
}

func (r *MemorySignatureRepository) Update(_ context.Context, sig *signingDomain.Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[sig.ID]
	if !ok || stored.TenantID != sig.TenantID {
		return signingDomain.ErrSignatureNotFound
	}
	*stored = *sig.Clone()
	return nil
}

func (r *MemorySignatureRepository) Get(
	_ context.Context,
	tenantID, signatureID uuid.UUID,
) (*signingDomain.Signature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sig, ok := r.byID[signatureID]
	if !ok || sig.TenantID != tenantID {
		return nil, signingDomain.ErrSignatureNotFound
	}
	return sig.Clone(), nil
}

func (r *MemorySignatureRepository) LatestForSubject(
	_ context.Context,
	tenantID, subjectID uuid.UUID,
) (*signingDomain.Signature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.sigs) - 1; i >= 0; i-- {
		sig := r.sigs[i]
		if sig.TenantID == tenantID && sig.SubjectID == subjectID {
			return sig.Clone(), nil
		}
	}
	return nil, signingDomain.ErrSignatureNotFound
}

func (r *MemorySignatureRepository) ListDue(
	_ context.Context,
	tenantID uuid.UUID,
	now time.Time,
	limit int,
) ([]*signingDomain.Signature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	due := make([]*signingDomain.Signature, 0)
	for _, sig := range r.sigs {
		if sig.TenantID != tenantID || sig.Status != signingDomain.StatusPending || sig.NextAttemptAt.After(now) {
			continue
		}
		due = append(due, sig.Clone())
		if limit > 0 && len(due) == limit {
			break
		}
	}
	return due, nil
}

func (r *MemorySignatureRepository) ListByStatus(
	_ context.Context,
	tenantID uuid.UUID,
	status signingDomain.Status,
	offset, limit int,
) ([]*signingDomain.Signature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*signingDomain.Signature, 0)
	for _, sig := range r.sigs {
		if sig.TenantID != tenantID || (status != "" && sig.Status != status) {
			continue
		}
		matched = append(matched, sig)
	}
	if offset >= len(matched) {
		return []*signingDomain.Signature{}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page := make([]*signingDomain.Signature, 0, end-offset)
	for _, sig := range matched[offset:end] {
		page = append(page, sig.Clone())
	}
	return page, nil
}

func (r *MemorySignatureRepository) TenantsWithPending(_ context.Context) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	for _, sig := range r.sigs {
		if sig.Status == signingDomain.StatusPending {
			seen[sig.TenantID] = struct{}{}
		}
	}
	tenantIDs := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		tenantIDs = append(tenantIDs, id)
	}
	sort.Slice(tenantIDs, func(i, j int) bool {
		return tenantIDs[i].String() < tenantIDs[j].String()
	})
	return tenantIDs, nil
}

// NewMemorySignatureRepository creates an empty in-memory repository.
func NewMemorySignatureRepository() *MemorySignatureRepository {
	return &MemorySignatureRepository{byID: make(map[uuid.UUID]*signingDomain.Signature)}
}
