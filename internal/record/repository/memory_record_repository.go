package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/trustlog/internal/errors"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// MemoryRecordRepository keeps records in process memory, one entry-time
// ordered slice per tenant.
type MemoryRecordRepository struct {
	mu          sync.RWMutex
	byTenant    map[uuid.UUID][]*recordDomain.Record
	revocations map[uuid.UUID]map[string]time.Time
}

func (r *MemoryRecordRepository) Append(_ context.Context, record *recordDomain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.byTenant[record.TenantID]
	for _, existing := range records {
		if existing.ID == record.ID {
			return apperrors.Wrap(apperrors.ErrConflict, "failed to append record")
		}
		if record.IdempotencyKey != "" && existing.IdempotencyKey == record.IdempotencyKey {
			return apperrors.Wrap(apperrors.ErrConflict, "failed to append record")
		}
	}

	idx := sort.Search(len(records), func(i int) bool {
		return less(record, records[i])
	})
	records = slices.Insert(records, idx, record.Clone())
	r.byTenant[record.TenantID] = records
	return nil
}

func (r *MemoryRecordRepository) LastEntryTime(_ context.Context, tenantID uuid.UUID) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.byTenant[tenantID]
	if len(records) == 0 {
		return time.Time{}, nil
	}
	return records[len(records)-1].EntryTime, nil
}

func (r *MemoryRecordRepository) GetByIdempotencyKey(
	_ context.Context,
	tenantID uuid.UUID,
	key string,
) (*recordDomain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.byTenant[tenantID] {
		if key != "" && record.IdempotencyKey == key {
			return record.Clone(), nil
		}
	}
	return nil, recordDomain.ErrRecordNotFound
}

func (r *MemoryRecordRepository) Get(_ context.Context, tenantID, recordID uuid.UUID) (*recordDomain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.byTenant[tenantID] {
		if record.ID == recordID {
			return record.Clone(), nil
		}
	}
	return nil, recordDomain.ErrRecordNotFound
}

func (r *MemoryRecordRepository) Range(_ context.Context, q recordDomain.RangeQuery) ([]*recordDomain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*recordDomain.Record, 0)
	for _, record := range r.byTenant[q.TenantID] {
		if !matches(record, q) {
			continue
		}
		out = append(out, record.Clone())
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRecordRepository) LatestDeviceSession(
	_ context.Context,
	tenantID uuid.UUID,
	macDigest string,
	since time.Time,
) (*recordDomain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.byTenant[tenantID]
	for i := len(records) - 1; i >= 0; i-- {
		record := records[i]
		if record.EntryTime.Before(since) {
			break
		}
		if record.Kind == recordDomain.KindSession && !record.Suspicious && record.MACDigest == macDigest {
			return record.Clone(), nil
		}
	}
	return nil, recordDomain.ErrRecordNotFound
}

func (r *MemoryRecordRepository) RevokeDevice(_ context.Context, revocation *recordDomain.DeviceRevocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, ok := r.revocations[revocation.TenantID]
	if !ok {
		devices = make(map[string]time.Time)
		r.revocations[revocation.TenantID] = devices
	}
	if prev, ok := devices[revocation.MACDigest]; !ok || revocation.RevokedAt.After(prev) {
		devices[revocation.MACDigest] = revocation.RevokedAt
	}
	return nil
}

func (r *MemoryRecordRepository) LatestDeviceRevocation(
	_ context.Context,
	tenantID uuid.UUID,
	macDigest string,
) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	at, ok := r.revocations[tenantID][macDigest]
	if !ok {
		return nil, nil
	}
	return &at, nil
}

func (r *MemoryRecordRepository) MarkArchived(
	_ context.Context,
	tenantID uuid.UUID,
	recordIDs []uuid.UUID,
	at time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range r.byTenant[tenantID] {
		if record.ArchivedAt == nil && slices.Contains(recordIDs, record.ID) {
			archivedAt := at
			record.ArchivedAt = &archivedAt
		}
	}
	return nil
}

func (r *MemoryRecordRepository) Delete(_ context.Context, tenantID, recordID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.byTenant[tenantID]
	for i, record := range records {
		if record.ID == recordID {
			r.byTenant[tenantID] = slices.Delete(records, i, i+1)
			return nil
		}
	}
	return recordDomain.ErrRecordNotFound
}

func less(a, b *recordDomain.Record) bool {
	if a.EntryTime.Equal(b.EntryTime) {
		return a.ID.String() < b.ID.String()
	}
	return a.EntryTime.Before(b.EntryTime)
}

func matches(record *recordDomain.Record, q recordDomain.RangeQuery) bool {
	if len(q.Kinds) > 0 && !slices.Contains(q.Kinds, record.Kind) {
		return false
	}
	if !q.From.IsZero() && record.EntryTime.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !record.EntryTime.Before(q.To) {
		return false
	}
	if q.IdentityDigest != "" && record.IdentityDigest != q.IdentityDigest {
		return false
	}
	if q.SourceIPDigest != "" && record.SourceIPDigest != q.SourceIPDigest {
		return false
	}
	if q.Suspicious != nil && record.Suspicious != *q.Suspicious {
		return false
	}
	if q.Archived != nil && (record.ArchivedAt != nil) != *q.Archived {
		return false
	}
	if q.After != nil && !q.After.After(record) {
		return false
	}
	return true
}

// NewMemoryRecordRepository creates an empty in-memory record repository.
func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{
		byTenant:    make(map[uuid.UUID][]*recordDomain.Record),
		revocations: make(map[uuid.UUID]map[string]time.Time),
	}
}
