package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/trustlog/internal/errors"
	syslogDomain "github.com/allisson/trustlog/internal/syslog/domain"
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

// MemoryEndpointRepository keeps endpoints in process memory in creation order.
type MemoryEndpointRepository struct {
	mu        sync.RWMutex
	endpoints []*syslogDomain.Endpoint
}

func (r *MemoryEndpointRepository) find(tenantID, endpointID uuid.UUID) int {
	return slices.IndexFunc(r.endpoints, func(e *syslogDomain.Endpoint) bool {
		return e.ID == endpointID && e.TenantID == tenantID
	})
}

func (r *MemoryEndpointRepository) Create(_ context.Context, endpoint *syslogDomain.Endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	taken := slices.ContainsFunc(r.endpoints, func(e *syslogDomain.Endpoint) bool {
		return e.Protocol == endpoint.Protocol && e.Address == endpoint.Address
	})
	if taken {
		return apperrors.Wrap(apperrors.ErrConflict, "failed to create syslog endpoint")
	}
	stored := *endpoint
	r.endpoints = append(r.endpoints, &stored)
	return nil
}

func (r *MemoryEndpointRepository) Update(_ context.Context, endpoint *syslogDomain.Endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.find(endpoint.TenantID, endpoint.ID)
	if i < 0 {
		return syslogDomain.ErrEndpointNotFound
	}
	stored := *endpoint
	r.endpoints[i] = &stored
	return nil
}

func (r *MemoryEndpointRepository) Get(_ context.Context, tenantID, endpointID uuid.UUID) (*syslogDomain.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.find(tenantID, endpointID)
	if i < 0 {
		return nil, syslogDomain.ErrEndpointNotFound
	}
	out := *r.endpoints[i]
	return &out, nil
}

func (r *MemoryEndpointRepository) List(
	_ context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*syslogDomain.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*syslogDomain.Endpoint
	for _, e := range r.endpoints {
		if e.TenantID == tenantID {
			out := *e
			matched = append(matched, &out)
		}
	}
	return page(matched, offset, limit), nil
}

func (r *MemoryEndpointRepository) ListActive(_ context.Context) ([]*syslogDomain.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]*syslogDomain.Endpoint, 0)
	for _, e := range r.endpoints {
		if e.Active {
			out := *e
			active = append(active, &out)
		}
	}
	return active, nil
}

func (r *MemoryEndpointRepository) Delete(_ context.Context, tenantID, endpointID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.find(tenantID, endpointID)
	if i < 0 {
		return syslogDomain.ErrEndpointNotFound
	}
	r.endpoints = slices.Delete(r.endpoints, i, i+1)
	return nil
}

// NewMemoryEndpointRepository creates an empty repository.
func NewMemoryEndpointRepository() *MemoryEndpointRepository {
	return &MemoryEndpointRepository{}
}

// MemoryFilterRepository keeps filters in process memory.
type MemoryFilterRepository struct {
	mu      sync.RWMutex
	filters []*syslogDomain.Filter
}

func (r *MemoryFilterRepository) find(tenantID, filterID uuid.UUID) int {
	return slices.IndexFunc(r.filters, func(f *syslogDomain.Filter) bool {
		return f.ID == filterID && f.TenantID == tenantID
	})
}

func (r *MemoryFilterRepository) Create(_ context.Context, filter *syslogDomain.Filter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filters = append(r.filters, filter.Clone())
	return nil
}

func (r *MemoryFilterRepository) Update(_ context.Context, filter *syslogDomain.Filter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.find(filter.TenantID, filter.ID)
	if i < 0 {
		return syslogDomain.ErrFilterNotFound
	}
	r.filters[i] = filter.Clone()
	return nil
}

func (r *MemoryFilterRepository) Get(_ context.Context, tenantID, filterID uuid.UUID) (*syslogDomain.Filter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.find(tenantID, filterID)
	if i < 0 {
		return nil, syslogDomain.ErrFilterNotFound
	}
	return r.filters[i].Clone(), nil
}

func (r *MemoryFilterRepository) List(_ context.Context, tenantID uuid.UUID) ([]*syslogDomain.Filter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filters := make([]*syslogDomain.Filter, 0)
	for _, f := range r.filters {
		if f.TenantID == tenantID {
			filters = append(filters, f.Clone())
		}
	}
	slices.SortStableFunc(filters, func(a, b *syslogDomain.Filter) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), a.CreatedAt.Compare(b.CreatedAt))
	})
	return filters, nil
}

func (r *MemoryFilterRepository) Delete(_ context.Context, tenantID, filterID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.find(tenantID, filterID)
	if i < 0 {
		return syslogDomain.ErrFilterNotFound
	}
	r.filters = slices.Delete(r.filters, i, i+1)
	return nil
}

// NewMemoryFilterRepository creates an empty repository.
func NewMemoryFilterRepository() *MemoryFilterRepository {
	return &MemoryFilterRepository{}
}

type clientKey struct {
	tenantID uuid.UUID
	address  string
}

// MemoryClientRepository keeps client accounting in process memory.
type MemoryClientRepository struct {
	mu      sync.Mutex
	clients map[clientKey]*syslogDomain.Client
	order   []clientKey
}

func (r *MemoryClientRepository) Touch(
	_ context.Context,
	tenantID uuid.UUID,
	address, hostname string,
	rejected bool,
	now time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := clientKey{tenantID: tenantID, address: address}
	client, ok := r.clients[key]
	if !ok {
		client = &syslogDomain.Client{
			ID:        syslogDomain.ClientID(tenantID, address),
			TenantID:  tenantID,
			Address:   address,
			FirstSeen: now,
		}
		r.clients[key] = client
		r.order = append(r.order, key)
	}
	client.Seen(hostname, rejected, now)
	return nil
}

func (r *MemoryClientRepository) List(
	_ context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*syslogDomain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*syslogDomain.Client
	for _, key := range r.order {
		if key.tenantID == tenantID {
			out := *r.clients[key]
			matched = append(matched, &out)
		}
	}
	return page(matched, offset, limit), nil
}

func (r *MemoryClientRepository) MarkOffline(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, client := range r.clients {
		if client.Online && client.LastSeen.Before(cutoff) {
			client.Online = false
			n++
		}
	}
	return n, nil
}

// NewMemoryClientRepository creates an empty repository.
func NewMemoryClientRepository() *MemoryClientRepository {
	return &MemoryClientRepository{clients: make(map[clientKey]*syslogDomain.Client)}
}
