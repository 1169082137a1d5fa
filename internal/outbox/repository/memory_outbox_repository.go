package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/allisson/trustlog/internal/outbox/domain"
)

// MemoryOutboxEventRepository keeps outbox events in process memory.
type MemoryOutboxEventRepository struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent
}

func (r *MemoryOutboxEventRepository) Create(_ context.Context, event *domain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *event
	r.events = append(r.events, &stored)
	return nil
}

func (r *MemoryOutboxEventRepository) ClaimPending(
	_ context.Context,
	limit int,
	staleBefore, now time.Time,
) ([]*domain.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	claimed := make([]*domain.OutboxEvent, 0)
	for _, event := range r.events {
		if len(claimed) >= limit {
			break
		}
		stale := event.Status == domain.OutboxEventStatusProcessing && event.UpdatedAt.Before(staleBefore)
		if event.Status != domain.OutboxEventStatusPending && !stale {
			continue
		}
		event.Status = domain.OutboxEventStatusProcessing
		event.UpdatedAt = now
		copied := *event
		claimed = append(claimed, &copied)
	}
	return claimed, nil
}

func (r *MemoryOutboxEventRepository) Update(_ context.Context, event *domain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, stored := range r.events {
		if stored.ID == event.ID {
			updated := *event
			r.events[i] = &updated
			return nil
		}
	}
	return nil
}

func (r *MemoryOutboxEventRepository) DeleteProcessedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.events)
	r.events = slices.DeleteFunc(r.events, func(e *domain.OutboxEvent) bool {
		return e.Status == domain.OutboxEventStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(cutoff)
	})
	return int64(before - len(r.events)), nil
}

// Snapshot returns copies of all stored events.
func (r *MemoryOutboxEventRepository) Snapshot() []domain.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.OutboxEvent, len(r.events))
	for i, e := range r.events {
		out[i] = *e
	}
	return out
}

// NewMemoryOutboxEventRepository creates an empty repository.
func NewMemoryOutboxEventRepository() *MemoryOutboxEventRepository {
	return &MemoryOutboxEventRepository{}
}
