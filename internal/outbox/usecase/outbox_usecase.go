// Package usecase runs the outbox: events are written next to the data that
// caused them and delivered later by a polling loop.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/allisson/trustlog/internal/database"
	"github.com/allisson/trustlog/internal/outbox/domain"
)

// Config holds outbox use case configuration
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// ClaimTimeout is how long a claimed event may stay in processing before
	// another poller takes it over.
	ClaimTimeout time.Duration
	// Retention is how long processed events are kept.
	Retention time.Duration
}

// OutboxEventRepository defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	ClaimPending(ctx context.Context, limit int, staleBefore, now time.Time) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventProcessor handles one event type.
type EventProcessor interface {
	Process(ctx context.Context, event *domain.OutboxEvent) error
}

// UseCase defines the interface for outbox use cases
type UseCase interface {
	Enqueue(ctx context.Context, event *domain.OutboxEvent) error
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
	Purge(ctx context.Context) (int64, error)
}

// OutboxUseCase implements business logic for processing outbox events
type OutboxUseCase struct {
	config     Config
	txManager  database.TxManager
	outboxRepo OutboxEventRepository
	processors map[string]EventProcessor
	logger     *slog.Logger
	now        func() time.Time
}

// NewOutboxUseCase creates a new OutboxUseCase. processors are keyed by event type.
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	processors map[string]EventProcessor,
	logger *slog.Logger,
) *OutboxUseCase {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}
	if config.ClaimTimeout <= 0 {
		config.ClaimTimeout = 5 * time.Minute
	}
	if config.Retention <= 0 {
		config.Retention = 7 * 24 * time.Hour
	}
	return &OutboxUseCase{
		config:     config,
		txManager:  txManager,
		outboxRepo: outboxRepo,
		processors: processors,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue stores an event. It joins the caller's transaction when there is one.
func (uc *OutboxUseCase) Enqueue(ctx context.Context, event *domain.OutboxEvent) error {
	return uc.outboxRepo.Create(ctx, event)
}

// Start starts the outbox event processing loop
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	uc.logger.Info("starting outbox event processor",
		slog.Duration("interval", uc.config.Interval),
		slog.Int("batch_size", uc.config.BatchSize),
	)

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("stopping outbox event processor")
			return nil
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				uc.logger.Error("failed to process events", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents claims a batch in a short transaction and delivers it
// outside of it, so slow receivers never hold row locks.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) error {
	var events []*domain.OutboxEvent
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		now := uc.now()
		claimed, err := uc.outboxRepo.ClaimPending(ctx, uc.config.BatchSize, now.Add(-uc.config.ClaimTimeout), now)
		if err != nil {
			return err
		}
		events = claimed
		return nil
	})
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	uc.logger.Debug("processing events", slog.Int("count", len(events)))

	for _, event := range events {
		if err := uc.processEvent(ctx, event); err != nil {
			uc.logger.Warn("failed to process event",
				slog.String("event_id", event.ID.String()),
				slog.String("event_type", event.EventType),
				slog.Int("retries", event.Retries+1),
				slog.Any("error", err),
			)

			event.Retries++
			errorMsg := err.Error()
			event.LastError = &errorMsg
			event.Status = domain.OutboxEventStatusPending
			if event.Retries >= uc.config.MaxRetries {
				event.Status = domain.OutboxEventStatusFailed
			}
		} else {
			now := uc.now()
			event.Status = domain.OutboxEventStatusProcessed
			event.ProcessedAt = &now
			event.LastError = nil
		}

		event.UpdatedAt = uc.now()
		if err := uc.outboxRepo.Update(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Purge removes processed events older than the retention.
func (uc *OutboxUseCase) Purge(ctx context.Context) (int64, error) {
	return uc.outboxRepo.DeleteProcessedBefore(ctx, uc.now().Add(-uc.config.Retention))
}

func (uc *OutboxUseCase) processEvent(ctx context.Context, event *domain.OutboxEvent) error {
	processor, ok := uc.processors[event.EventType]
	if !ok {
		return fmt.Errorf("no processor for event type %q", event.EventType)
	}
	return processor.Process(ctx, event)
}
