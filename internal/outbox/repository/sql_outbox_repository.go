// Package repository provides data persistence implementations for outbox entities.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/outbox/domain"
)

const outboxColumns = `id, tenant_id, event_type, payload, status, retries, last_error, processed_at,
	created_at, updated_at`

// SQLOutboxEventRepository handles outbox event persistence for PostgreSQL and MySQL.
type SQLOutboxEventRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Create inserts a new outbox event
func (r *SQLOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO outbox_events (` + outboxColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)

	_, err := querier.ExecContext(ctx, query, event.ID, event.TenantID, event.EventType, event.Payload,
		string(event.Status), event.Retries, event.LastError, event.ProcessedAt, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to create outbox event")
	}
	return nil
}

// ClaimPending locks up to limit pending events, plus processing events not
// touched since staleBefore, and marks them processing. It must run inside a
// transaction.
func (r *SQLOutboxEventRepository) ClaimPending(
	ctx context.Context,
	limit int,
	staleBefore, now time.Time,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + outboxColumns + ` FROM outbox_events
		WHERE status = $1 OR (status = $2 AND updated_at < $3)
		ORDER BY created_at ASC
		LIMIT $4
		FOR UPDATE SKIP LOCKED`)

	rows, err := querier.QueryContext(ctx, query, string(domain.OutboxEventStatusPending),
		string(domain.OutboxEventStatusProcessing), staleBefore, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to select outbox events")
	}
	defer func() {
		_ = rows.Close()
	}()

	events := make([]*domain.OutboxEvent, 0)
	for rows.Next() {
		var (
			event  domain.OutboxEvent
			status string
		)
		err := rows.Scan(&event.ID, &event.TenantID, &event.EventType, &event.Payload, &status,
			&event.Retries, &event.LastError, &event.ProcessedAt, &event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox event")
		}
		event.Status = domain.OutboxEventStatus(status)
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate outbox events")
	}

	for _, event := range events {
		event.Status = domain.OutboxEventStatusProcessing
		event.UpdatedAt = now
		if err := r.Update(ctx, event); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// Update updates an outbox event
func (r *SQLOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE outbox_events
		SET status = $1, retries = $2, last_error = $3, processed_at = $4, updated_at = $5
		WHERE id = $6`)

	_, err := querier.ExecContext(ctx, query, string(event.Status), event.Retries, event.LastError,
		event.ProcessedAt, event.UpdatedAt, event.ID)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to update outbox event")
	}
	return nil
}

// DeleteProcessedBefore removes processed events older than cutoff.
func (r *SQLOutboxEventRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`DELETE FROM outbox_events WHERE status = $1 AND processed_at < $2`)

	result, err := querier.ExecContext(ctx, query, string(domain.OutboxEventStatusProcessed), cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete processed outbox events")
	}
	return result.RowsAffected()
}

// NewSQLOutboxEventRepository creates an outbox repository for the given dialect.
func NewSQLOutboxEventRepository(db *sql.DB, dialect database.Dialect) *SQLOutboxEventRepository {
	return &SQLOutboxEventRepository{db: db, dialect: dialect}
}
