package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/trustlog/internal/database"
	"github.com/allisson/trustlog/internal/outbox/domain"
)

var dialects = []database.Dialect{database.PostgreSQL, database.MySQL}

func TestSQLOutboxEventRepository_Create(t *testing.T) {
	for _, dialect := range dialects {
		t.Run(string(dialect), func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() {
				_ = db.Close()
			}()

			repo := NewSQLOutboxEventRepository(db, dialect)
			now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
			event := domain.NewOutboxEvent(uuid.Must(uuid.NewV7()), "syslog.forward", `{}`, now)

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events")).
				WithArgs(event.ID, event.TenantID, "syslog.forward", `{}`, "pending", 0, nil, nil, now, now).
				WillReturnResult(sqlmock.NewResult(1, 1))

			require.NoError(t, repo.Create(context.Background(), event))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLOutboxEventRepository_ClaimPending(t *testing.T) {
	for _, dialect := range dialects {
		t.Run(string(dialect), func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() {
				_ = db.Close()
			}()

			repo := NewSQLOutboxEventRepository(db, dialect)
			now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
			stale := now.Add(-5 * time.Minute)
			id := uuid.Must(uuid.NewV7())
			tenantID := uuid.Must(uuid.NewV7())

			rows := sqlmock.NewRows([]string{
				"id", "tenant_id", "event_type", "payload", "status", "retries", "last_error",
				"processed_at", "created_at", "updated_at",
			}).AddRow(id, tenantID, "syslog.forward", `{}`, "pending", 1, nil, nil, now, now)

			mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
				WithArgs("pending", "processing", stale, 10).
				WillReturnRows(rows)
			mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox_events")).
				WithArgs("processing", 1, nil, nil, now, id).
				WillReturnResult(sqlmock.NewResult(0, 1))

			events, err := repo.ClaimPending(context.Background(), 10, stale, now)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, domain.OutboxEventStatusProcessing, events[0].Status)
			assert.Equal(t, tenantID, events[0].TenantID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLOutboxEventRepository_DeleteProcessedBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	repo := NewSQLOutboxEventRepository(db, database.MySQL)
	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM outbox_events WHERE status = ? AND processed_at < ?")).
		WithArgs("processed", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteProcessedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
