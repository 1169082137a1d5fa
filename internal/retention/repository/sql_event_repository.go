package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
)

const eventColumns = `id, tenant_id, kind, record_kind, record_id, job_id, reason, created_at`

// SQLEventRepository appends to retention_events.
type SQLEventRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Create inserts an event.
func (r *SQLEventRepository) Create(ctx context.Context, event *retentionDomain.Event) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO retention_events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)

	_, err := querier.ExecContext(
		ctx,
		query,
		event.ID,
		event.TenantID,
		string(event.Kind),
		string(event.RecordKind),
		nullUUID(event.RecordID),
		nullUUID(event.JobID),
		event.Reason,
		event.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to create retention event")
	}
	return nil
}

// List returns events of the tenant, newest first. An empty kind lists all.
func (r *SQLEventRepository) List(
	ctx context.Context,
	tenantID uuid.UUID,
	kind retentionDomain.EventKind,
	offset, limit int,
) ([]*retentionDomain.Event, error) {
	querier := database.GetTx(ctx, r.db)

	var (
		query string
		args  []any
	)
	if kind == "" {
		query = `SELECT ` + eventColumns + ` FROM retention_events WHERE tenant_id = $1
			ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
		args = []any{tenantID, limit, offset}
	} else {
		query = `SELECT ` + eventColumns + ` FROM retention_events WHERE tenant_id = $1 AND kind = $2
			ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`
		args = []any{tenantID, string(kind), limit, offset}
	}

	rows, err := querier.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list retention events")
	}
	defer func() {
		_ = rows.Close()
	}()

	events := make([]*retentionDomain.Event, 0)
	for rows.Next() {
		var (
			event      retentionDomain.Event
			eventKind  string
			recordKind string
			recordID   uuid.NullUUID
			jobID      uuid.NullUUID
		)
		err := rows.Scan(
			&event.ID,
			&event.TenantID,
			&eventKind,
			&recordKind,
			&recordID,
			&jobID,
			&event.Reason,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan retention event")
		}
		event.Kind = retentionDomain.EventKind(eventKind)
		event.RecordKind = recordDomain.Kind(recordKind)
		if recordID.Valid {
			id := recordID.UUID
			event.RecordID = &id
		}
		if jobID.Valid {
			id := jobID.UUID
			event.JobID = &id
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate retention events")
	}
	return events, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// NewSQLEventRepository creates an event repository for the given dialect.
func NewSQLEventRepository(db *sql.DB, dialect database.Dialect) *SQLEventRepository {
	return &SQLEventRepository{db: db, dialect: dialect}
}
