package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
	syslogDomain "github.com/allisson/trustlog/internal/syslog/domain"
)

const clientColumns = `id, tenant_id, address, hostname, first_seen, last_seen, message_count,
	rejected_count, online`

// SQLClientRepository stores per-source accounting in syslog_clients, one
// row per (tenant, address).
type SQLClientRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Touch increments the counters of the client, inserting it on first sight.
// A concurrent insert of the same client is resolved by updating again.
func (r *SQLClientRepository) Touch(
	ctx context.Context,
	tenantID uuid.UUID,
	address, hostname string,
	rejected bool,
	now time.Time,
) error {
	rejectedInc := 0
	if rejected {
		rejectedInc = 1
	}

	updated, err := r.increment(ctx, tenantID, address, hostname, rejectedInc, now)
	if err != nil || updated {
		return err
	}

	querier := database.GetTx(ctx, r.db)
	query := r.dialect.Rebind(`INSERT INTO syslog_clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)

	_, err = querier.ExecContext(ctx, query,
		syslogDomain.ClientID(tenantID, address), tenantID, address, hostname, now, now, 1, rejectedInc, true)
	if err == nil {
		return nil
	}
	err = database.TranslateError(err)
	if !errors.Is(err, apperrors.ErrConflict) {
		return apperrors.Wrap(err, "failed to create syslog client")
	}

	if _, err := r.increment(ctx, tenantID, address, hostname, rejectedInc, now); err != nil {
		return err
	}
	return nil
}

func (r *SQLClientRepository) increment(
	ctx context.Context,
	tenantID uuid.UUID,
	address, hostname string,
	rejectedInc int,
	now time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE syslog_clients
		SET hostname = CASE WHEN $1 = '' THEN hostname ELSE $2 END,
			last_seen = $3, message_count = message_count + 1, rejected_count = rejected_count + $4, online = $5
		WHERE tenant_id = $6 AND address = $7`)

	result, err := querier.ExecContext(ctx, query, hostname, hostname, now, rejectedInc, true, tenantID, address)
	if err != nil {
		return false, apperrors.Wrap(database.TranslateError(err), "failed to update syslog client")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to update syslog client")
	}
	return n > 0, nil
}

// List returns the tenant's clients, most recently seen first.
func (r *SQLClientRepository) List(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*syslogDomain.Client, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + clientColumns + ` FROM syslog_clients WHERE tenant_id = $1
		ORDER BY last_seen DESC, id ASC
		LIMIT $2 OFFSET $3`)

	rows, err := querier.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list syslog clients")
	}
	defer func() {
		_ = rows.Close()
	}()

	clients := make([]*syslogDomain.Client, 0)
	for rows.Next() {
		var client syslogDomain.Client
		err := rows.Scan(
			&client.ID,
			&client.TenantID,
			&client.Address,
			&client.Hostname,
			&client.FirstSeen,
			&client.LastSeen,
			&client.MessageCount,
			&client.RejectedCount,
			&client.Online,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan syslog client")
		}
		clients = append(clients, &client)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate syslog clients")
	}
	return clients, nil
}

// MarkOffline clears the online flag of clients silent since cutoff.
func (r *SQLClientRepository) MarkOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE syslog_clients SET online = $1 WHERE online = $2 AND last_seen < $3`)

	result, err := querier.ExecContext(ctx, query, false, true, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(database.TranslateError(err), "failed to sweep syslog clients")
	}
	return result.RowsAffected()
}

// NewSQLClientRepository creates a client repository for the given dialect.
func NewSQLClientRepository(db *sql.DB, dialect database.Dialect) *SQLClientRepository {
	return &SQLClientRepository{db: db, dialect: dialect}
}
