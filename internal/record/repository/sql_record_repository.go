// Package repository implements record persistence for PostgreSQL, MySQL and
// the in-memory driver.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

const recordColumns = `id, tenant_id, kind, entry_time_us, content_hash, identity_digest, mac_digest,
	source_ip_digest, suspicious, idempotency_key, archived_at, payload`

// SQLRecordRepository stores records in a single append-only table. Entry
// times are kept as microseconds since the epoch so ordering is exact on both
// dialects; payloads are JSON with protected fields already sealed.
type SQLRecordRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Append inserts a record.
func (r *SQLRecordRepository) Append(ctx context.Context, record *recordDomain.Record) error {
	querier := database.GetTx(ctx, r.db)

	payload, err := record.MarshalPayload()
	if err != nil {
		return apperrors.Wrap(err, "failed to encode record payload")
	}

	query := r.dialect.Rebind(`INSERT INTO records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`)

	_, err = querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.TenantID,
		string(record.Kind),
		record.EntryTime.UnixMicro(),
		record.ContentHash,
		record.IdentityDigest,
		record.MACDigest,
		record.SourceIPDigest,
		record.Suspicious,
		nullString(record.IdempotencyKey),
		record.ArchivedAt,
		string(payload),
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to append record")
	}
	return nil
}

// LastEntryTime returns the newest entry time of the tenant.
func (r *SQLRecordRepository) LastEntryTime(ctx context.Context, tenantID uuid.UUID) (time.Time, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT MAX(entry_time_us) FROM records WHERE tenant_id = $1`)

	var last sql.NullInt64
	if err := querier.QueryRowContext(ctx, query, tenantID).Scan(&last); err != nil {
		return time.Time{}, apperrors.Wrap(err, "failed to read last entry time")
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return time.UnixMicro(last.Int64).UTC(), nil
}

// GetByIdempotencyKey returns the record appended with key.
func (r *SQLRecordRepository) GetByIdempotencyKey(
	ctx context.Context,
	tenantID uuid.UUID,
	key string,
) (*recordDomain.Record, error) {
	query := r.dialect.Rebind(`SELECT ` + recordColumns + ` FROM records
		WHERE tenant_id = $1 AND idempotency_key = $2`)
	return r.getOne(ctx, query, tenantID, key)
}

// Get returns one record of the tenant.
func (r *SQLRecordRepository) Get(ctx context.Context, tenantID, recordID uuid.UUID) (*recordDomain.Record, error) {
	query := r.dialect.Rebind(`SELECT ` + recordColumns + ` FROM records WHERE tenant_id = $1 AND id = $2`)
	return r.getOne(ctx, query, tenantID, recordID)
}

// Range returns records in (entry_time, id) order.
func (r *SQLRecordRepository) Range(ctx context.Context, q recordDomain.RangeQuery) ([]*recordDomain.Record, error) {
	querier := database.GetTx(ctx, r.db)

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	conds = append(conds, "tenant_id = "+arg(q.TenantID))
	if len(q.Kinds) > 0 {
		kinds := make([]string, len(q.Kinds))
		for i, k := range q.Kinds {
			kinds[i] = arg(string(k))
		}
		conds = append(conds, "kind IN ("+strings.Join(kinds, ", ")+")")
	}
	if !q.From.IsZero() {
		conds = append(conds, "entry_time_us >= "+arg(q.From.UnixMicro()))
	}
	if !q.To.IsZero() {
		conds = append(conds, "entry_time_us < "+arg(q.To.UnixMicro()))
	}
	if q.IdentityDigest != "" {
		conds = append(conds, "identity_digest = "+arg(q.IdentityDigest))
	}
	if q.SourceIPDigest != "" {
		conds = append(conds, "source_ip_digest = "+arg(q.SourceIPDigest))
	}
	if q.Suspicious != nil {
		conds = append(conds, "suspicious = "+arg(*q.Suspicious))
	}
	if q.Archived != nil {
		if *q.Archived {
			conds = append(conds, "archived_at IS NOT NULL")
		} else {
			conds = append(conds, "archived_at IS NULL")
		}
	}
	if q.After != nil {
		at := q.After.EntryTime.UnixMicro()
		conds = append(conds, "(entry_time_us > "+arg(at)+
			" OR (entry_time_us = "+arg(at)+" AND id > "+arg(q.After.ID)+"))")
	}

	query := `SELECT ` + recordColumns + ` FROM records WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY entry_time_us ASC, id ASC`
	if q.Limit > 0 {
		query += " LIMIT " + arg(q.Limit)
	}

	rows, err := querier.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to range records")
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*recordDomain.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate records")
	}
	return records, nil
}

// LatestDeviceSession returns the newest non-suspicious session of a device.
func (r *SQLRecordRepository) LatestDeviceSession(
	ctx context.Context,
	tenantID uuid.UUID,
	macDigest string,
	since time.Time,
) (*recordDomain.Record, error) {
	query := r.dialect.Rebind(`SELECT ` + recordColumns + ` FROM records
		WHERE tenant_id = $1 AND kind = $2 AND mac_digest = $3 AND suspicious = $4 AND entry_time_us >= $5
		ORDER BY entry_time_us DESC, id DESC
		LIMIT 1`)
	return r.getOne(ctx, query, tenantID, string(recordDomain.KindSession), macDigest, false, since.UnixMicro())
}

// RevokeDevice records a device revocation.
func (r *SQLRecordRepository) RevokeDevice(ctx context.Context, revocation *recordDomain.DeviceRevocation) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO device_revocations (tenant_id, mac_digest, revoked_at_us)
		VALUES ($1, $2, $3)`)

	_, err := querier.ExecContext(
		ctx,
		query,
		revocation.TenantID,
		revocation.MACDigest,
		revocation.RevokedAt.UnixMicro(),
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to revoke device")
	}
	return nil
}

// LatestDeviceRevocation returns the newest revocation time of a device.
func (r *SQLRecordRepository) LatestDeviceRevocation(
	ctx context.Context,
	tenantID uuid.UUID,
	macDigest string,
) (*time.Time, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT MAX(revoked_at_us) FROM device_revocations
		WHERE tenant_id = $1 AND mac_digest = $2`)

	var last sql.NullInt64
	if err := querier.QueryRowContext(ctx, query, tenantID, macDigest).Scan(&last); err != nil {
		return nil, apperrors.Wrap(err, "failed to read device revocation")
	}
	if !last.Valid {
		return nil, nil
	}
	at := time.UnixMicro(last.Int64).UTC()
	return &at, nil
}

// MarkArchived flags records as archived. Already archived rows keep their
// first archive time.
func (r *SQLRecordRepository) MarkArchived(
	ctx context.Context,
	tenantID uuid.UUID,
	recordIDs []uuid.UUID,
	at time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	args := make([]any, 0, len(recordIDs)+2)
	args = append(args, at, tenantID)
	for _, id := range recordIDs {
		args = append(args, id)
	}

	query := r.dialect.Rebind(`UPDATE records SET archived_at = $1
		WHERE tenant_id = $2 AND archived_at IS NULL AND id IN (` + r.dialect.Placeholders(3, len(recordIDs)) + `)`)

	if _, err := querier.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to mark records archived")
	}
	return nil
}

// Delete physically removes a record.
func (r *SQLRecordRepository) Delete(ctx context.Context, tenantID, recordID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`DELETE FROM records WHERE tenant_id = $1 AND id = $2`)

	result, err := querier.ExecContext(ctx, query, tenantID, recordID)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to delete record")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return recordDomain.ErrRecordNotFound
	}
	return nil
}

func (r *SQLRecordRepository) getOne(ctx context.Context, query string, args ...any) (*recordDomain.Record, error) {
	querier := database.GetTx(ctx, r.db)

	record, err := scanRecord(querier.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, recordDomain.ErrRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*recordDomain.Record, error) {
	var (
		record         recordDomain.Record
		kind           string
		entryTimeUS    int64
		idempotencyKey sql.NullString
		archivedAt     sql.NullTime
		payload        string
	)

	err := row.Scan(
		&record.ID,
		&record.TenantID,
		&kind,
		&entryTimeUS,
		&record.ContentHash,
		&record.IdentityDigest,
		&record.MACDigest,
		&record.SourceIPDigest,
		&record.Suspicious,
		&idempotencyKey,
		&archivedAt,
		&payload,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan record")
	}

	record.Kind = recordDomain.Kind(kind)
	record.EntryTime = time.UnixMicro(entryTimeUS).UTC()
	record.IdempotencyKey = idempotencyKey.String
	if archivedAt.Valid {
		at := archivedAt.Time.UTC()
		record.ArchivedAt = &at
	}
	if err := record.UnmarshalPayload([]byte(payload)); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode record payload")
	}
	return &record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NewSQLRecordRepository creates a record repository for the given dialect.
func NewSQLRecordRepository(db *sql.DB, dialect database.Dialect) *SQLRecordRepository {
	return &SQLRecordRepository{db: db, dialect: dialect}
}
