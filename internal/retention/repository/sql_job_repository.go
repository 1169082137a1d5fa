package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
)

const jobColumns = `id, tenant_id, kind, status, backend, blob_key, size, sha256, record_count,
	first_entry_us, last_entry_us, compressed, encrypted, dek_algorithm, dek_key, dek_nonce, error_message,
	started_at, completed_at`

// indexBatchSize bounds the rows of one index insert statement.
const indexBatchSize = 500

// SQLJobRepository stores archive jobs in archive_jobs and the record index
// in archive_index. The wrapped data key of an encrypted job lives on its row.
type SQLJobRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func jobArgs(job *retentionDomain.ArchiveJob) []any {
	var (
		dekAlgorithm sql.NullString
		dekKey       []byte
		dekNonce     []byte
	)
	if job.Dek != nil {
		dekAlgorithm = sql.NullString{String: string(job.Dek.Algorithm), Valid: true}
		dekKey = job.Dek.EncryptedKey
		dekNonce = job.Dek.Nonce
	}
	return []any{
		job.ID,
		job.TenantID,
		string(job.Kind),
		string(job.Status),
		string(job.Backend),
		job.BlobKey,
		job.Size,
		job.SHA256,
		job.RecordCount,
		microsOrNull(job.FirstEntry),
		microsOrNull(job.LastEntry),
		job.Compressed,
		job.Encrypted,
		dekAlgorithm,
		dekKey,
		dekNonce,
		job.Error,
		job.StartedAt,
		job.CompletedAt,
	}
}

// Create inserts a job.
func (r *SQLJobRepository) Create(ctx context.Context, job *retentionDomain.ArchiveJob) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO archive_jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`)

	if _, err := querier.ExecContext(ctx, query, jobArgs(job)...); err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to create archive job")
	}
	return nil
}

// Update rewrites the result columns of a job.
func (r *SQLJobRepository) Update(ctx context.Context, job *retentionDomain.ArchiveJob) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE archive_jobs SET status = $1, size = $2, sha256 = $3, record_count = $4,
		first_entry_us = $5, last_entry_us = $6, error_message = $7, completed_at = $8
		WHERE id = $9 AND tenant_id = $10`)

	result, err := querier.ExecContext(
		ctx,
		query,
		string(job.Status),
		job.Size,
		job.SHA256,
		job.RecordCount,
		microsOrNull(job.FirstEntry),
		microsOrNull(job.LastEntry),
		job.Error,
		job.CompletedAt,
		job.ID,
		job.TenantID,
	)
	if err != nil {
		return apperrors.Wrap(database.TranslateError(err), "failed to update archive job")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return retentionDomain.ErrJobNotFound
	}
	return nil
}

// Get returns one job of the tenant.
func (r *SQLJobRepository) Get(ctx context.Context, tenantID, jobID uuid.UUID) (*retentionDomain.ArchiveJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + jobColumns + ` FROM archive_jobs WHERE tenant_id = $1 AND id = $2`)

	job, err := scanJob(querier.QueryRowContext(ctx, query, tenantID, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, retentionDomain.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// List returns jobs of the tenant, newest first.
func (r *SQLJobRepository) List(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*retentionDomain.ArchiveJob, error) {
	query := r.dialect.Rebind(`SELECT ` + jobColumns + ` FROM archive_jobs WHERE tenant_id = $1
		ORDER BY started_at DESC, id DESC
		LIMIT $2 OFFSET $3`)
	return r.list(ctx, query, tenantID, limit, offset)
}

// JobsForRecord returns the completed jobs whose index holds the record.
func (r *SQLJobRepository) JobsForRecord(
	ctx context.Context,
	tenantID, recordID uuid.UUID,
) ([]*retentionDomain.ArchiveJob, error) {
	query := r.dialect.Rebind(`SELECT ` + prefixed("j.", jobColumns) + ` FROM archive_jobs j
		JOIN archive_index i ON i.job_id = j.id
		WHERE i.tenant_id = $1 AND i.record_id = $2 AND j.status = $3
		ORDER BY j.started_at ASC, j.id ASC`)
	return r.list(ctx, query, tenantID, recordID, string(retentionDomain.JobCompleted))
}

// AddIndex inserts index entries in batches.
func (r *SQLJobRepository) AddIndex(ctx context.Context, entries []retentionDomain.IndexEntry) error {
	querier := database.GetTx(ctx, r.db)

	for start := 0; start < len(entries); start += indexBatchSize {
		batch := entries[start:min(start+indexBatchSize, len(entries))]

		values := make([]string, len(batch))
		args := make([]any, 0, len(batch)*6)
		for i, e := range batch {
			values[i] = "(" + r.dialect.Placeholders(i*6+1, 6) + ")"
			args = append(args, e.JobID, e.TenantID, e.RecordID, string(e.Kind), e.EntryTime.UnixMicro(), e.IdentityDigest)
		}

		query := r.dialect.Rebind(`INSERT INTO archive_index (job_id, tenant_id, record_id, kind, entry_time_us,
			identity_digest) VALUES ` + strings.Join(values, ", "))

		if _, err := querier.ExecContext(ctx, query, args...); err != nil {
			return apperrors.Wrap(database.TranslateError(err), "failed to write archive index")
		}
	}
	return nil
}

// FindIndex returns index entries of completed jobs in (entry_time, record_id) order.
func (r *SQLJobRepository) FindIndex(
	ctx context.Context,
	q retentionDomain.IndexQuery,
) ([]retentionDomain.IndexEntry, error) {
	querier := database.GetTx(ctx, r.db)

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	conds = append(conds, "i.tenant_id = "+arg(q.TenantID), "j.status = "+arg(string(retentionDomain.JobCompleted)))
	if len(q.Kinds) > 0 {
		kinds := make([]string, len(q.Kinds))
		for i, k := range q.Kinds {
			kinds[i] = arg(string(k))
		}
		conds = append(conds, "i.kind IN ("+strings.Join(kinds, ", ")+")")
	}
	if !q.From.IsZero() {
		conds = append(conds, "i.entry_time_us >= "+arg(q.From.UnixMicro()))
	}
	if !q.To.IsZero() {
		conds = append(conds, "i.entry_time_us < "+arg(q.To.UnixMicro()))
	}
	if q.IdentityDigest != "" {
		conds = append(conds, "i.identity_digest = "+arg(q.IdentityDigest))
	}

	query := `SELECT i.job_id, i.tenant_id, i.record_id, i.kind, i.entry_time_us, i.identity_digest
		FROM archive_index i JOIN archive_jobs j ON j.id = i.job_id
		WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY i.entry_time_us ASC, i.record_id ASC`

	rows, err := querier.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to query archive index")
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]retentionDomain.IndexEntry, 0)
	for rows.Next() {
		var (
			e           retentionDomain.IndexEntry
			kind        string
			entryTimeUS int64
		)
		if err := rows.Scan(&e.JobID, &e.TenantID, &e.RecordID, &kind, &entryTimeUS, &e.IdentityDigest); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan archive index")
		}
		e.Kind = recordDomain.Kind(kind)
		e.EntryTime = time.UnixMicro(entryTimeUS).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate archive index")
	}
	return entries, nil
}

func (r *SQLJobRepository) list(ctx context.Context, query string, args ...any) ([]*retentionDomain.ArchiveJob, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list archive jobs")
	}
	defer func() {
		_ = rows.Close()
	}()

	jobs := make([]*retentionDomain.ArchiveJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate archive jobs")
	}
	return jobs, nil
}

func scanJob(row scanner) (*retentionDomain.ArchiveJob, error) {
	var (
		job          retentionDomain.ArchiveJob
		kind         string
		status       string
		backend      string
		firstEntryUS sql.NullInt64
		lastEntryUS  sql.NullInt64
		dekAlgorithm sql.NullString
		dekKey       []byte
		dekNonce     []byte
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&job.ID,
		&job.TenantID,
		&kind,
		&status,
		&backend,
		&job.BlobKey,
		&job.Size,
		&job.SHA256,
		&job.RecordCount,
		&firstEntryUS,
		&lastEntryUS,
		&job.Compressed,
		&job.Encrypted,
		&dekAlgorithm,
		&dekKey,
		&dekNonce,
		&job.Error,
		&job.StartedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan archive job")
	}

	job.Kind = recordDomain.Kind(kind)
	job.Status = retentionDomain.JobStatus(status)
	job.Backend = retentionDomain.BackendKind(backend)
	job.FirstEntry = microsTime(firstEntryUS)
	job.LastEntry = microsTime(lastEntryUS)
	if dekAlgorithm.Valid {
		job.Dek = &cryptoDomain.Dek{
			Algorithm:    cryptoDomain.Algorithm(dekAlgorithm.String),
			EncryptedKey: dekKey,
			Nonce:        dekNonce,
		}
	}
	if completedAt.Valid {
		at := completedAt.Time.UTC()
		job.CompletedAt = &at
	}
	return &job, nil
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func microsOrNull(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMicro(), Valid: true}
}

func microsTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	at := time.UnixMicro(v.Int64).UTC()
	return &at
}

// NewSQLJobRepository creates a job repository for the given dialect.
func NewSQLJobRepository(db *sql.DB, dialect database.Dialect) *SQLJobRepository {
	return &SQLJobRepository{db: db, dialect: dialect}
}
