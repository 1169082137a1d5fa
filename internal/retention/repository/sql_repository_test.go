package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
	"github.com/allisson/trustlog/internal/database"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
)

var policyColumnNames = []string{
	"id", "tenant_id", "kind", "min_retention_ms", "archive_after_ms", "compress", "encrypt", "backend",
	"cadence", "auto_cleanup", "created_at", "updated_at",
}

var jobColumnNames = []string{
	"id", "tenant_id", "kind", "status", "backend", "blob_key", "size", "sha256", "record_count",
	"first_entry_us", "last_entry_us", "compressed", "encrypted", "dek_algorithm", "dek_key", "dek_nonce",
	"error_message", "started_at", "completed_at",
}

func TestSQLPolicyRepository_Upsert(t *testing.T) {
	for _, dialect := range []database.Dialect{database.PostgreSQL, database.MySQL} {
		t.Run(string(dialect), func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			policy := newPolicy(uuid.Must(uuid.NewV7()), recordDomain.KindFlow)

			mock.ExpectExec(regexp.QuoteMeta("UPDATE retention_policies SET")).
				WithArgs(int64(2*365*24*3600*1000), int64(30*24*3600*1000), true, true, "local", "daily", false,
					policy.UpdatedAt, policy.TenantID, "flow").
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO retention_policies")).
				WithArgs(policy.ID, policy.TenantID, "flow", sqlmock.AnyArg(), sqlmock.AnyArg(), true, true, "local",
					"daily", false, policy.CreatedAt, policy.UpdatedAt).
				WillReturnResult(sqlmock.NewResult(1, 1))

			require.NoError(t, NewSQLPolicyRepository(db, dialect).Upsert(context.Background(), policy))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("existing row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE retention_policies SET")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		policy := newPolicy(uuid.Must(uuid.NewV7()), recordDomain.KindFlow)
		require.NoError(t, NewSQLPolicyRepository(db, database.PostgreSQL).Upsert(context.Background(), policy))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSQLPolicyRepository_Get(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		policy := newPolicy(uuid.Must(uuid.NewV7()), recordDomain.KindSession)
		rows := sqlmock.NewRows(policyColumnNames).AddRow(
			policy.ID.String(), policy.TenantID.String(), "session", int64(86400000), int64(3600000), false, true,
			"worm", "weekly", true, baseTime, baseTime,
		)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE tenant_id = ? AND kind = ?")).
			WithArgs(policy.TenantID, "session").
			WillReturnRows(rows)

		got, err := NewSQLPolicyRepository(db, database.MySQL).Get(context.Background(), policy.TenantID,
			recordDomain.KindSession)
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, got.MinRetention)
		assert.Equal(t, time.Hour, got.ArchiveAfter)
		assert.Equal(t, retentionDomain.BackendWORM, got.Backend)
		assert.Equal(t, retentionDomain.CadenceWeekly, got.Cadence)
		assert.False(t, got.Compress)
		assert.True(t, got.AutoCleanup)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM retention_policies")).
			WillReturnRows(sqlmock.NewRows(policyColumnNames))

		_, err = NewSQLPolicyRepository(db, database.PostgreSQL).Get(context.Background(), uuid.New(),
			recordDomain.KindFlow)
		assert.ErrorIs(t, err, retentionDomain.ErrPolicyNotFound)
	})
}

func TestSQLJobRepository_CreateAndGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	policy := newPolicy(uuid.Must(uuid.NewV7()), recordDomain.KindSyslog)
	job := retentionDomain.NewArchiveJob(policy, baseTime)
	job.Dek = &cryptoDomain.Dek{Algorithm: cryptoDomain.AESGCM, EncryptedKey: []byte("wrapped"), Nonce: []byte("n")}

	args := make([]driver.Value, len(jobColumnNames))
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO archive_jobs")).
		WithArgs(args...).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewSQLJobRepository(db, database.PostgreSQL)
	require.NoError(t, repo.Create(context.Background(), job))

	completed := baseTime.Add(time.Minute)
	rows := sqlmock.NewRows(jobColumnNames).AddRow(
		job.ID.String(), job.TenantID.String(), "syslog", "completed", "local", job.BlobKey, int64(512),
		"ff", 3, baseTime.UnixMicro(), baseTime.Add(time.Second).UnixMicro(), true, true, "aes-gcm",
		[]byte("wrapped"), []byte("n"), "", baseTime, completed,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM archive_jobs WHERE tenant_id = $1 AND id = $2")).
		WithArgs(job.TenantID, job.ID).
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), job.TenantID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, retentionDomain.JobCompleted, got.Status)
	assert.Equal(t, 3, got.RecordCount)
	require.NotNil(t, got.FirstEntry)
	assert.True(t, baseTime.Equal(*got.FirstEntry))
	require.NotNil(t, got.Dek)
	assert.Equal(t, cryptoDomain.AESGCM, got.Dek.Algorithm)
	assert.Equal(t, []byte("wrapped"), got.Dek.EncryptedKey)
	require.NotNil(t, got.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLJobRepository_AddIndex(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tenantID := uuid.Must(uuid.NewV7())
	jobID := uuid.Must(uuid.NewV7())
	entries := make([]retentionDomain.IndexEntry, indexBatchSize+1)
	for i := range entries {
		entries[i] = retentionDomain.IndexEntry{
			JobID:     jobID,
			TenantID:  tenantID,
			RecordID:  uuid.Must(uuid.NewV7()),
			Kind:      recordDomain.KindFlow,
			EntryTime: baseTime.Add(time.Duration(i) * time.Microsecond),
		}
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO archive_index")).
		WillReturnResult(sqlmock.NewResult(0, indexBatchSize))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO archive_index")).
		WithArgs(jobID, tenantID, entries[indexBatchSize].RecordID, "flow",
			entries[indexBatchSize].EntryTime.UnixMicro(), "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewSQLJobRepository(db, database.MySQL).AddIndex(context.Background(), entries))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLJobRepository_FindIndex(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tenantID := uuid.Must(uuid.NewV7())
	jobID := uuid.Must(uuid.NewV7())
	recordID := uuid.Must(uuid.NewV7())
	from := baseTime
	to := baseTime.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE i.tenant_id = $1 AND j.status = $2 AND i.kind IN ($3) AND "+
		"i.entry_time_us >= $4 AND i.entry_time_us < $5 AND i.identity_digest = $6")).
		WithArgs(tenantID, "completed", "session", from.UnixMicro(), to.UnixMicro(), "digest").
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "tenant_id", "record_id", "kind", "entry_time_us",
			"identity_digest"}).
			AddRow(jobID.String(), tenantID.String(), recordID.String(), "session", baseTime.UnixMicro(), "digest"))

	entries, err := NewSQLJobRepository(db, database.PostgreSQL).FindIndex(context.Background(),
		retentionDomain.IndexQuery{
			TenantID:       tenantID,
			Kinds:          []recordDomain.Kind{recordDomain.KindSession},
			From:           from,
			To:             to,
			IdentityDigest: "digest",
		})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, recordID, entries[0].RecordID)
	assert.True(t, baseTime.Equal(entries[0].EntryTime))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLEventRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tenantID := uuid.Must(uuid.NewV7())
	recordID := uuid.Must(uuid.NewV7())
	event := retentionDomain.NewEvent(tenantID, retentionDomain.EventRetentionSkip, recordDomain.KindFlow,
		retentionDomain.ReasonNotArchived, baseTime).ForRecord(recordID)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO retention_events")).
		WithArgs(event.ID, tenantID, "RETENTION_SKIP", "flow", uuid.NullUUID{UUID: recordID, Valid: true},
			uuid.NullUUID{}, "not_archived", baseTime).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewSQLEventRepository(db, database.PostgreSQL)
	require.NoError(t, repo.Create(context.Background(), event))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE tenant_id = $1 AND kind = $2")).
		WithArgs(tenantID, "RETENTION_SKIP", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "kind", "record_kind", "record_id", "job_id",
			"reason", "created_at"}).
			AddRow(event.ID.String(), tenantID.String(), "RETENTION_SKIP", "flow", recordID.String(), nil,
				"not_archived", baseTime))

	events, err := repo.List(context.Background(), tenantID, retentionDomain.EventRetentionSkip, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].RecordID)
	assert.Equal(t, recordID, *events[0].RecordID)
	assert.Nil(t, events[0].JobID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
