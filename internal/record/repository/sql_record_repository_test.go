package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

var recordColumnNames = []string{
	"id", "tenant_id", "kind", "entry_time_us", "content_hash", "identity_digest", "mac_digest",
	"source_ip_digest", "suspicious", "idempotency_key", "archived_at", "payload",
}

func recordRow(rows *sqlmock.Rows, r *recordDomain.Record) *sqlmock.Rows {
	payload, _ := r.MarshalPayload()
	var archivedAt driver.Value
	if r.ArchivedAt != nil {
		archivedAt = *r.ArchivedAt
	}
	return rows.AddRow(
		r.ID.String(), r.TenantID.String(), string(r.Kind), r.EntryTime.UnixMicro(), r.ContentHash,
		r.IdentityDigest, r.MACDigest, r.SourceIPDigest, r.Suspicious, nil, archivedAt, string(payload),
	)
}

func TestSQLRecordRepository_Append(t *testing.T) {
	for _, dialect := range []database.Dialect{database.PostgreSQL, database.MySQL} {
		t.Run(string(dialect), func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewSQLRecordRepository(db, dialect)
			r := newSession(uuid.Must(uuid.NewV7()), 0, "mac", false)
			r.ContentHash = "abc"

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records")).
				WithArgs(r.ID, r.TenantID, "session", r.EntryTime.UnixMicro(), "abc", "", "mac", "",
					false, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(1, 1))

			require.NoError(t, repo.Append(context.Background(), r))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("Error_UniqueViolation", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records")).
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})

		err = NewSQLRecordRepository(db, database.PostgreSQL).
			Append(context.Background(), newSession(uuid.Must(uuid.NewV7()), 0, "", false))
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("Error_DiskFull", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records")).
			WillReturnError(&pq.Error{Code: "53100", Message: "disk full"})

		err = NewSQLRecordRepository(db, database.PostgreSQL).
			Append(context.Background(), newSession(uuid.Must(uuid.NewV7()), 0, "", false))
		assert.ErrorIs(t, err, apperrors.ErrStorageFull)
	})
}

func TestSQLRecordRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLRecordRepository(db, database.PostgreSQL)
	r := newSession(uuid.Must(uuid.NewV7()), 0, "mac", false)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM records WHERE tenant_id = $1 AND id = $2")).
			WithArgs(r.TenantID, r.ID).
			WillReturnRows(recordRow(sqlmock.NewRows(recordColumnNames), r))

		got, err := repo.Get(context.Background(), r.TenantID, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.ID, got.ID)
		assert.Equal(t, r.EntryTime, got.EntryTime)
		assert.Equal(t, "sealed", got.Session.IdentityValue)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM records WHERE tenant_id = $1 AND id = $2")).
			WillReturnRows(sqlmock.NewRows(recordColumnNames))

		_, err := repo.Get(context.Background(), r.TenantID, r.ID)
		assert.ErrorIs(t, err, recordDomain.ErrRecordNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRecordRepository_Range(t *testing.T) {
	t.Run("Success_PostgreSQLFilters", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		tenantID := uuid.Must(uuid.NewV7())
		after := &recordDomain.Cursor{EntryTime: baseTime, ID: uuid.Must(uuid.NewV7())}
		suspicious := true
		r := newSession(tenantID, time.Second, "mac", true)

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE tenant_id = $1 AND kind IN ($2) AND entry_time_us >= $3 `+
			`AND suspicious = $4 AND archived_at IS NULL AND (entry_time_us > $5 OR (entry_time_us = $6 AND id > $7)) `+
			`ORDER BY entry_time_us ASC, id ASC LIMIT $8`)).
			WithArgs(tenantID, "session", baseTime.UnixMicro(), true, baseTime.UnixMicro(), baseTime.UnixMicro(), after.ID, 10).
			WillReturnRows(recordRow(sqlmock.NewRows(recordColumnNames), r))

		notArchived := false
		records, err := NewSQLRecordRepository(db, database.PostgreSQL).Range(context.Background(), recordDomain.RangeQuery{
			TenantID:   tenantID,
			Kinds:      []recordDomain.Kind{recordDomain.KindSession},
			From:       baseTime,
			Suspicious: &suspicious,
			Archived:   &notArchived,
			After:      after,
			Limit:      10,
		})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].Suspicious)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_MySQLPlaceholders", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		tenantID := uuid.Must(uuid.NewV7())
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE tenant_id = ? AND identity_digest = ? ORDER BY entry_time_us ASC, id ASC`)).
			WithArgs(tenantID, "digest").
			WillReturnRows(sqlmock.NewRows(recordColumnNames))

		records, err := NewSQLRecordRepository(db, database.MySQL).Range(context.Background(), recordDomain.RangeQuery{
			TenantID:       tenantID,
			IdentityDigest: "digest",
		})
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_Query", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT").WillReturnError(errors.New("boom"))
		_, err = NewSQLRecordRepository(db, database.PostgreSQL).Range(context.Background(), recordDomain.RangeQuery{})
		assert.Error(t, err)
	})
}

func TestSQLRecordRepository_LastEntryTime(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLRecordRepository(db, database.PostgreSQL)
	tenantID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(entry_time_us) FROM records")).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	last, err := repo.LastEntryTime(context.Background(), tenantID)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(entry_time_us) FROM records")).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(baseTime.UnixMicro()))
	last, err = repo.LastEntryTime(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, baseTime, last)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRecordRepository_MarkArchivedAndDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLRecordRepository(db, database.MySQL)
	tenantID := uuid.Must(uuid.NewV7())
	ids := []uuid.UUID{uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7())}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE records SET archived_at = ? WHERE tenant_id = ? AND archived_at IS NULL AND id IN (?, ?)")).
		WithArgs(baseTime, tenantID, ids[0], ids[1]).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.MarkArchived(context.Background(), tenantID, ids, baseTime))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records WHERE tenant_id = ? AND id = ?")).
		WithArgs(tenantID, ids[0]).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), tenantID, ids[0]), recordDomain.ErrRecordNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
