package repository

import (
	"context"
	"database/sql"
	"net/netip"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	"github.com/allisson/trustlog/internal/database"
)

var operatorRowColumns = []string{
	"id", "username", "secret", "is_active", "allowed_cidrs", "access_window_from",
	"access_window_to", "valid_until", "failed_attempts", "locked_until", "created_at",
}

func TestSQLOperatorRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tenantID := uuid.Must(uuid.NewV7())
	op := &authDomain.Operator{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     "ayse",
		Secret:       "hash",
		IsActive:     true,
		AllowedCIDRs: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8"), netip.MustParsePrefix("192.168.1.0/24")},
		AccessWindow: &authDomain.AccessWindow{From: 480, To: 1080},
		Memberships: []authDomain.Membership{{
			TenantID:    tenantID,
			Role:        authDomain.RoleStaff,
			Permissions: []authDomain.Permission{authDomain.PermViewRecords, authDomain.PermIngestFlows},
		}},
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO operators")).
		WithArgs(op.ID, "ayse", "hash", true, "10.0.0.0/8,192.168.1.0/24", int64(480), int64(1080),
			nil, 0, nil, op.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO operator_memberships")).
		WithArgs(op.ID, tenantID, "staff", "view_records,ingest_flows").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSQLOperatorRepository(db, database.MySQL)
	require.NoError(t, repo.Create(context.Background(), op))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLOperatorRepository_GetByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.Must(uuid.NewV7())
	tenantID := uuid.Must(uuid.NewV7())
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	validUntil := created.Add(365 * 24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM operators WHERE username = $1")).
		WithArgs("ayse").
		WillReturnRows(sqlmock.NewRows(operatorRowColumns).AddRow(
			id.String(), "ayse", "hash", true, "10.0.0.0/8", int64(60), int64(120),
			validUntil, 2, nil, created,
		))
	mock.ExpectQuery(regexp.QuoteMeta("FROM operator_memberships")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id", "role", "permissions"}).
			AddRow(tenantID.String(), "admin", "view_records,approve_dossiers"))

	repo := NewSQLOperatorRepository(db, database.PostgreSQL)
	op, err := repo.GetByUsername(context.Background(), "ayse")

	require.NoError(t, err)
	assert.Equal(t, id, op.ID)
	assert.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}, op.AllowedCIDRs)
	assert.Equal(t, &authDomain.AccessWindow{From: 60, To: 120}, op.AccessWindow)
	require.NotNil(t, op.ValidUntil)
	assert.True(t, validUntil.Equal(*op.ValidUntil))
	assert.Nil(t, op.LockedUntil)
	assert.Equal(t, 2, op.FailedAttempts)
	require.Len(t, op.Memberships, 1)
	assert.True(t, op.HasPermission(tenantID, authDomain.PermApproveDossiers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLOperatorRepository_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.Must(uuid.NewV7())
	mock.ExpectQuery(regexp.QuoteMeta("FROM operators WHERE id = $1")).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	repo := NewSQLOperatorRepository(db, database.PostgreSQL)
	_, err = repo.Get(context.Background(), id)
	assert.ErrorIs(t, err, authDomain.ErrOperatorNotFound)
}

func TestSQLOperatorRepository_UpdateReplacesMemberships(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tenantID := uuid.Must(uuid.NewV7())
	op := &authDomain.Operator{
		ID:       uuid.Must(uuid.NewV7()),
		Secret:   "hash",
		IsActive: false,
		Memberships: []authDomain.Membership{{
			TenantID:    tenantID,
			Role:        authDomain.RoleViewer,
			Permissions: []authDomain.Permission{authDomain.PermViewRecords},
		}},
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE operators")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM operator_memberships WHERE operator_id = ?")).
		WithArgs(op.ID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO operator_memberships")).
		WithArgs(op.ID, tenantID, "viewer", "view_records").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSQLOperatorRepository(db, database.MySQL)
	require.NoError(t, repo.Update(context.Background(), op))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTokenRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("GetByTokenHash", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		id := uuid.Must(uuid.NewV7())
		opID := uuid.Must(uuid.NewV7())
		expires := time.Now().UTC().Add(time.Hour)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tokens WHERE token_hash = $1")).
			WithArgs("hash").
			WillReturnRows(sqlmock.NewRows([]string{"id", "token_hash", "operator_id", "expires_at", "revoked_at", "created_at"}).
				AddRow(id.String(), "hash", opID.String(), expires, nil, expires.Add(-time.Hour)))

		repo := NewSQLTokenRepository(db, database.PostgreSQL)
		tok, err := repo.GetByTokenHash(ctx, "hash")
		require.NoError(t, err)
		assert.Equal(t, opID, tok.OperatorID)
		assert.Nil(t, tok.RevokedAt)
	})

	t.Run("GetByTokenHash_NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM tokens")).WillReturnError(sql.ErrNoRows)

		repo := NewSQLTokenRepository(db, database.PostgreSQL)
		_, err = repo.GetByTokenHash(ctx, "missing")
		assert.ErrorIs(t, err, authDomain.ErrTokenNotFound)
	})

	t.Run("DeleteExpired", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		cutoff := time.Now().UTC()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tokens WHERE expires_at < ?")).
			WithArgs(cutoff).
			WillReturnResult(sqlmock.NewResult(0, 3))

		repo := NewSQLTokenRepository(db, database.MySQL)
		n, err := repo.DeleteExpired(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})
}
