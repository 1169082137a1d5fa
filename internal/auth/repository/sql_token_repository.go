package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
)

// SQLTokenRepository persists bearer token hashes.
type SQLTokenRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// Create inserts a new token.
func (r *SQLTokenRepository) Create(ctx context.Context, token *authDomain.Token) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO tokens (id, token_hash, operator_id, expires_at, revoked_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`)

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.OperatorID,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create token")
	}
	return nil
}

// GetByTokenHash retrieves a token by its SHA-256 hash.
func (r *SQLTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.Token, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT id, token_hash, operator_id, expires_at, revoked_at, created_at
		FROM tokens WHERE token_hash = $1`)

	var (
		token     authDomain.Token
		revokedAt sql.NullTime
	)
	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.TokenHash,
		&token.OperatorID,
		&token.ExpiresAt,
		&revokedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get token")
	}
	if revokedAt.Valid {
		t := revokedAt.Time.UTC()
		token.RevokedAt = &t
	}
	token.ExpiresAt = token.ExpiresAt.UTC()
	token.CreatedAt = token.CreatedAt.UTC()
	return &token, nil
}

// Revoke marks a token as revoked.
func (r *SQLTokenRepository) Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE tokens SET revoked_at = $1 WHERE id = $2`)
	if _, err := querier.ExecContext(ctx, query, revokedAt, tokenID); err != nil {
		return apperrors.Wrap(err, "failed to revoke token")
	}
	return nil
}

// DeleteExpired removes tokens that expired before the cutoff.
func (r *SQLTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM tokens WHERE expires_at < $1`), before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired tokens")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted tokens")
	}
	return n, nil
}

// NewSQLTokenRepository creates a token repository for the given dialect.
func NewSQLTokenRepository(db *sql.DB, dialect database.Dialect) *SQLTokenRepository {
	return &SQLTokenRepository{db: db, dialect: dialect}
}
