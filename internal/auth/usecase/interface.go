// Package usecase implements operator management and token authentication.
package usecase

import (
	"context"
	"net/netip"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
)

// OperatorRepository persists operators together with their memberships.
type OperatorRepository interface {
	Create(ctx context.Context, operator *authDomain.Operator) error
	// Update replaces the operator row and its memberships.
	Update(ctx context.Context, operator *authDomain.Operator) error
	Get(ctx context.Context, operatorID uuid.UUID) (*authDomain.Operator, error)
	GetByUsername(ctx context.Context, username string) (*authDomain.Operator, error)
	List(ctx context.Context, offset, limit int) ([]*authDomain.Operator, error)
	UpdateLockState(ctx context.Context, operatorID uuid.UUID, failedAttempts int, lockedUntil *time.Time) error
}

// TokenRepository persists bearer token hashes.
type TokenRepository interface {
	Create(ctx context.Context, token *authDomain.Token) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.Token, error)
	Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time) error
	// DeleteExpired removes tokens that expired before the cutoff and
	// returns how many were deleted.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// OperatorUseCase manages operator accounts.
type OperatorUseCase interface {
	// Create generates a secret for the new operator. The plain secret is
	// only returned here.
	Create(ctx context.Context, input *authDomain.CreateOperatorInput) (*authDomain.CreateOperatorOutput, error)
	Update(ctx context.Context, operatorID uuid.UUID, input *authDomain.UpdateOperatorInput) error
	Get(ctx context.Context, operatorID uuid.UUID) (*authDomain.Operator, error)
	List(ctx context.Context, offset, limit int) ([]*authDomain.Operator, error)
	// Unlock clears failed attempts and any lockout.
	Unlock(ctx context.Context, operatorID uuid.UUID) error
}

// TokenUseCase issues and validates bearer tokens.
type TokenUseCase interface {
	// Issue checks the credentials, the lockout state and the operator access
	// constraints. Unknown usernames and wrong secrets are indistinguishable.
	Issue(ctx context.Context, input *authDomain.IssueTokenInput) (*authDomain.IssueTokenOutput, error)

	// Authenticate resolves a token hash to its operator and re-applies the
	// access constraints for the request's source address.
	Authenticate(ctx context.Context, tokenHash string, sourceIP netip.Addr) (*authDomain.Operator, error)

	Revoke(ctx context.Context, tokenHash string) error

	// PurgeExpired deletes tokens that expired before the cutoff.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
