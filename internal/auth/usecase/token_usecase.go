package usecase

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	authService "github.com/allisson/trustlog/internal/auth/service"
	"github.com/allisson/trustlog/internal/config"
)

type tokenUseCase struct {
	config        *config.Config
	operatorRepo  OperatorRepository
	tokenRepo     TokenRepository
	secretService authService.SecretService
	tokenService  authService.TokenService
}

func (t *tokenUseCase) Issue(
	ctx context.Context,
	input *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	now := time.Now().UTC()

	operator, err := t.operatorRepo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(input.Username)))
	if err != nil {
		if errors.Is(err, authDomain.ErrOperatorNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if operator.IsLocked(now) {
		return nil, authDomain.ErrOperatorLocked
	}
	if !operator.IsActive {
		return nil, authDomain.ErrOperatorInactive
	}

	if !t.secretService.CompareSecret(input.Secret, operator.Secret) {
		attempts := operator.FailedAttempts + 1
		var lockedUntil *time.Time
		if t.config.LockoutMaxAttempts > 0 && attempts >= t.config.LockoutMaxAttempts {
			until := now.Add(t.config.LockoutDuration)
			lockedUntil = &until
		}
		if err := t.operatorRepo.UpdateLockState(ctx, operator.ID, attempts, lockedUntil); err != nil {
			return nil, err
		}
		return nil, authDomain.ErrInvalidCredentials
	}

	if err := operator.CheckAccess(input.SourceIP, now); err != nil {
		return nil, err
	}

	if operator.FailedAttempts > 0 || operator.LockedUntil != nil {
		if err := t.operatorRepo.UpdateLockState(ctx, operator.ID, 0, nil); err != nil {
			return nil, err
		}
	}

	plainToken, tokenHash, err := t.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	token := &authDomain.Token{
		ID:         uuid.Must(uuid.NewV7()),
		TokenHash:  tokenHash,
		OperatorID: operator.ID,
		ExpiresAt:  now.Add(t.config.AuthTokenExpiration),
		CreatedAt:  now,
	}
	if err := t.tokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}

	return &authDomain.IssueTokenOutput{PlainToken: plainToken, ExpiresAt: token.ExpiresAt}, nil
}

func (t *tokenUseCase) Authenticate(
	ctx context.Context,
	tokenHash string,
	sourceIP netip.Addr,
) (*authDomain.Operator, error) {
	now := time.Now().UTC()

	token, err := t.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, authDomain.ErrTokenNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}
	if token.RevokedAt != nil || !token.ExpiresAt.After(now) {
		return nil, authDomain.ErrInvalidCredentials
	}

	operator, err := t.operatorRepo.Get(ctx, token.OperatorID)
	if err != nil {
		if errors.Is(err, authDomain.ErrOperatorNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !operator.IsActive {
		return nil, authDomain.ErrOperatorInactive
	}
	if operator.IsLocked(now) {
		return nil, authDomain.ErrOperatorLocked
	}
	if err := operator.CheckAccess(sourceIP, now); err != nil {
		return nil, err
	}

	return operator, nil
}

func (t *tokenUseCase) Revoke(ctx context.Context, tokenHash string) error {
	token, err := t.tokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return err
	}
	if token.RevokedAt != nil {
		return nil
	}
	return t.tokenRepo.Revoke(ctx, token.ID, time.Now().UTC())
}

func (t *tokenUseCase) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	return t.tokenRepo.DeleteExpired(ctx, before)
}

// NewTokenUseCase creates a TokenUseCase.
func NewTokenUseCase(
	config *config.Config,
	operatorRepo OperatorRepository,
	tokenRepo TokenRepository,
	secretService authService.SecretService,
	tokenService authService.TokenService,
) TokenUseCase {
	return &tokenUseCase{
		config:        config,
		operatorRepo:  operatorRepo,
		tokenRepo:     tokenRepo,
		secretService: secretService,
		tokenService:  tokenService,
	}
}
