package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
)

type mockSecretService struct {
	mock.Mock
}

func (m *mockSecretService) GenerateSecret() (string, string, error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockSecretService) HashSecret(plainSecret string) (string, error) {
	args := m.Called(plainSecret)
	return args.String(0), args.Error(1)
}

func (m *mockSecretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	args := m.Called(plainSecret, hashedSecret)
	return args.Bool(0)
}

type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) GenerateToken() (string, string, error) {
	args := m.Called()
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockTokenService) HashToken(plainToken string) string {
	args := m.Called(plainToken)
	return args.String(0)
}

type mockOperatorRepository struct {
	mock.Mock
}

func (m *mockOperatorRepository) Create(ctx context.Context, operator *authDomain.Operator) error {
	return m.Called(ctx, operator).Error(0)
}

func (m *mockOperatorRepository) Update(ctx context.Context, operator *authDomain.Operator) error {
	return m.Called(ctx, operator).Error(0)
}

func (m *mockOperatorRepository) Get(ctx context.Context, operatorID uuid.UUID) (*authDomain.Operator, error) {
	args := m.Called(ctx, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Operator), args.Error(1)
}

func (m *mockOperatorRepository) GetByUsername(ctx context.Context, username string) (*authDomain.Operator, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Operator), args.Error(1)
}

func (m *mockOperatorRepository) List(ctx context.Context, offset, limit int) ([]*authDomain.Operator, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.Operator), args.Error(1)
}

func (m *mockOperatorRepository) UpdateLockState(
	ctx context.Context,
	operatorID uuid.UUID,
	failedAttempts int,
	lockedUntil *time.Time,
) error {
	return m.Called(ctx, operatorID, failedAttempts, lockedUntil).Error(0)
}

type mockTokenRepository struct {
	mock.Mock
}

func (m *mockTokenRepository) Create(ctx context.Context, token *authDomain.Token) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.Token, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Token), args.Error(1)
}

func (m *mockTokenRepository) Revoke(ctx context.Context, tokenID uuid.UUID, revokedAt time.Time) error {
	return m.Called(ctx, tokenID, revokedAt).Error(0)
}

func (m *mockTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
