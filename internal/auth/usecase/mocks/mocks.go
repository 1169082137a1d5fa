// Package mocks provides testify mocks for the auth use cases.
package mocks

import (
	"context"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
)

// MockTokenUseCase is a mock implementation of usecase.TokenUseCase.
type MockTokenUseCase struct {
	mock.Mock
}

func (m *MockTokenUseCase) Issue(
	ctx context.Context,
	input *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.IssueTokenOutput), args.Error(1)
}

func (m *MockTokenUseCase) Authenticate(
	ctx context.Context,
	tokenHash string,
	sourceIP netip.Addr,
) (*authDomain.Operator, error) {
	args := m.Called(ctx, tokenHash, sourceIP)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Operator), args.Error(1)
}

func (m *MockTokenUseCase) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenUseCase) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockOperatorUseCase is a mock implementation of usecase.OperatorUseCase.
type MockOperatorUseCase struct {
	mock.Mock
}

func (m *MockOperatorUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateOperatorInput,
) (*authDomain.CreateOperatorOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.CreateOperatorOutput), args.Error(1)
}

func (m *MockOperatorUseCase) Update(
	ctx context.Context,
	operatorID uuid.UUID,
	input *authDomain.UpdateOperatorInput,
) error {
	args := m.Called(ctx, operatorID, input)
	return args.Error(0)
}

func (m *MockOperatorUseCase) Get(ctx context.Context, operatorID uuid.UUID) (*authDomain.Operator, error) {
	args := m.Called(ctx, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Operator), args.Error(1)
}

func (m *MockOperatorUseCase) List(ctx context.Context, offset, limit int) ([]*authDomain.Operator, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*authDomain.Operator), args.Error(1)
}

func (m *MockOperatorUseCase) Unlock(ctx context.Context, operatorID uuid.UUID) error {
	args := m.Called(ctx, operatorID)
	return args.Error(0)
}
