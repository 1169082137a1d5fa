// Package mocks provides testify mocks for the signing use case.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
	signingUseCase "github.com/allisson/trustlog/internal/signing/usecase"
)

// MockSigningUseCase is a mock implementation of usecase.SigningUseCase.
type MockSigningUseCase struct {
	mock.Mock
}

func (m *MockSigningUseCase) Enqueue(
	ctx context.Context,
	tenantID uuid.UUID,
	kind signingDomain.SubjectKind,
	subjectID uuid.UUID,
) (*signingDomain.Signature, error) {
	args := m.Called(ctx, tenantID, kind, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signingDomain.Signature), args.Error(1)
}

func (m *MockSigningUseCase) ProcessTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *MockSigningUseCase) Tick(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSigningUseCase) Get(
	ctx context.Context,
	tenantID, signatureID uuid.UUID,
) (*signingDomain.Signature, error) {
	args := m.Called(ctx, tenantID, signatureID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signingDomain.Signature), args.Error(1)
}

func (m *MockSigningUseCase) LatestForSubject(
	ctx context.Context,
	tenantID, subjectID uuid.UUID,
) (*signingDomain.Signature, error) {
	args := m.Called(ctx, tenantID, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signingDomain.Signature), args.Error(1)
}

func (m *MockSigningUseCase) List(
	ctx context.Context,
	tenantID uuid.UUID,
	status signingDomain.Status,
	offset, limit int,
) ([]*signingDomain.Signature, error) {
	args := m.Called(ctx, tenantID, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*signingDomain.Signature), args.Error(1)
}

func (m *MockSigningUseCase) Verify(
	ctx context.Context,
	tenantID, signatureID uuid.UUID,
) (*signingDomain.Signature, error) {
	args := m.Called(ctx, tenantID, signatureID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signingDomain.Signature), args.Error(1)
}

func (m *MockSigningUseCase) VerifyTenant(
	ctx context.Context,
	tenantID uuid.UUID,
) (*signingUseCase.VerifyReport, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signingUseCase.VerifyReport), args.Error(1)
}

func (m *MockSigningUseCase) RegisterHasher(kind signingDomain.SubjectKind, hasher signingUseCase.SubjectHasher) {
	m.Called(kind, hasher)
}
