// Package mocks provides testify mocks for the dossier use case.
package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
	dossierUseCase "github.com/allisson/trustlog/internal/dossier/usecase"
)

// MockDossierUseCase is a mock implementation of usecase.DossierUseCase.
type MockDossierUseCase struct {
	mock.Mock
}

func (m *MockDossierUseCase) Create(
	ctx context.Context,
	input *dossierDomain.CreateInput,
) (*dossierDomain.Dossier, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dossierDomain.Dossier), args.Error(1)
}

func (m *MockDossierUseCase) Submit(
	ctx context.Context,
	input *dossierUseCase.TransitionInput,
) (*dossierDomain.Dossier, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dossierDomain.Dossier), args.Error(1)
}

func (m *MockDossierUseCase) Approve(
	ctx context.Context,
	input *dossierUseCase.TransitionInput,
) (*dossierDomain.Dossier, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dossierDomain.Dossier), args.Error(1)
}

func (m *MockDossierUseCase) Reject(
	ctx context.Context,
	input *dossierUseCase.TransitionInput,
) (*dossierDomain.Dossier, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dossierDomain.Dossier), args.Error(1)
}

func (m *MockDossierUseCase) Generate(
	ctx context.Context,
	input *dossierUseCase.TransitionInput,
) (*dossierDomain.Dossier, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dossierDomain.Dossier), args.Error(1)
}

func (m *MockDossierUseCase) Deliver(
	ctx context.Context,
	input *dossierUseCase.TransitionInput,
) (*dossierDomain.Dossier, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dossierDomain.Dossier), args.Error(1)
}

func (m *MockDossierUseCase) Get(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
) (*dossierDomain.Dossier, error) {
	args := m.Called(ctx, tenantID, dossierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dossierDomain.Dossier), args.Error(1)
}

func (m *MockDossierUseCase) List(
	ctx context.Context,
	tenantID uuid.UUID,
	status dossierDomain.Status,
	offset, limit int,
) ([]*dossierDomain.Dossier, error) {
	args := m.Called(ctx, tenantID, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dossierDomain.Dossier), args.Error(1)
}

func (m *MockDossierUseCase) ListAudit(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
) ([]*dossierDomain.AuditEntry, error) {
	args := m.Called(ctx, tenantID, dossierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dossierDomain.AuditEntry), args.Error(1)
}

func (m *MockDossierUseCase) VerifyAudit(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
) (*dossierUseCase.AuditReport, error) {
	args := m.Called(ctx, tenantID, dossierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dossierUseCase.AuditReport), args.Error(1)
}

func (m *MockDossierUseCase) ListAccesses(
	ctx context.Context,
	tenantID, dossierID uuid.UUID, offset, limit int,
) ([]*dossierDomain.Access, error) {
	args := m.Called(ctx, tenantID, dossierID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dossierDomain.Access), args.Error(1)
}

func (m *MockDossierUseCase) RecordAccess(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
	input *dossierDomain.AccessInput,
) (*dossierDomain.Access, error) {
	args := m.Called(ctx, tenantID, dossierID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dossierDomain.Access), args.Error(1)
}

func (m *MockDossierUseCase) ContentHash(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
) (string, error) {
	args := m.Called(ctx, tenantID, dossierID)
	return args.String(0), args.Error(1)
}

func (m *MockDossierUseCase) SweepIntegrity(ctx context.Context) (*dossierUseCase.SweepReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dossierUseCase.SweepReport), args.Error(1)
}

func (m *MockDossierUseCase) Open(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
	input *dossierDomain.AccessInput,
) (*dossierDomain.Dossier, io.ReadCloser, error) {
	args := m.Called(ctx, tenantID, dossierID, input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*dossierDomain.Dossier), args.Get(1).(io.ReadCloser), args.Error(2)
}

func (m *MockDossierUseCase) VerifyIntegrity(ctx context.Context, tenantID, dossierID uuid.UUID) error {
	args := m.Called(ctx, tenantID, dossierID)
	return args.Error(0)
}
