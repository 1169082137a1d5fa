// Package mocks provides testify mocks for the retention use case.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
	retentionUseCase "github.com/allisson/trustlog/internal/retention/usecase"
)

// MockRetentionUseCase is a mock implementation of usecase.RetentionUseCase.
type MockRetentionUseCase struct {
	mock.Mock
}

func (m *MockRetentionUseCase) SetPolicy(
	ctx context.Context,
	tenantID uuid.UUID,
	input *retentionUseCase.PolicyInput,
) (*retentionDomain.Policy, error) {
	args := m.Called(ctx, tenantID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retentionDomain.Policy), args.Error(1)
}

func (m *MockRetentionUseCase) GetPolicy(
	ctx context.Context,
	tenantID uuid.UUID,
	kind recordDomain.Kind,
) (*retentionDomain.Policy, error) {
	args := m.Called(ctx, tenantID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retentionDomain.Policy), args.Error(1)
}

func (m *MockRetentionUseCase) ListPolicies(ctx context.Context, tenantID uuid.UUID) ([]*retentionDomain.Policy, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*retentionDomain.Policy), args.Error(1)
}

func (m *MockRetentionUseCase) RunArchive(
	ctx context.Context,
	tenantID uuid.UUID,
	kind recordDomain.Kind,
) (*retentionDomain.ArchiveJob, error) {
	args := m.Called(ctx, tenantID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retentionDomain.ArchiveJob), args.Error(1)
}

func (m *MockRetentionUseCase) RunCleanup(
	ctx context.Context,
	tenantID uuid.UUID,
	kind recordDomain.Kind,
) (*retentionUseCase.CleanupReport, error) {
	args := m.Called(ctx, tenantID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retentionUseCase.CleanupReport), args.Error(1)
}

func (m *MockRetentionUseCase) RunDue(ctx context.Context, cadence retentionDomain.Cadence) error {
	args := m.Called(ctx, cadence)
	return args.Error(0)
}

func (m *MockRetentionUseCase) GetJob(
	ctx context.Context,
	tenantID, jobID uuid.UUID,
) (*retentionDomain.ArchiveJob, error) {
	args := m.Called(ctx, tenantID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retentionDomain.ArchiveJob), args.Error(1)
}

func (m *MockRetentionUseCase) ListJobs(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*retentionDomain.ArchiveJob, error) {
	args := m.Called(ctx, tenantID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*retentionDomain.ArchiveJob), args.Error(1)
}

func (m *MockRetentionUseCase) VerifyJob(
	ctx context.Context,
	tenantID, jobID uuid.UUID,
) (*retentionDomain.ArchiveJob, error) {
	args := m.Called(ctx, tenantID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retentionDomain.ArchiveJob), args.Error(1)
}

func (m *MockRetentionUseCase) ListEvents(
	ctx context.Context,
	tenantID uuid.UUID,
	kind retentionDomain.EventKind,
	offset, limit int,
) ([]*retentionDomain.Event, error) {
	args := m.Called(ctx, tenantID, kind, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*retentionDomain.Event), args.Error(1)
}

func (m *MockRetentionUseCase) ReadArchived(
	ctx context.Context,
	q retentionDomain.IndexQuery,
) ([]*retentionUseCase.ArchivedEntry, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*retentionUseCase.ArchivedEntry), args.Error(1)
}
