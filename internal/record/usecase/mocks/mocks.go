// Package mocks provides testify mocks for the record use case.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	recordUseCase "github.com/allisson/trustlog/internal/record/usecase"
)

// MockRecordUseCase is a mock implementation of usecase.RecordUseCase.
type MockRecordUseCase struct {
	mock.Mock
}

func (m *MockRecordUseCase) Append(
	ctx context.Context,
	input *recordDomain.AppendInput,
) (*recordDomain.Record, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recordDomain.Record), args.Error(1)
}

func (m *MockRecordUseCase) Get(ctx context.Context, tenantID, recordID uuid.UUID) (*recordDomain.Record, error) {
	args := m.Called(ctx, tenantID, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recordDomain.Record), args.Error(1)
}

func (m *MockRecordUseCase) Range(ctx context.Context, q recordUseCase.RangeFilter) (*recordDomain.Page, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recordDomain.Page), args.Error(1)
}

func (m *MockRecordUseCase) RangeSealed(ctx context.Context, q recordUseCase.RangeFilter) (*recordDomain.Page, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recordDomain.Page), args.Error(1)
}

func (m *MockRecordUseCase) Open(record *recordDomain.Record) *recordDomain.Record {
	args := m.Called(record)
	return args.Get(0).(*recordDomain.Record)
}

func (m *MockRecordUseCase) RecentDeviceMatch(
	ctx context.Context,
	tenantID uuid.UUID,
	macSurrogate string,
	within time.Duration,
) (*recordDomain.Record, error) {
	args := m.Called(ctx, tenantID, macSurrogate, within)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recordDomain.Record), args.Error(1)
}

func (m *MockRecordUseCase) RevokeDevice(ctx context.Context, tenantID uuid.UUID, macSurrogate string) error {
	args := m.Called(ctx, tenantID, macSurrogate)
	return args.Error(0)
}

func (m *MockRecordUseCase) ContentHash(ctx context.Context, tenantID, recordID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID, recordID)
	return args.String(0), args.Error(1)
}

func (m *MockRecordUseCase) MarkArchived(
	ctx context.Context,
	tenantID uuid.UUID,
	recordIDs []uuid.UUID,
	at time.Time,
) error {
	args := m.Called(ctx, tenantID, recordIDs, at)
	return args.Error(0)
}

func (m *MockRecordUseCase) Purge(
	ctx context.Context,
	tenantID, recordID uuid.UUID,
	minRetention time.Duration,
	now time.Time,
) error {
	args := m.Called(ctx, tenantID, recordID, minRetention, now)
	return args.Error(0)
}
