// Package mocks provides testify mocks for the syslog collector use case.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	syslogDomain "github.com/allisson/trustlog/internal/syslog/domain"
	syslogUseCase "github.com/allisson/trustlog/internal/syslog/usecase"
)

// MockCollectorUseCase is a mock implementation of usecase.CollectorUseCase.
type MockCollectorUseCase struct {
	mock.Mock
}

func (m *MockCollectorUseCase) Ingest(
	ctx context.Context,
	in *syslogUseCase.Inbound,
) (*syslogUseCase.IngestResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syslogUseCase.IngestResult), args.Error(1)
}

func (m *MockCollectorUseCase) ReportOverflow(ctx context.Context, endpoint *syslogDomain.Endpoint, dropped int) {
	m.Called(ctx, endpoint, dropped)
}

func (m *MockCollectorUseCase) CreateEndpoint(
	ctx context.Context,
	input *syslogUseCase.EndpointInput,
) (*syslogDomain.Endpoint, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syslogDomain.Endpoint), args.Error(1)
}

func (m *MockCollectorUseCase) GetEndpoint(
	ctx context.Context,
	tenantID, endpointID uuid.UUID,
) (*syslogDomain.Endpoint, error) {
	args := m.Called(ctx, tenantID, endpointID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syslogDomain.Endpoint), args.Error(1)
}

func (m *MockCollectorUseCase) ListEndpoints(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*syslogDomain.Endpoint, error) {
	args := m.Called(ctx, tenantID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syslogDomain.Endpoint), args.Error(1)
}

func (m *MockCollectorUseCase) ListActiveEndpoints(ctx context.Context) ([]*syslogDomain.Endpoint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syslogDomain.Endpoint), args.Error(1)
}

func (m *MockCollectorUseCase) SetEndpointActive(
	ctx context.Context,
	tenantID, endpointID uuid.UUID,
	active bool,
) (*syslogDomain.Endpoint, error) {
	args := m.Called(ctx, tenantID, endpointID, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syslogDomain.Endpoint), args.Error(1)
}

func (m *MockCollectorUseCase) DeleteEndpoint(ctx context.Context, tenantID, endpointID uuid.UUID) error {
	args := m.Called(ctx, tenantID, endpointID)
	return args.Error(0)
}

func (m *MockCollectorUseCase) CreateFilter(
	ctx context.Context,
	input *syslogUseCase.FilterInput,
) (*syslogDomain.Filter, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syslogDomain.Filter), args.Error(1)
}

func (m *MockCollectorUseCase) GetFilter(
	ctx context.Context,
	tenantID, filterID uuid.UUID,
) (*syslogDomain.Filter, error) {
	args := m.Called(ctx, tenantID, filterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syslogDomain.Filter), args.Error(1)
}

func (m *MockCollectorUseCase) ListFilters(ctx context.Context, tenantID uuid.UUID) ([]*syslogDomain.Filter, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syslogDomain.Filter), args.Error(1)
}

func (m *MockCollectorUseCase) UpdateFilter(
	ctx context.Context,
	filterID uuid.UUID,
	input *syslogUseCase.FilterInput,
) (*syslogDomain.Filter, error) {
	args := m.Called(ctx, filterID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syslogDomain.Filter), args.Error(1)
}

func (m *MockCollectorUseCase) DeleteFilter(ctx context.Context, tenantID, filterID uuid.UUID) error {
	args := m.Called(ctx, tenantID, filterID)
	return args.Error(0)
}

func (m *MockCollectorUseCase) ListClients(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*syslogDomain.Client, error) {
	args := m.Called(ctx, tenantID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syslogDomain.Client), args.Error(1)
}

func (m *MockCollectorUseCase) SweepClients(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
