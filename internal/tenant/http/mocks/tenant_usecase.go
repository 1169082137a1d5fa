// Package mocks provides mock implementations for tenant HTTP handler tests.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

// MockTenantUseCase is a mock implementation of usecase.TenantUseCase.
type MockTenantUseCase struct {
	mock.Mock
}

func (m *MockTenantUseCase) Create(
	ctx context.Context,
	input *tenantDomain.CreateTenantInput,
) (*tenantDomain.Tenant, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenantDomain.Tenant), args.Error(1)
}

func (m *MockTenantUseCase) Get(ctx context.Context, tenantID uuid.UUID) (*tenantDomain.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenantDomain.Tenant), args.Error(1)
}

func (m *MockTenantUseCase) GetBySlug(ctx context.Context, slug string) (*tenantDomain.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenantDomain.Tenant), args.Error(1)
}

func (m *MockTenantUseCase) List(ctx context.Context, offset, limit int) ([]*tenantDomain.Tenant, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*tenantDomain.Tenant), args.Error(1)
}

func (m *MockTenantUseCase) UpdatePolicy(
	ctx context.Context,
	tenantID uuid.UUID,
	input *tenantDomain.UpdateTenantPolicyInput,
) (*tenantDomain.Tenant, error) {
	args := m.Called(ctx, tenantID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenantDomain.Tenant), args.Error(1)
}
