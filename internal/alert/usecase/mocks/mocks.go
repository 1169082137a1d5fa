// Package mocks provides testify mocks for the alert use case.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	alertUseCase "github.com/allisson/trustlog/internal/alert/usecase"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// MockAlertUseCase is a mock implementation of usecase.AlertUseCase.
type MockAlertUseCase struct {
	mock.Mock
}

func (m *MockAlertUseCase) Publish(ctx context.Context, event *alertDomain.Event) {
	m.Called(ctx, event)
}

func (m *MockAlertUseCase) RecordCommitted(ctx context.Context, record *recordDomain.Record) {
	m.Called(ctx, record)
}

func (m *MockAlertUseCase) RunSchedules(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAlertUseCase) Drain(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAlertUseCase) CreateRule(
	ctx context.Context,
	input *alertUseCase.RuleInput,
) (*alertDomain.Rule, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alertDomain.Rule), args.Error(1)
}

func (m *MockAlertUseCase) GetRule(ctx context.Context, tenantID, ruleID uuid.UUID) (*alertDomain.Rule, error) {
	args := m.Called(ctx, tenantID, ruleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alertDomain.Rule), args.Error(1)
}

func (m *MockAlertUseCase) ListRules(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*alertDomain.Rule, error) {
	args := m.Called(ctx, tenantID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*alertDomain.Rule), args.Error(1)
}

func (m *MockAlertUseCase) SetRuleActive(
	ctx context.Context,
	tenantID, ruleID uuid.UUID,
	active bool,
) (*alertDomain.Rule, error) {
	args := m.Called(ctx, tenantID, ruleID, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alertDomain.Rule), args.Error(1)
}

func (m *MockAlertUseCase) DeleteRule(ctx context.Context, tenantID, ruleID uuid.UUID) error {
	args := m.Called(ctx, tenantID, ruleID)
	return args.Error(0)
}

func (m *MockAlertUseCase) GetAlert(ctx context.Context, tenantID, alertID uuid.UUID) (*alertDomain.Alert, error) {
	args := m.Called(ctx, tenantID, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alertDomain.Alert), args.Error(1)
}

func (m *MockAlertUseCase) ListAlerts(
	ctx context.Context,
	tenantID uuid.UUID,
	status alertDomain.Status,
	offset, limit int,
) ([]*alertDomain.Alert, error) {
	args := m.Called(ctx, tenantID, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*alertDomain.Alert), args.Error(1)
}

func (m *MockAlertUseCase) Acknowledge(
	ctx context.Context,
	tenantID, alertID, operatorID uuid.UUID,
) (*alertDomain.Alert, error) {
	args := m.Called(ctx, tenantID, alertID, operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alertDomain.Alert), args.Error(1)
}

func (m *MockAlertUseCase) Resolve(ctx context.Context, tenantID, alertID uuid.UUID) (*alertDomain.Alert, error) {
	args := m.Called(ctx, tenantID, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alertDomain.Alert), args.Error(1)
}

func (m *MockAlertUseCase) ListDeliveries(
	ctx context.Context,
	tenantID, alertID uuid.UUID,
) ([]*alertDomain.Delivery, error) {
	args := m.Called(ctx, tenantID, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*alertDomain.Delivery), args.Error(1)
}

func (m *MockAlertUseCase) CreateSuppression(
	ctx context.Context,
	input *alertUseCase.SuppressionInput,
) (*alertDomain.Suppression, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*alertDomain.Suppression), args.Error(1)
}

func (m *MockAlertUseCase) ListSuppressions(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*alertDomain.Suppression, error) {
	args := m.Called(ctx, tenantID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*alertDomain.Suppression), args.Error(1)
}

func (m *MockAlertUseCase) DeleteSuppression(ctx context.Context, tenantID, suppressionID uuid.UUID) error {
	args := m.Called(ctx, tenantID, suppressionID)
	return args.Error(0)
}
