// Package mocks provides testify mocks for the flow use case.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	flowUseCase "github.com/allisson/trustlog/internal/flow/usecase"
)

// MockFlowUseCase is a mock implementation of usecase.FlowUseCase.
type MockFlowUseCase struct {
	mock.Mock
}

func (m *MockFlowUseCase) Ingest(
	ctx context.Context,
	tenantID uuid.UUID,
	flows []*flowUseCase.FlowInput,
) (*flowUseCase.BatchResult, error) {
	args := m.Called(ctx, tenantID, flows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flowUseCase.BatchResult), args.Error(1)
}
