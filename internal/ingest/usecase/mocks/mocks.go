// Package mocks provides testify mocks for the ingest use case.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	ingestDomain "github.com/allisson/trustlog/internal/ingest/domain"
)

// MockIngestUseCase is a mock implementation of usecase.IngestUseCase.
type MockIngestUseCase struct {
	mock.Mock
}

func (m *MockIngestUseCase) Landing(ctx context.Context, slug string) (*ingestDomain.Landing, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingestDomain.Landing), args.Error(1)
}

func (m *MockIngestUseCase) Submit(
	ctx context.Context,
	slug string,
	form *ingestDomain.Form,
) (*ingestDomain.Receipt, error) {
	args := m.Called(ctx, slug, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingestDomain.Receipt), args.Error(1)
}

func (m *MockIngestUseCase) Leave(ctx context.Context, slug, macSurrogate string) error {
	args := m.Called(ctx, slug, macSurrogate)
	return args.Error(0)
}
