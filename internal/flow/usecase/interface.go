// Package usecase implements the mirror traffic recorder: batch validation,
// derived fields, suspicion scoring and persistence through the record store.
package usecase

import (
	"context"

	"github.com/google/uuid"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

// RecordAppender is the record store write path.
type RecordAppender interface {
	Append(ctx context.Context, input *recordDomain.AppendInput) (*recordDomain.Record, error)
}

// TenantLookup resolves the tenant's byte-rate threshold.
type TenantLookup interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*tenantDomain.Tenant, error)
}

// FlowInput is one submitted flow summary.
type FlowInput struct {
	Flow           *recordDomain.FlowRecord
	IdempotencyKey string
}

// BatchResult lists the records created for a batch in submission order.
type BatchResult struct {
	Records    []*recordDomain.Record
	Suspicious int
}

// FlowUseCase ingests flow summaries from external exporters.
type FlowUseCase interface {
	// Ingest validates the whole batch before storing anything. A storage
	// failure part way returns the records stored so far together with the
	// error; resubmitting with the same idempotency keys is safe.
	Ingest(ctx context.Context, tenantID uuid.UUID, flows []*FlowInput) (*BatchResult, error)
}
