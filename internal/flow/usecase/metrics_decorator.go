package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/metrics"
)

type flowUseCaseWithMetrics struct {
	next    FlowUseCase
	metrics metrics.BusinessMetrics
}

// NewFlowUseCaseWithMetrics wraps a FlowUseCase with metrics recording.
func NewFlowUseCaseWithMetrics(useCase FlowUseCase, m metrics.BusinessMetrics) FlowUseCase {
	return &flowUseCaseWithMetrics{next: useCase, metrics: m}
}

func (f *flowUseCaseWithMetrics) Ingest(
	ctx context.Context,
	tenantID uuid.UUID,
	flows []*FlowInput,
) (*BatchResult, error) {
	start := time.Now()
	result, err := f.next.Ingest(ctx, tenantID, flows)
	metrics.RecordResult(ctx, f.metrics, "flow", "ingest", start, err)
	return result, err
}
