package usecase

import (
	"context"
	"time"

	ingestDomain "github.com/allisson/trustlog/internal/ingest/domain"
	"github.com/allisson/trustlog/internal/metrics"
)

type ingestUseCaseWithMetrics struct {
	next    IngestUseCase
	metrics metrics.BusinessMetrics
}

// NewIngestUseCaseWithMetrics wraps an IngestUseCase with metrics recording.
func NewIngestUseCaseWithMetrics(useCase IngestUseCase, m metrics.BusinessMetrics) IngestUseCase {
	return &ingestUseCaseWithMetrics{next: useCase, metrics: m}
}

func (i *ingestUseCaseWithMetrics) Landing(ctx context.Context, slug string) (*ingestDomain.Landing, error) {
	start := time.Now()
	landing, err := i.next.Landing(ctx, slug)
	metrics.RecordResult(ctx, i.metrics, "ingest", "portal_landing", start, err)
	return landing, err
}

func (i *ingestUseCaseWithMetrics) Submit(
	ctx context.Context,
	slug string,
	form *ingestDomain.Form,
) (*ingestDomain.Receipt, error) {
	start := time.Now()
	receipt, err := i.next.Submit(ctx, slug, form)
	operation := "portal_submit"
	if receipt != nil && receipt.Remembered {
		operation = "portal_submit_remembered"
	}
	metrics.RecordResult(ctx, i.metrics, "ingest", operation, start, err)
	return receipt, err
}

func (i *ingestUseCaseWithMetrics) Leave(ctx context.Context, slug, macSurrogate string) error {
	start := time.Now()
	err := i.next.Leave(ctx, slug, macSurrogate)
	metrics.RecordResult(ctx, i.metrics, "ingest", "portal_leave", start, err)
	return err
}
