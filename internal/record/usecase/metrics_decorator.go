package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/metrics"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

type recordUseCaseWithMetrics struct {
	next    RecordUseCase
	metrics metrics.BusinessMetrics
}

// NewRecordUseCaseWithMetrics wraps a RecordUseCase with metrics recording.
func NewRecordUseCaseWithMetrics(useCase RecordUseCase, m metrics.BusinessMetrics) RecordUseCase {
	return &recordUseCaseWithMetrics{next: useCase, metrics: m}
}

func (r *recordUseCaseWithMetrics) Append(
	ctx context.Context,
	input *recordDomain.AppendInput,
) (*recordDomain.Record, error) {
	start := time.Now()
	record, err := r.next.Append(ctx, input)
	metrics.RecordResult(ctx, r.metrics, "record", "record_append_"+string(input.Kind()), start, err)
	return record, err
}

func (r *recordUseCaseWithMetrics) Get(ctx context.Context, tenantID, recordID uuid.UUID) (*recordDomain.Record, error) {
	start := time.Now()
	record, err := r.next.Get(ctx, tenantID, recordID)
	metrics.RecordResult(ctx, r.metrics, "record", "record_get", start, err)
	return record, err
}

func (r *recordUseCaseWithMetrics) Range(ctx context.Context, q RangeFilter) (*recordDomain.Page, error) {
	start := time.Now()
	page, err := r.next.Range(ctx, q)
	metrics.RecordResult(ctx, r.metrics, "record", "record_range", start, err)
	return page, err
}

func (r *recordUseCaseWithMetrics) RangeSealed(ctx context.Context, q RangeFilter) (*recordDomain.Page, error) {
	start := time.Now()
	page, err := r.next.RangeSealed(ctx, q)
	metrics.RecordResult(ctx, r.metrics, "record", "record_range_sealed", start, err)
	return page, err
}

func (r *recordUseCaseWithMetrics) Open(record *recordDomain.Record) *recordDomain.Record {
	return r.next.Open(record)
}

func (r *recordUseCaseWithMetrics) RecentDeviceMatch(
	ctx context.Context,
	tenantID uuid.UUID,
	macSurrogate string,
	within time.Duration,
) (*recordDomain.Record, error) {
	start := time.Now()
	record, err := r.next.RecentDeviceMatch(ctx, tenantID, macSurrogate, within)
	metrics.RecordResult(ctx, r.metrics, "record", "record_recent_device_match", start, err)
	return record, err
}

func (r *recordUseCaseWithMetrics) RevokeDevice(ctx context.Context, tenantID uuid.UUID, macSurrogate string) error {
	start := time.Now()
	err := r.next.RevokeDevice(ctx, tenantID, macSurrogate)
	metrics.RecordResult(ctx, r.metrics, "record", "record_revoke_device", start, err)
	return err
}

func (r *recordUseCaseWithMetrics) ContentHash(ctx context.Context, tenantID, recordID uuid.UUID) (string, error) {
	start := time.Now()
	hash, err := r.next.ContentHash(ctx, tenantID, recordID)
	metrics.RecordResult(ctx, r.metrics, "record", "record_content_hash", start, err)
	return hash, err
}

func (r *recordUseCaseWithMetrics) MarkArchived(
	ctx context.Context,
	tenantID uuid.UUID,
	recordIDs []uuid.UUID,
	at time.Time,
) error {
	start := time.Now()
	err := r.next.MarkArchived(ctx, tenantID, recordIDs, at)
	metrics.RecordResult(ctx, r.metrics, "record", "record_mark_archived", start, err)
	return err
}

func (r *recordUseCaseWithMetrics) Purge(
	ctx context.Context,
	tenantID, recordID uuid.UUID,
	minRetention time.Duration,
	now time.Time,
) error {
	start := time.Now()
	err := r.next.Purge(ctx, tenantID, recordID, minRetention, now)
	metrics.RecordResult(ctx, r.metrics, "record", "record_purge", start, err)
	return err
}
