package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/database"
	apperrors "github.com/allisson/trustlog/internal/errors"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	"github.com/allisson/trustlog/internal/retry"
)

const (
	defaultRangeLimit = 100
	maxRangeLimit     = 1000
)

type recordUseCase struct {
	txManager  database.TxManager
	recordRepo RecordRepository
	tenants    TenantLookup
	enqueuer   SignatureEnqueuer
	protector  *Protector
	observers  []Observer
	retry      retry.Policy
	logger     *slog.Logger
	now        func() time.Time

	// writers serializes appends per tenant so entry times stay monotonic.
	writers sync.Map // uuid.UUID -> *sync.Mutex
}

func (r *recordUseCase) writerLock(tenantID uuid.UUID) *sync.Mutex {
	mu, _ := r.writers.LoadOrStore(tenantID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (r *recordUseCase) Append(
	ctx context.Context,
	input *recordDomain.AppendInput,
) (*recordDomain.Record, error) {
	kind := input.Kind()
	if !kind.Valid() {
		return nil, recordDomain.ErrUnknownKind
	}

	if _, err := r.tenants.Get(ctx, input.TenantID); err != nil {
		return nil, err
	}

	mu := r.writerLock(input.TenantID)
	mu.Lock()
	record, replayed, err := r.appendLocked(ctx, kind, input)
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	plain := r.protector.Open(record)
	if !replayed {
		for _, o := range r.observers {
			o.RecordCommitted(ctx, plain)
		}
	}
	return plain, nil
}

func (r *recordUseCase) appendLocked(
	ctx context.Context,
	kind recordDomain.Kind,
	input *recordDomain.AppendInput,
) (*recordDomain.Record, bool, error) {
	if input.IdempotencyKey != "" {
		prior, err := r.recordRepo.GetByIdempotencyKey(ctx, input.TenantID, input.IdempotencyKey)
		if err == nil {
			return prior, true, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, err
		}
	}

	last, err := r.recordRepo.LastEntryTime(ctx, input.TenantID)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrPersistenceFailed, err.Error())
	}

	entryTime := r.now().UTC().Truncate(recordDomain.Tick)
	if !last.IsZero() && !entryTime.After(last) {
		entryTime = last.Add(recordDomain.Tick)
	}

	record := &recordDomain.Record{
		ID:             uuid.Must(uuid.NewV7()),
		TenantID:       input.TenantID,
		Kind:           kind,
		EntryTime:      entryTime,
		Suspicious:     input.Suspicious,
		IdempotencyKey: input.IdempotencyKey,
		Session:        input.Session,
		Syslog:         input.Syslog,
		Flow:           input.Flow,
	}
	record.ContentHash = record.ComputeHash()
	r.protector.Index(record)

	sealed, err := r.protector.Seal(record)
	if err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrPersistenceFailed, err.Error())
	}

	err = retry.Do(ctx, r.retry, func(ctx context.Context) error {
		err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
			if err := r.recordRepo.Append(ctx, sealed); err != nil {
				return err
			}
			return r.enqueuer.EnqueueRecord(ctx, sealed)
		})
		if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrStorageFull) {
			return retry.Permanent(err)
		}
		return err
	})
	switch {
	case err == nil:
		return sealed, false, nil
	case errors.Is(err, apperrors.ErrConflict) && input.IdempotencyKey != "":
		prior, getErr := r.recordRepo.GetByIdempotencyKey(ctx, input.TenantID, input.IdempotencyKey)
		if getErr != nil {
			return nil, false, apperrors.Wrap(apperrors.ErrPersistenceFailed, getErr.Error())
		}
		return prior, true, nil
	case errors.Is(err, apperrors.ErrStorageFull):
		return nil, false, err
	default:
		r.logger.Error("record append failed",
			slog.String("tenant_id", input.TenantID.String()),
			slog.String("kind", string(kind)),
			slog.Any("error", err))
		return nil, false, apperrors.Wrap(apperrors.ErrPersistenceFailed, err.Error())
	}
}

func (r *recordUseCase) Get(ctx context.Context, tenantID, recordID uuid.UUID) (*recordDomain.Record, error) {
	record, err := r.recordRepo.Get(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}
	return r.protector.Open(record), nil
}

func (r *recordUseCase) Range(ctx context.Context, q RangeFilter) (*recordDomain.Page, error) {
	page, err := r.RangeSealed(ctx, q)
	if err != nil {
		return nil, err
	}
	for i, record := range page.Records {
		page.Records[i] = r.protector.Open(record)
	}
	return page, nil
}

func (r *recordUseCase) RangeSealed(ctx context.Context, q RangeFilter) (*recordDomain.Page, error) {
	query := q.RangeQuery
	if query.IdentityDigest == "" && q.Identity != "" {
		query.IdentityDigest = r.protector.Digest(query.TenantID, q.Identity)
	}
	if query.SourceIPDigest == "" && q.SourceIP != "" {
		query.SourceIPDigest = r.protector.Digest(query.TenantID, q.SourceIP)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultRangeLimit
	}
	if limit > maxRangeLimit {
		limit = maxRangeLimit
	}
	query.Limit = limit + 1

	records, err := r.recordRepo.Range(ctx, query)
	if err != nil {
		return nil, err
	}

	page := &recordDomain.Page{Records: records}
	if len(records) > limit {
		page.Records = records[:limit]
		last := page.Records[limit-1]
		page.Next = &recordDomain.Cursor{EntryTime: last.EntryTime, ID: last.ID}
	}
	return page, nil
}

func (r *recordUseCase) Open(record *recordDomain.Record) *recordDomain.Record {
	return r.protector.Open(record)
}

func (r *recordUseCase) RecentDeviceMatch(
	ctx context.Context,
	tenantID uuid.UUID,
	macSurrogate string,
	within time.Duration,
) (*recordDomain.Record, error) {
	if macSurrogate == "" || within <= 0 {
		return nil, recordDomain.ErrRecordNotFound
	}

	macDigest := r.protector.Digest(tenantID, macSurrogate)
	since := r.now().UTC().Add(-within)

	revokedAt, err := r.recordRepo.LatestDeviceRevocation(ctx, tenantID, macDigest)
	if err != nil {
		return nil, err
	}
	if revokedAt != nil && revokedAt.After(since) {
		since = *revokedAt
	}

	record, err := r.recordRepo.LatestDeviceSession(ctx, tenantID, macDigest, since)
	if err != nil {
		return nil, err
	}
	return r.protector.Open(record), nil
}

func (r *recordUseCase) RevokeDevice(ctx context.Context, tenantID uuid.UUID, macSurrogate string) error {
	if macSurrogate == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "device surrogate is required")
	}
	return r.recordRepo.RevokeDevice(ctx, &recordDomain.DeviceRevocation{
		TenantID:  tenantID,
		MACDigest: r.protector.Digest(tenantID, macSurrogate),
		RevokedAt: r.now().UTC().Truncate(recordDomain.Tick),
	})
}

func (r *recordUseCase) ContentHash(ctx context.Context, tenantID, recordID uuid.UUID) (string, error) {
	record, err := r.Get(ctx, tenantID, recordID)
	if err != nil {
		return "", err
	}
	return record.ComputeHash(), nil
}

func (r *recordUseCase) MarkArchived(
	ctx context.Context,
	tenantID uuid.UUID,
	recordIDs []uuid.UUID,
	at time.Time,
) error {
	if len(recordIDs) == 0 {
		return nil
	}
	return r.recordRepo.MarkArchived(ctx, tenantID, recordIDs, at.UTC())
}

func (r *recordUseCase) Purge(
	ctx context.Context,
	tenantID, recordID uuid.UUID,
	minRetention time.Duration,
	now time.Time,
) error {
	tenant, err := r.tenants.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	record, err := r.recordRepo.Get(ctx, tenantID, recordID)
	if err != nil {
		return err
	}

	retention := max(minRetention, tenant.RetentionDuration())
	if now.Sub(record.EntryTime) < retention {
		return recordDomain.ErrRetentionNotElapsed
	}
	return r.recordRepo.Delete(ctx, tenantID, recordID)
}

// NewRecordUseCase creates the record store use case.
func NewRecordUseCase(
	txManager database.TxManager,
	recordRepo RecordRepository,
	tenants TenantLookup,
	enqueuer SignatureEnqueuer,
	protector *Protector,
	logger *slog.Logger,
	observers ...Observer,
) RecordUseCase {
	return &recordUseCase{
		txManager:  txManager,
		recordRepo: recordRepo,
		tenants:    tenants,
		enqueuer:   enqueuer,
		protector:  protector,
		observers:  observers,
		retry:      retry.Default,
		logger:     logger,
		now:        time.Now,
	}
}
