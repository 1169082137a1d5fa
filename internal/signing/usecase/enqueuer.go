package usecase

import (
	"context"
	"time"

	apperrors "github.com/allisson/trustlog/internal/errors"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

// RecordEnqueuer writes the pending signature of a freshly appended record.
// It is called inside the append transaction.
type RecordEnqueuer struct {
	repo SignatureRepository
}

// NewRecordEnqueuer creates a RecordEnqueuer.
func NewRecordEnqueuer(repo SignatureRepository) *RecordEnqueuer {
	return &RecordEnqueuer{repo: repo}
}

// EnqueueRecord creates the pending signature for record.
func (e *RecordEnqueuer) EnqueueRecord(ctx context.Context, record *recordDomain.Record) error {
	kind := signingDomain.SubjectKind(record.Kind)
	if !kind.IsRecord() {
		return signingDomain.ErrUnknownSubject
	}
	now := time.Now().UTC()
	sig := signingDomain.NewPending(record.TenantID, kind, record.ID, now)
	return apperrors.Wrap(e.repo.Create(ctx, sig), "failed to enqueue record signature")
}
