package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/metrics"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

type signingUseCaseWithMetrics struct {
	next    SigningUseCase
	metrics metrics.BusinessMetrics
}

// NewSigningUseCaseWithMetrics wraps a SigningUseCase with metrics recording.
func NewSigningUseCaseWithMetrics(useCase SigningUseCase, m metrics.BusinessMetrics) SigningUseCase {
	return &signingUseCaseWithMetrics{next: useCase, metrics: m}
}

func (s *signingUseCaseWithMetrics) Enqueue(
	ctx context.Context,
	tenantID uuid.UUID,
	kind signingDomain.SubjectKind,
	subjectID uuid.UUID,
) (*signingDomain.Signature, error) {
	start := time.Now()
	sig, err := s.next.Enqueue(ctx, tenantID, kind, subjectID)
	metrics.RecordResult(ctx, s.metrics, "signing", "signature_enqueue", start, err)
	return sig, err
}

func (s *signingUseCaseWithMetrics) ProcessTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	start := time.Now()
	n, err := s.next.ProcessTenant(ctx, tenantID)
	metrics.RecordResult(ctx, s.metrics, "signing", "signature_batch", start, err)
	return n, err
}

func (s *signingUseCaseWithMetrics) Tick(ctx context.Context) error {
	start := time.Now()
	err := s.next.Tick(ctx)
	metrics.RecordResult(ctx, s.metrics, "signing", "signer_tick", start, err)
	return err
}

func (s *signingUseCaseWithMetrics) Get(
	ctx context.Context,
	tenantID, signatureID uuid.UUID,
) (*signingDomain.Signature, error) {
	start := time.Now()
	sig, err := s.next.Get(ctx, tenantID, signatureID)
	metrics.RecordResult(ctx, s.metrics, "signing", "signature_get", start, err)
	return sig, err
}

func (s *signingUseCaseWithMetrics) LatestForSubject(
	ctx context.Context,
	tenantID, subjectID uuid.UUID,
) (*signingDomain.Signature, error) {
	start := time.Now()
	sig, err := s.next.LatestForSubject(ctx, tenantID, subjectID)
	metrics.RecordResult(ctx, s.metrics, "signing", "signature_latest", start, err)
	return sig, err
}

func (s *signingUseCaseWithMetrics) List(
	ctx context.Context,
	tenantID uuid.UUID,
	status signingDomain.Status,
	offset, limit int,
) ([]*signingDomain.Signature, error) {
	start := time.Now()
	sigs, err := s.next.List(ctx, tenantID, status, offset, limit)
	metrics.RecordResult(ctx, s.metrics, "signing", "signature_list", start, err)
	return sigs, err
}

func (s *signingUseCaseWithMetrics) Verify(
	ctx context.Context,
	tenantID, signatureID uuid.UUID,
) (*signingDomain.Signature, error) {
	start := time.Now()
	sig, err := s.next.Verify(ctx, tenantID, signatureID)
	metrics.RecordResult(ctx, s.metrics, "signing", "signature_verify", start, err)
	return sig, err
}

func (s *signingUseCaseWithMetrics) VerifyTenant(ctx context.Context, tenantID uuid.UUID) (*VerifyReport, error) {
	start := time.Now()
	report, err := s.next.VerifyTenant(ctx, tenantID)
	metrics.RecordResult(ctx, s.metrics, "signing", "signature_verify_tenant", start, err)
	return report, err
}

func (s *signingUseCaseWithMetrics) RegisterHasher(kind signingDomain.SubjectKind, hasher SubjectHasher) {
	s.next.RegisterHasher(kind, hasher)
}
