package usecase

import (
	"context"
	"net/netip"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/trustlog/internal/auth/domain"
	"github.com/allisson/trustlog/internal/metrics"
)

type operatorUseCaseWithMetrics struct {
	next    OperatorUseCase
	metrics metrics.BusinessMetrics
}

// NewOperatorUseCaseWithMetrics wraps an OperatorUseCase with metrics recording.
func NewOperatorUseCaseWithMetrics(useCase OperatorUseCase, m metrics.BusinessMetrics) OperatorUseCase {
	return &operatorUseCaseWithMetrics{next: useCase, metrics: m}
}

func (o *operatorUseCaseWithMetrics) Create(
	ctx context.Context,
	input *authDomain.CreateOperatorInput,
) (*authDomain.CreateOperatorOutput, error) {
	start := time.Now()
	out, err := o.next.Create(ctx, input)
	metrics.RecordResult(ctx, o.metrics, "auth", "operator_create", start, err)
	return out, err
}

func (o *operatorUseCaseWithMetrics) Update(
	ctx context.Context,
	operatorID uuid.UUID,
	input *authDomain.UpdateOperatorInput,
) error {
	start := time.Now()
	err := o.next.Update(ctx, operatorID, input)
	metrics.RecordResult(ctx, o.metrics, "auth", "operator_update", start, err)
	return err
}

func (o *operatorUseCaseWithMetrics) Get(ctx context.Context, operatorID uuid.UUID) (*authDomain.Operator, error) {
	start := time.Now()
	op, err := o.next.Get(ctx, operatorID)
	metrics.RecordResult(ctx, o.metrics, "auth", "operator_get", start, err)
	return op, err
}

func (o *operatorUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*authDomain.Operator, error) {
	start := time.Now()
	ops, err := o.next.List(ctx, offset, limit)
	metrics.RecordResult(ctx, o.metrics, "auth", "operator_list", start, err)
	return ops, err
}

func (o *operatorUseCaseWithMetrics) Unlock(ctx context.Context, operatorID uuid.UUID) error {
	start := time.Now()
	err := o.next.Unlock(ctx, operatorID)
	metrics.RecordResult(ctx, o.metrics, "auth", "operator_unlock", start, err)
	return err
}

type tokenUseCaseWithMetrics struct {
	next    TokenUseCase
	metrics metrics.BusinessMetrics
}

// NewTokenUseCaseWithMetrics wraps a TokenUseCase with metrics recording.
func NewTokenUseCaseWithMetrics(useCase TokenUseCase, m metrics.BusinessMetrics) TokenUseCase {
	return &tokenUseCaseWithMetrics{next: useCase, metrics: m}
}

func (t *tokenUseCaseWithMetrics) Issue(
	ctx context.Context,
	input *authDomain.IssueTokenInput,
) (*authDomain.IssueTokenOutput, error) {
	start := time.Now()
	out, err := t.next.Issue(ctx, input)
	metrics.RecordResult(ctx, t.metrics, "auth", "token_issue", start, err)
	return out, err
}

func (t *tokenUseCaseWithMetrics) Authenticate(
	ctx context.Context,
	tokenHash string,
	sourceIP netip.Addr,
) (*authDomain.Operator, error) {
	start := time.Now()
	op, err := t.next.Authenticate(ctx, tokenHash, sourceIP)
	metrics.RecordResult(ctx, t.metrics, "auth", "token_authenticate", start, err)
	return op, err
}

func (t *tokenUseCaseWithMetrics) Revoke(ctx context.Context, tokenHash string) error {
	start := time.Now()
	err := t.next.Revoke(ctx, tokenHash)
	metrics.RecordResult(ctx, t.metrics, "auth", "token_revoke", start, err)
	return err
}

func (t *tokenUseCaseWithMetrics) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	start := time.Now()
	n, err := t.next.PurgeExpired(ctx, before)
	metrics.RecordResult(ctx, t.metrics, "auth", "token_purge_expired", start, err)
	return n, err
}
