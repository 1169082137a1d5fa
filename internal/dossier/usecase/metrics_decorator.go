package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
	"github.com/allisson/trustlog/internal/metrics"
)

type dossierUseCaseWithMetrics struct {
	next    DossierUseCase
	metrics metrics.BusinessMetrics
}

// NewDossierUseCaseWithMetrics wraps a DossierUseCase with metrics recording.
func NewDossierUseCaseWithMetrics(useCase DossierUseCase, m metrics.BusinessMetrics) DossierUseCase {
	return &dossierUseCaseWithMetrics{next: useCase, metrics: m}
}

func (d *dossierUseCaseWithMetrics) Create(
	ctx context.Context,
	input *dossierDomain.CreateInput,
) (*dossierDomain.Dossier, error) {
	start := time.Now()
	result, err := d.next.Create(ctx, input)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_create", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) Submit(
	ctx context.Context,
	input *TransitionInput,
) (*dossierDomain.Dossier, error) {
	start := time.Now()
	result, err := d.next.Submit(ctx, input)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_submit", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) Approve(
	ctx context.Context,
	input *TransitionInput,
) (*dossierDomain.Dossier, error) {
	start := time.Now()
	result, err := d.next.Approve(ctx, input)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_approve", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) Reject(
	ctx context.Context,
	input *TransitionInput,
) (*dossierDomain.Dossier, error) {
	start := time.Now()
	result, err := d.next.Reject(ctx, input)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_reject", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) Generate(
	ctx context.Context,
	input *TransitionInput,
) (*dossierDomain.Dossier, error) {
	start := time.Now()
	result, err := d.next.Generate(ctx, input)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_generate", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) Deliver(
	ctx context.Context,
	input *TransitionInput,
) (*dossierDomain.Dossier, error) {
	start := time.Now()
	result, err := d.next.Deliver(ctx, input)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_deliver", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) Get(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
) (*dossierDomain.Dossier, error) {
	start := time.Now()
	result, err := d.next.Get(ctx, tenantID, dossierID)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_get", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) List(
	ctx context.Context,
	tenantID uuid.UUID,
	status dossierDomain.Status,
	offset, limit int,
) ([]*dossierDomain.Dossier, error) {
	start := time.Now()
	result, err := d.next.List(ctx, tenantID, status, offset, limit)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_list", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) ListAudit(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
) ([]*dossierDomain.AuditEntry, error) {
	start := time.Now()
	result, err := d.next.ListAudit(ctx, tenantID, dossierID)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_audit_list", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) VerifyAudit(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
) (*AuditReport, error) {
	start := time.Now()
	result, err := d.next.VerifyAudit(ctx, tenantID, dossierID)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_audit_verify", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) ListAccesses(
	ctx context.Context,
	tenantID, dossierID uuid.UUID, offset, limit int,
) ([]*dossierDomain.Access, error) {
	start := time.Now()
	result, err := d.next.ListAccesses(ctx, tenantID, dossierID, offset, limit)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_access_list", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) RecordAccess(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
	input *dossierDomain.AccessInput,
) (*dossierDomain.Access, error) {
	start := time.Now()
	result, err := d.next.RecordAccess(ctx, tenantID, dossierID, input)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_access_record", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) ContentHash(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
) (string, error) {
	start := time.Now()
	result, err := d.next.ContentHash(ctx, tenantID, dossierID)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_content_hash", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) SweepIntegrity(ctx context.Context) (*SweepReport, error) {
	start := time.Now()
	result, err := d.next.SweepIntegrity(ctx)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_integrity_sweep", start, err)
	return result, err
}

func (d *dossierUseCaseWithMetrics) Open(
	ctx context.Context,
	tenantID, dossierID uuid.UUID,
	input *dossierDomain.AccessInput,
) (*dossierDomain.Dossier, io.ReadCloser, error) {
	start := time.Now()
	dossier, rc, err := d.next.Open(ctx, tenantID, dossierID, input)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_open", start, err)
	return dossier, rc, err
}

func (d *dossierUseCaseWithMetrics) VerifyIntegrity(ctx context.Context, tenantID, dossierID uuid.UUID) error {
	start := time.Now()
	err := d.next.VerifyIntegrity(ctx, tenantID, dossierID)
	metrics.RecordResult(ctx, d.metrics, "dossier", "dossier_verify", start, err)
	return err
}
