package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	apperrors "github.com/allisson/trustlog/internal/errors"
	flowDomain "github.com/allisson/trustlog/internal/flow/domain"
	"github.com/allisson/trustlog/internal/metrics"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

type flowUseCase struct {
	records          RecordAppender
	tenants          TenantLookup
	scorer           flowDomain.Scorer
	defaultThreshold int64
	pipeline         metrics.PipelineMetrics
	logger           *slog.Logger
}

func (u *flowUseCase) Ingest(ctx context.Context, tenantID uuid.UUID, flows []*FlowInput) (*BatchResult, error) {
	batch := make([]*recordDomain.FlowRecord, len(flows))
	for i, in := range flows {
		if in != nil {
			batch[i] = in.Flow
		}
	}
	if err := flowDomain.ValidateBatch(batch); err != nil {
		return nil, err
	}

	tenant, err := u.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	threshold := tenant.FlowByteRateThreshold
	if threshold <= 0 {
		threshold = u.defaultThreshold
	}

	result := &BatchResult{Records: make([]*recordDomain.Record, 0, len(flows))}
	for i, in := range flows {
		flow := *in.Flow
		flow.Derive()

		assessment := u.scorer.Score(&flow, threshold)
		flow.ThreatLevel = assessment.Level

		record, err := u.records.Append(ctx, &recordDomain.AppendInput{
			TenantID:       tenantID,
			Suspicious:     assessment.Suspicious,
			IdempotencyKey: in.IdempotencyKey,
			Flow:           &flow,
		})
		if err != nil {
			u.pipeline.RecordEvent(ctx, "flow", "failed", 1)
			return result, apperrors.Wrapf(err, "flows[%d]", i)
		}

		result.Records = append(result.Records, record)
		if assessment.Suspicious {
			result.Suspicious++
			u.logger.Debug("suspicious flow",
				slog.String("tenant_id", tenantID.String()),
				slog.String("record_id", record.ID.String()),
				slog.String("threat_level", string(assessment.Level)),
				slog.Any("findings", assessment.Findings),
			)
		}
	}

	u.pipeline.RecordEvent(ctx, "flow", "stored", int64(len(result.Records)))
	if result.Suspicious > 0 {
		u.pipeline.RecordEvent(ctx, "flow", "suspicious", int64(result.Suspicious))
	}
	return result, nil
}

// NewFlowUseCase creates a FlowUseCase. defaultThreshold applies to tenants
// without their own byte-rate threshold.
func NewFlowUseCase(
	records RecordAppender,
	tenants TenantLookup,
	scorer flowDomain.Scorer,
	defaultThreshold int64,
	pipeline metrics.PipelineMetrics,
	logger *slog.Logger,
) FlowUseCase {
	if pipeline == nil {
		pipeline = metrics.NewNoOpPipelineMetrics()
	}
	return &flowUseCase{
		records:          records,
		tenants:          tenants,
		scorer:           scorer,
		defaultThreshold: defaultThreshold,
		pipeline:         pipeline,
		logger:           logger.With("component", "flow"),
	}
}
