package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/database"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

// Defaults applied to tenants created without explicit values.
type Defaults struct {
	Retention             time.Duration
	RememberDeviceWindow  time.Duration
	FlowByteRateThreshold int64
	SignerBatchSize       int
	SignerInterval        time.Duration
}

type tenantUseCase struct {
	txManager  database.TxManager
	tenantRepo TenantRepository
	defaults   Defaults
}

func (t *tenantUseCase) Create(
	ctx context.Context,
	input *tenantDomain.CreateTenantInput,
) (*tenantDomain.Tenant, error) {
	retention := tenantDomain.RetentionFromDuration(t.defaults.Retention)
	if input.Retention != nil {
		retention = *input.Retention
	}
	if retention.Duration() < t.defaults.Retention {
		return nil, tenantDomain.ErrRetentionBelowMinimum
	}

	now := time.Now().UTC()
	tenant := &tenantDomain.Tenant{
		ID:                    uuid.Must(uuid.NewV7()),
		Slug:                  strings.ToLower(strings.TrimSpace(input.Slug)),
		DisplayName:           input.DisplayName,
		ConsentText:           input.ConsentText,
		Branding:              input.Branding,
		AllowForeignIdentity:  input.AllowForeignIdentity,
		Retention:             retention,
		Signing:               input.Signing,
		RememberDeviceWindow:  input.RememberDeviceWindow,
		FlowByteRateThreshold: input.FlowByteRateThreshold,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	t.applyDefaults(tenant)

	err := t.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := t.tenantRepo.GetBySlug(ctx, tenant.Slug); err == nil {
			return tenantDomain.ErrSlugTaken
		}
		return t.tenantRepo.Create(ctx, tenant)
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (t *tenantUseCase) Get(ctx context.Context, tenantID uuid.UUID) (*tenantDomain.Tenant, error) {
	return t.tenantRepo.Get(ctx, tenantID)
}

func (t *tenantUseCase) GetBySlug(ctx context.Context, slug string) (*tenantDomain.Tenant, error) {
	return t.tenantRepo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

func (t *tenantUseCase) List(ctx context.Context, offset, limit int) ([]*tenantDomain.Tenant, error) {
	return t.tenantRepo.List(ctx, offset, limit)
}

func (t *tenantUseCase) UpdatePolicy(
	ctx context.Context,
	tenantID uuid.UUID,
	input *tenantDomain.UpdateTenantPolicyInput,
) (*tenantDomain.Tenant, error) {
	var tenant *tenantDomain.Tenant
	err := t.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		tenant, err = t.tenantRepo.Get(ctx, tenantID)
		if err != nil {
			return err
		}

		if input.Retention != nil {
			if input.Retention.Duration() < t.defaults.Retention {
				return tenantDomain.ErrRetentionBelowMinimum
			}
			tenant.Retention = *input.Retention
		}
		if input.DisplayName != nil {
			tenant.DisplayName = *input.DisplayName
		}
		if input.ConsentText != nil {
			tenant.ConsentText = *input.ConsentText
		}
		if input.Branding != nil {
			tenant.Branding = *input.Branding
		}
		if input.AllowForeignIdentity != nil {
			tenant.AllowForeignIdentity = *input.AllowForeignIdentity
		}
		if input.Signing != nil {
			tenant.Signing = *input.Signing
		}
		if input.RememberDeviceWindow != nil {
			tenant.RememberDeviceWindow = *input.RememberDeviceWindow
		}
		if input.FlowByteRateThreshold != nil {
			tenant.FlowByteRateThreshold = *input.FlowByteRateThreshold
		}
		t.applyDefaults(tenant)
		tenant.UpdatedAt = time.Now().UTC()

		return t.tenantRepo.Update(ctx, tenant)
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (t *tenantUseCase) applyDefaults(tenant *tenantDomain.Tenant) {
	if tenant.RememberDeviceWindow <= 0 {
		tenant.RememberDeviceWindow = t.defaults.RememberDeviceWindow
	}
	if tenant.FlowByteRateThreshold <= 0 {
		tenant.FlowByteRateThreshold = t.defaults.FlowByteRateThreshold
	}
	if tenant.Signing.BatchSize <= 0 {
		tenant.Signing.BatchSize = t.defaults.SignerBatchSize
	}
	if tenant.Signing.Interval <= 0 {
		tenant.Signing.Interval = t.defaults.SignerInterval
	}
}

// NewTenantUseCase creates a new TenantUseCase.
func NewTenantUseCase(
	txManager database.TxManager,
	tenantRepo TenantRepository,
	defaults Defaults,
) TenantUseCase {
	return &tenantUseCase{
		txManager:  txManager,
		tenantRepo: tenantRepo,
		defaults:   defaults,
	}
}
