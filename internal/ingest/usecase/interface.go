// Package usecase implements captive portal admission: consent and identity
// validation, the remember-device window and the session record append.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	ingestDomain "github.com/allisson/trustlog/internal/ingest/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

// TenantResolver resolves the tenant addressed by a portal URL.
type TenantResolver interface {
	GetBySlug(ctx context.Context, slug string) (*tenantDomain.Tenant, error)
}

// SessionStore is the part of the record store admission needs.
type SessionStore interface {
	Append(ctx context.Context, input *recordDomain.AppendInput) (*recordDomain.Record, error)
	RecentDeviceMatch(
		ctx context.Context,
		tenantID uuid.UUID,
		macSurrogate string,
		within time.Duration,
	) (*recordDomain.Record, error)
	RevokeDevice(ctx context.Context, tenantID uuid.UUID, macSurrogate string) error
}

// IngestUseCase is the captive portal.
type IngestUseCase interface {
	// Landing returns the consent text and policy of the tenant.
	Landing(ctx context.Context, slug string) (*ingestDomain.Landing, error)

	// Submit admits a session. A bare form is admitted only when the device
	// has a non-suspicious session inside the remember-device window.
	Submit(ctx context.Context, slug string, form *ingestDomain.Form) (*ingestDomain.Receipt, error)

	// Leave closes the remember-device window of the device.
	Leave(ctx context.Context, slug, macSurrogate string) error
}
