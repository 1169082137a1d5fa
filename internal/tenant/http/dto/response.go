package dto

import (
	"time"

	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
)

// TenantResponse is the operator view of a tenant.
type TenantResponse struct {
	ID                          string                `json:"id"`
	Slug                        string                `json:"slug"`
	DisplayName                 string                `json:"display_name"`
	ConsentText                 string                `json:"consent_text"`
	Branding                    tenantDomain.Branding `json:"branding"`
	AllowForeignIdentity        bool                  `json:"allow_foreign_identity"`
	Retention                   RetentionRequest      `json:"retention"`
	Signing                     SigningRequest        `json:"signing"`
	RememberDeviceWindowSeconds int64                 `json:"remember_device_window_seconds"`
	FlowByteRateThreshold       int64                 `json:"flow_byte_rate_threshold"`
	CreatedAt                   time.Time             `json:"created_at"`
	UpdatedAt                   time.Time             `json:"updated_at"`
}

// MapTenantToResponse converts a tenant into its HTTP representation.
func MapTenantToResponse(t *tenantDomain.Tenant) TenantResponse {
	return TenantResponse{
		ID:                   t.ID.String(),
		Slug:                 t.Slug,
		DisplayName:          t.DisplayName,
		ConsentText:          t.ConsentText,
		Branding:             t.Branding,
		AllowForeignIdentity: t.AllowForeignIdentity,
		Retention: RetentionRequest{
			Years:  t.Retention.Years,
			Months: t.Retention.Months,
			Days:   t.Retention.Days,
		},
		Signing: SigningRequest{
			BatchSize:       t.Signing.BatchSize,
			IntervalSeconds: int(t.Signing.Interval / time.Second),
			TSAURL:          t.Signing.TSAURL,
		},
		RememberDeviceWindowSeconds: int64(t.RememberDeviceWindow / time.Second),
		FlowByteRateThreshold:       t.FlowByteRateThreshold,
		CreatedAt:                   t.CreatedAt,
		UpdatedAt:                   t.UpdatedAt,
	}
}
