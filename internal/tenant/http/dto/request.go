// Package dto provides data transfer objects for tenant HTTP handlers.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	tenantDomain "github.com/allisson/trustlog/internal/tenant/domain"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

// RetentionRequest mirrors tenantDomain.RetentionPeriod.
type RetentionRequest struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

// SigningRequest carries the tenant signing policy. Interval is in seconds.
type SigningRequest struct {
	BatchSize       int    `json:"batch_size"`
	IntervalSeconds int    `json:"interval_seconds"`
	TSAURL          string `json:"tsa_url"`
}

// UpdatePolicyRequest replaces selected tenant policy documents.
type UpdatePolicyRequest struct {
	DisplayName                 *string                `json:"display_name"`
	ConsentText                 *string                `json:"consent_text"`
	Branding                    *tenantDomain.Branding `json:"branding"`
	AllowForeignIdentity        *bool                  `json:"allow_foreign_identity"`
	Retention                   *RetentionRequest      `json:"retention"`
	Signing                     *SigningRequest        `json:"signing"`
	RememberDeviceWindowSeconds *int64                 `json:"remember_device_window_seconds"`
	FlowByteRateThreshold       *int64                 `json:"flow_byte_rate_threshold"`
}

// Validate checks field shapes. Statutory minimums are enforced by the use case.
func (r *UpdatePolicyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.DisplayName, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.ConsentText, validation.NilOrNotEmpty),
		validation.Field(&r.Retention, validation.By(func(value any) error {
			rt, _ := value.(*RetentionRequest)
			if rt == nil {
				return nil
			}
			return validation.ValidateStruct(rt,
				validation.Field(&rt.Years, validation.Min(0)),
				validation.Field(&rt.Months, validation.Min(0)),
				validation.Field(&rt.Days, validation.Min(0)),
			)
		})),
		validation.Field(&r.Signing, validation.By(func(value any) error {
			s, _ := value.(*SigningRequest)
			if s == nil {
				return nil
			}
			return validation.ValidateStruct(s,
				validation.Field(&s.BatchSize, validation.Min(0), validation.Max(10000)),
				validation.Field(&s.IntervalSeconds, validation.Min(0)),
				validation.Field(&s.TSAURL, customValidation.HTTPURL),
			)
		})),
		validation.Field(&r.RememberDeviceWindowSeconds, validation.Min(int64(0))),
		validation.Field(&r.FlowByteRateThreshold, validation.Min(int64(0))),
	)
}

// ToInput converts the request into a use case input.
func (r *UpdatePolicyRequest) ToInput() *tenantDomain.UpdateTenantPolicyInput {
	input := &tenantDomain.UpdateTenantPolicyInput{
		DisplayName:           r.DisplayName,
		ConsentText:           r.ConsentText,
		Branding:              r.Branding,
		AllowForeignIdentity:  r.AllowForeignIdentity,
		FlowByteRateThreshold: r.FlowByteRateThreshold,
	}
	if r.Retention != nil {
		input.Retention = &tenantDomain.RetentionPeriod{
			Years:  r.Retention.Years,
			Months: r.Retention.Months,
			Days:   r.Retention.Days,
		}
	}
	if r.Signing != nil {
		input.Signing = &tenantDomain.SigningPolicy{
			BatchSize: r.Signing.BatchSize,
			Interval:  time.Duration(r.Signing.IntervalSeconds) * time.Second,
			TSAURL:    r.Signing.TSAURL,
		}
	}
	if r.RememberDeviceWindowSeconds != nil {
		window := time.Duration(*r.RememberDeviceWindowSeconds) * time.Second
		input.RememberDeviceWindow = &window
	}
	return input
}
