// Package domain defines the tenant model: the customer organization whose
// records are segregated, together with its consent, signing and retention
// policy documents.
package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	day = 24 * time.Hour
	// month is a fixed 30-day month. Retention arithmetic never uses calendar months.
	month = 30 * day
	year  = 365 * day
)

// Branding holds presentation hints returned by the landing operation.
type Branding struct {
	LogoURL    string `json:"logo_url"`
	ThemeColor string `json:"theme_color"`
}

// RetentionPeriod is the statutory retention expressed as years, months and days.
type RetentionPeriod struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

// Duration converts the period with 365-day years and 30-day months.
func (r RetentionPeriod) Duration() time.Duration {
	return time.Duration(r.Years)*year + time.Duration(r.Months)*month + time.Duration(r.Days)*day
}

// RetentionFromDuration splits d into whole years and remaining days.
func RetentionFromDuration(d time.Duration) RetentionPeriod {
	years := int(d / year)
	days := int((d - time.Duration(years)*year) / day)
	return RetentionPeriod{Years: years, Days: days}
}

// SigningPolicy configures the batched signer for the tenant. Zero values fall
// back to the process defaults.
type SigningPolicy struct {
	BatchSize int           `json:"batch_size"`
	Interval  time.Duration `json:"interval"`
	TSAURL    string        `json:"tsa_url"`
}

// Tenant is a customer organization. Created once, seldom mutated, never
// destroyed while it owns records.
type Tenant struct {
	ID                    uuid.UUID
	Slug                  string
	DisplayName           string
	ConsentText           string
	Branding              Branding
	AllowForeignIdentity  bool
	Retention             RetentionPeriod
	Signing               SigningPolicy
	RememberDeviceWindow  time.Duration
	FlowByteRateThreshold int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// RetentionDuration is the minimum age a record must reach before deletion.
func (t *Tenant) RetentionDuration() time.Duration {
	return t.Retention.Duration()
}

// CreateTenantInput holds the fields accepted when creating a tenant.
type CreateTenantInput struct {
	Slug                  string
	DisplayName           string
	ConsentText           string
	Branding              Branding
	AllowForeignIdentity  bool
	Retention             *RetentionPeriod
	Signing               SigningPolicy
	RememberDeviceWindow  time.Duration
	FlowByteRateThreshold int64
}

// UpdateTenantPolicyInput replaces the policy documents of a tenant. Nil
// fields are left unchanged.
type UpdateTenantPolicyInput struct {
	DisplayName           *string
	ConsentText           *string
	Branding              *Branding
	AllowForeignIdentity  *bool
	Retention             *RetentionPeriod
	Signing               *SigningPolicy
	RememberDeviceWindow  *time.Duration
	FlowByteRateThreshold *int64
}
