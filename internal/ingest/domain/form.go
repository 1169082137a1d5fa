// Package domain defines the captive portal model: the admission form, the
// landing page representation and the receipt returned after a session is
// recorded.
package domain

import (
	"time"

	"github.com/google/uuid"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// Form is a captive portal submission. A form without an identity value is a
// bare submit that relies on the remember-device window.
type Form struct {
	IdentityKind    recordDomain.IdentityKind
	IdentityValue   string
	DisplayName     string
	Phone           string
	PassportCountry string
	Consent         bool
	ClientIP        string
	MACSurrogate    string
	NATIP           string
	NATPort         *int64
	Location        string
	DeviceName      string
	IdempotencyKey  string
}

// IsBare reports whether the form carries no identity.
func (f *Form) IsBare() bool {
	return f.IdentityValue == "" && f.IdentityKind == ""
}

// Landing is what the portal shows before admission.
type Landing struct {
	TenantID             uuid.UUID
	Slug                 string
	DisplayName          string
	ConsentText          string
	ThemeColor           string
	LogoURL              string
	AllowForeignIdentity bool
	RememberDeviceWindow time.Duration
}

// Receipt confirms an admitted session.
type Receipt struct {
	RecordID          uuid.UUID
	EntryTime         time.Time
	Remembered        bool
	LastOriginalLogin time.Time
	Remaining         time.Duration
	Suspicious        bool
}
