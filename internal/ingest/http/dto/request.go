// Package dto provides request and response bodies for the captive portal.
package dto

import (
	"encoding/json"
	"strings"

	validation "github.com/jellydator/validation"

	ingestDomain "github.com/allisson/trustlog/internal/ingest/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	customValidation "github.com/allisson/trustlog/internal/validation"
)

// Checkbox accepts JSON booleans as well as the strings browsers send for
// checked boxes.
type Checkbox bool

// UnmarshalJSON accepts true, false or a checkbox string.
func (c *Checkbox) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*c = Checkbox(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return c.UnmarshalParam(s)
}

// UnmarshalParam implements gin's form binding hook.
func (c *Checkbox) UnmarshalParam(param string) error {
	switch strings.ToLower(strings.TrimSpace(param)) {
	case "1", "true", "on", "yes":
		*c = true
	default:
		*c = false
	}
	return nil
}

// SubmitRequest is the admission form. It binds from JSON or from an
// url-encoded form.
type SubmitRequest struct {
	IdentityKind    string   `json:"kind"             form:"kind"`
	IdentityValue   string   `json:"id"               form:"id"`
	DisplayName     string   `json:"name"             form:"name"`
	Phone           string   `json:"phone"            form:"phone"`
	PassportCountry string   `json:"passport_country" form:"passport_country"`
	Consent         Checkbox `json:"consent"          form:"consent"`
	MACSurrogate    string   `json:"mac_surrogate"    form:"mac_surrogate"`
	NATIP           string   `json:"nat_ip"           form:"nat_ip"`
	NATPort         *int64   `json:"nat_port"         form:"nat_port"`
	Location        string   `json:"location"         form:"location"`
	DeviceName      string   `json:"device_name"      form:"device_name"`
	IdempotencyKey  string   `json:"idempotency_key"  form:"idempotency_key"`
}

// Validate checks field shapes. Identity rules are enforced by the use case.
func (r *SubmitRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IdentityKind, validation.In(
			string(recordDomain.IdentityNationalID),
			string(recordDomain.IdentityPassport),
		)),
		validation.Field(&r.IdentityValue, validation.Length(0, 64)),
		validation.Field(&r.DisplayName, validation.Length(0, 255)),
		validation.Field(&r.Phone, validation.Length(0, 32)),
		validation.Field(&r.PassportCountry, validation.Length(0, 64)),
		validation.Field(&r.MACSurrogate, validation.Length(0, 255)),
		validation.Field(&r.NATIP, customValidation.IPAddress),
		validation.Field(&r.NATPort, validation.Min(int64(0)), validation.Max(int64(65535))),
		validation.Field(&r.Location, validation.Length(0, 255)),
		validation.Field(&r.DeviceName, validation.Length(0, 255)),
		validation.Field(&r.IdempotencyKey, validation.Length(0, 128), customValidation.NoWhitespace),
	)
}

// ToForm converts the request into an admission form.
func (r *SubmitRequest) ToForm(clientIP, macSurrogate string) *ingestDomain.Form {
	return &ingestDomain.Form{
		IdentityKind:    recordDomain.IdentityKind(r.IdentityKind),
		IdentityValue:   r.IdentityValue,
		DisplayName:     r.DisplayName,
		Phone:           r.Phone,
		PassportCountry: r.PassportCountry,
		Consent:         bool(r.Consent),
		ClientIP:        clientIP,
		MACSurrogate:    macSurrogate,
		NATIP:           r.NATIP,
		NATPort:         r.NATPort,
		Location:        r.Location,
		DeviceName:      r.DeviceName,
		IdempotencyKey:  r.IdempotencyKey,
	}
}
