package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
)

// IdentityKind is the document type presented at admission.
type IdentityKind string

const (
	IdentityNationalID IdentityKind = "national-id"
	IdentityPassport   IdentityKind = "passport"
)

// SessionRecord binds an identified person to a network session.
//
// IdentityValue, DisplayName, Phone, ClientIP, MACSurrogate and NATIP are
// protected at rest; in the store they hold base64 ciphertext, everywhere else
// plaintext.
type SessionRecord struct {
	IdentityKind    IdentityKind `json:"identity_kind"`
	IdentityValue   string       `json:"identity_value"`
	PassportCountry string       `json:"passport_country,omitempty"`
	DisplayName     string       `json:"display_name"`
	Phone           string       `json:"phone,omitempty"`
	ClientIP        string       `json:"client_ip"`
	MACSurrogate    string       `json:"mac_surrogate"`
	NATIP           string       `json:"nat_ip,omitempty"`
	NATPort         *int64       `json:"nat_port,omitempty"`
	Location        string       `json:"location,omitempty"`
	DeviceName      string       `json:"device_name,omitempty"`
	// RememberedFrom is the original record when the session was admitted
	// through the remember-device window.
	RememberedFrom *uuid.UUID `json:"remembered_from,omitempty"`
	// OriginalEntryTime is the entry time of the form submission that started
	// the remember-device chain.
	OriginalEntryTime *time.Time `json:"original_entry_time,omitempty"`
}

func (s *SessionRecord) appendCanonical(c *cryptoDomain.Canonical) {
	rememberedFrom := ""
	if s.RememberedFrom != nil {
		rememberedFrom = s.RememberedFrom.String()
	}
	var original time.Time
	if s.OriginalEntryTime != nil {
		original = *s.OriginalEntryTime
	}

	c.String("identity_kind", string(s.IdentityKind)).
		String("identity_value", s.IdentityValue).
		String("passport_country", s.PassportCountry).
		String("display_name", s.DisplayName).
		String("phone", s.Phone).
		String("client_ip", s.ClientIP).
		String("mac_surrogate", s.MACSurrogate).
		String("nat_ip", s.NATIP).
		OptionalInt("nat_port", s.NATPort).
		String("location", s.Location).
		String("device_name", s.DeviceName).
		String("remembered_from", rememberedFrom).
		Time("original_entry_time", original)
}

func (s *SessionRecord) clone() SessionRecord {
	out := *s
	if s.NATPort != nil {
		p := *s.NATPort
		out.NATPort = &p
	}
	if s.RememberedFrom != nil {
		id := *s.RememberedFrom
		out.RememberedFrom = &id
	}
	if s.OriginalEntryTime != nil {
		t := *s.OriginalEntryTime
		out.OriginalEntryTime = &t
	}
	return out
}
