// Package domain defines the append-only record log: the envelope shared by
// every record kind and the typed payloads minted by ingestion, the syslog
// collector and the flow recorder.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
)

// Kind discriminates the record payload.
type Kind string

const (
	KindSession Kind = "session"
	KindSyslog  Kind = "syslog"
	KindFlow    Kind = "flow"
)

// Tick is the minimum spacing between two entry times of the same tenant.
const Tick = time.Microsecond

// Valid reports whether k names a stored record kind.
func (k Kind) Valid() bool {
	return k == KindSession || k == KindSyslog || k == KindFlow
}

// Record is the immutable envelope persisted by the store. Exactly one of
// Session, Syslog and Flow is set, matching Kind.
//
// IdentityDigest, MACDigest and SourceIPDigest are keyed digests used as
// secondary indexes; they never hold plaintext.
type Record struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Kind           Kind
	EntryTime      time.Time
	ContentHash    string
	Suspicious     bool
	IdempotencyKey string
	IdentityDigest string
	MACDigest      string
	SourceIPDigest string
	ArchivedAt     *time.Time

	Session *SessionRecord
	Syslog  *SyslogMessage
	Flow    *FlowRecord
}

// Canonical returns the deterministic encoding hashed into the record's
// signature. Envelope fields come first, then the payload in schema order.
func (r *Record) Canonical() *cryptoDomain.Canonical {
	c := cryptoDomain.NewCanonical().
		String("id", r.ID.String()).
		String("tenant_id", r.TenantID.String()).
		String("kind", string(r.Kind)).
		Time("entry_time", r.EntryTime).
		Bool("suspicious", r.Suspicious)

	switch r.Kind {
	case KindSession:
		if r.Session != nil {
			r.Session.appendCanonical(c)
		}
	case KindSyslog:
		if r.Syslog != nil {
			r.Syslog.appendCanonical(c)
		}
	case KindFlow:
		if r.Flow != nil {
			r.Flow.appendCanonical(c)
		}
	}
	return c
}

// ComputeHash returns the hex SHA-256 of the canonical encoding.
func (r *Record) ComputeHash() string {
	return r.Canonical().Sum()
}

// MarshalPayload serializes the typed payload for storage.
func (r *Record) MarshalPayload() ([]byte, error) {
	switch r.Kind {
	case KindSession:
		return json.Marshal(r.Session)
	case KindSyslog:
		return json.Marshal(r.Syslog)
	case KindFlow:
		return json.Marshal(r.Flow)
	}
	return nil, ErrUnknownKind
}

// UnmarshalPayload restores the typed payload for r.Kind.
func (r *Record) UnmarshalPayload(data []byte) error {
	switch r.Kind {
	case KindSession:
		r.Session = &SessionRecord{}
		return json.Unmarshal(data, r.Session)
	case KindSyslog:
		r.Syslog = &SyslogMessage{}
		return json.Unmarshal(data, r.Syslog)
	case KindFlow:
		r.Flow = &FlowRecord{}
		return json.Unmarshal(data, r.Flow)
	}
	return ErrUnknownKind
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	out := *r
	if r.ArchivedAt != nil {
		at := *r.ArchivedAt
		out.ArchivedAt = &at
	}
	if r.Session != nil {
		s := r.Session.clone()
		out.Session = &s
	}
	if r.Syslog != nil {
		s := r.Syslog.clone()
		out.Syslog = &s
	}
	if r.Flow != nil {
		f := r.Flow.clone()
		out.Flow = &f
	}
	return &out
}

// Cursor marks a position in entry-time order. Ranges resume strictly after it.
type Cursor struct {
	EntryTime time.Time `json:"entry_time"`
	ID        uuid.UUID `json:"id"`
}

// After reports whether r sorts strictly after the cursor.
func (c Cursor) After(r *Record) bool {
	if r.EntryTime.Equal(c.EntryTime) {
		return r.ID.String() > c.ID.String()
	}
	return r.EntryTime.After(c.EntryTime)
}

// RangeQuery selects records of one tenant. Zero values mean "any".
// From is inclusive and To exclusive.
type RangeQuery struct {
	TenantID       uuid.UUID
	Kinds          []Kind
	From           time.Time
	To             time.Time
	IdentityDigest string
	SourceIPDigest string
	Suspicious     *bool
	Archived       *bool
	After          *Cursor
	Limit          int
}

// Page is one slice of a range. Next is nil when the range is exhausted.
type Page struct {
	Records []*Record
	Next    *Cursor
}

// AppendInput carries a new record before the store assigns identity and time.
type AppendInput struct {
	TenantID       uuid.UUID
	Suspicious     bool
	IdempotencyKey string
	Session        *SessionRecord
	Syslog         *SyslogMessage
	Flow           *FlowRecord
}

// Kind derives the record kind from the payload that is set.
func (in *AppendInput) Kind() Kind {
	switch {
	case in.Session != nil:
		return KindSession
	case in.Syslog != nil:
		return KindSyslog
	case in.Flow != nil:
		return KindFlow
	}
	return ""
}

// DeviceRevocation closes the remember-device window of one device.
type DeviceRevocation struct {
	TenantID  uuid.UUID
	MACDigest string
	RevokedAt time.Time
}
