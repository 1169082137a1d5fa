// Package domain defines timestamp signatures: the proof binding a record or
// dossier hash to a trusted time, and the state machine the signer drives.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a signature.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSigned   Status = "signed"
	StatusFailed   Status = "failed"
	StatusVerified Status = "verified"
)

// SubjectKind names what a signature covers.
type SubjectKind string

const (
	SubjectSession SubjectKind = "session"
	SubjectSyslog  SubjectKind = "syslog"
	SubjectFlow    SubjectKind = "flow"
	SubjectDossier SubjectKind = "dossier"
)

// Valid reports whether k is a known subject kind.
func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectSession, SubjectSyslog, SubjectFlow, SubjectDossier:
		return true
	}
	return false
}

// IsRecord reports whether k refers to a record of the record store.
func (k SubjectKind) IsRecord() bool {
	return k.Valid() && k != SubjectDossier
}

// HashAlgorithm is the only digest the signer requests.
const HashAlgorithm = "SHA256"

// transitions lists the allowed moves. Verified may fall to failed when a
// later verification detects tampering.
var transitions = map[Status][]Status{
	StatusPending:  {StatusSigned, StatusFailed},
	StatusSigned:   {StatusVerified, StatusFailed},
	StatusVerified: {StatusFailed},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Signature is a timestamp proof over the canonical hash of one subject.
type Signature struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	SubjectKind   SubjectKind
	SubjectID     uuid.UUID
	Status        Status
	HashAlgorithm string
	// TokenHash is the hash bound in the token, set when signed.
	TokenHash     string
	Token         []byte
	Serial        string
	TSA           string
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	SignedAt      *time.Time
	VerifiedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPending builds a pending signature due immediately.
func NewPending(tenantID uuid.UUID, kind SubjectKind, subjectID uuid.UUID, now time.Time) *Signature {
	return &Signature{
		ID:            uuid.Must(uuid.NewV7()),
		TenantID:      tenantID,
		SubjectKind:   kind,
		SubjectID:     subjectID,
		Status:        StatusPending,
		HashAlgorithm: HashAlgorithm,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Transition moves the signature to status or returns ErrInvalidTransition.
func (s *Signature) Transition(to Status, at time.Time) error {
	if !CanTransition(s.Status, to) {
		return ErrInvalidTransition
	}
	s.Status = to
	s.UpdatedAt = at
	switch to {
	case StatusSigned:
		s.SignedAt = &at
	case StatusVerified:
		s.VerifiedAt = &at
	}
	return nil
}

// Clone returns a deep copy.
func (s *Signature) Clone() *Signature {
	c := *s
	if s.Token != nil {
		c.Token = append([]byte(nil), s.Token...)
	}
	if s.SignedAt != nil {
		t := *s.SignedAt
		c.SignedAt = &t
	}
	if s.VerifiedAt != nil {
		t := *s.VerifiedAt
		c.VerifiedAt = &t
	}
	return &c
}

// Backoff returns the delay after the given number of failed attempts: base
// doubled per previous failure, capped at ceiling.
func Backoff(attempts int, base, ceiling time.Duration) time.Duration {
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	return min(d, ceiling)
}
