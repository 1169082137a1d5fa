package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
	cryptoService "github.com/allisson/trustlog/internal/crypto/service"
	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
)

// AuditSigner signs and verifies dossier audit entries.
type AuditSigner interface {
	// Sign returns the 32-byte HMAC-SHA256 of the entry.
	Sign(entry *dossierDomain.AuditEntry) []byte

	// Verify returns ErrAuditSignatureInvalid when the entry does not match
	// its signature.
	Verify(entry *dossierDomain.AuditEntry) error
}

type auditSigner struct {
	key []byte
}

// NewAuditSigner derives the audit signing key from the content key with
// HKDF-SHA256 so the signing key is independent from the encryption key.
func NewAuditSigner(contentKey *cryptoDomain.ContentKey) AuditSigner {
	return &auditSigner{key: cryptoService.DeriveKey(contentKey.Bytes(), cryptoDomain.InfoAuditSigning)}
}

// canonicalize converts the entry to the byte sequence that is signed.
// Format: id || dossier_id || tenant_id || operator_id || from || to || note || at
// Variable-length fields are length-prefixed so distinct entries never
// produce the same bytes.
func canonicalize(entry *dossierDomain.AuditEntry) []byte {
	buf := make([]byte, 0, 128+len(entry.Note))

	buf = append(buf, entry.ID[:]...)
	buf = append(buf, entry.DossierID[:]...)
	buf = append(buf, entry.TenantID[:]...)
	buf = append(buf, entry.OperatorID[:]...)

	buf = appendLengthPrefixed(buf, []byte(entry.FromStatus))
	buf = appendLengthPrefixed(buf, []byte(entry.ToStatus))
	buf = appendLengthPrefixed(buf, []byte(entry.Note))

	buf = binary.BigEndian.AppendUint64(buf, uint64(entry.At.UnixMicro()))

	return buf
}

// appendLengthPrefixed adds a 4-byte big-endian length followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

func (a *auditSigner) Sign(entry *dossierDomain.AuditEntry) []byte {
	mac := hmac.New(sha256.New, a.key)
	mac.Write(canonicalize(entry))
	return mac.Sum(nil)
}

func (a *auditSigner) Verify(entry *dossierDomain.AuditEntry) error {
	if !hmac.Equal(entry.Signature, a.Sign(entry)) {
		return dossierDomain.ErrAuditSignatureInvalid
	}
	return nil
}
