package usecase

import (
	"log/slog"

	"github.com/google/uuid"

	cryptoService "github.com/allisson/trustlog/internal/crypto/service"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// ProtectOptions toggles encryption of the configurable fields. Display
// names and phones are always encrypted.
type ProtectOptions struct {
	IdentityValues bool
	IPAddresses    bool
	MACSurrogates  bool
}

// Protector seals and opens record fields and computes index digests.
type Protector struct {
	cipher   cryptoService.FieldCipher
	digester cryptoService.Digester
	opts     ProtectOptions
	logger   *slog.Logger
}

// NewProtector creates a Protector.
func NewProtector(
	cipher cryptoService.FieldCipher,
	digester cryptoService.Digester,
	opts ProtectOptions,
	logger *slog.Logger,
) *Protector {
	return &Protector{cipher: cipher, digester: digester, opts: opts, logger: logger}
}

// Digest returns the tenant-keyed digest of value, or "" for an empty value.
func (p *Protector) Digest(tenantID uuid.UUID, value string) string {
	if value == "" {
		return ""
	}
	return p.digester.Digest(tenantID.String(), value)
}

// Index fills the digest columns of a plaintext record.
func (p *Protector) Index(r *recordDomain.Record) {
	switch r.Kind {
	case recordDomain.KindSession:
		r.IdentityDigest = p.Digest(r.TenantID, r.Session.IdentityValue)
		r.MACDigest = p.Digest(r.TenantID, r.Session.MACSurrogate)
		r.SourceIPDigest = p.Digest(r.TenantID, r.Session.ClientIP)
	case recordDomain.KindSyslog:
		r.SourceIPDigest = p.Digest(r.TenantID, r.Syslog.SourceIP)
	case recordDomain.KindFlow:
		r.SourceIPDigest = p.Digest(r.TenantID, r.Flow.SrcIP)
	}
}

// Seal returns a copy of r with protected fields encrypted.
func (p *Protector) Seal(r *recordDomain.Record) (*recordDomain.Record, error) {
	out := r.Clone()
	if out.Session == nil {
		return out, nil
	}

	s := out.Session
	fields := []struct {
		value   *string
		enabled bool
	}{
		{&s.IdentityValue, p.opts.IdentityValues},
		{&s.DisplayName, true},
		{&s.Phone, true},
		{&s.ClientIP, p.opts.IPAddresses},
		{&s.NATIP, p.opts.IPAddresses},
		{&s.MACSurrogate, p.opts.MACSurrogates},
	}
	for _, f := range fields {
		if !f.enabled || *f.value == "" {
			continue
		}
		sealed, err := p.cipher.Encrypt(*f.value)
		if err != nil {
			return nil, err
		}
		*f.value = sealed
	}
	return out, nil
}

// Open returns a copy of r with protected fields decrypted. Values that do
// not open are kept verbatim so legacy plaintext stays readable.
func (p *Protector) Open(r *recordDomain.Record) *recordDomain.Record {
	out := r.Clone()
	if out.Session == nil {
		return out
	}

	s := out.Session
	for _, value := range []*string{&s.IdentityValue, &s.DisplayName, &s.Phone, &s.ClientIP, &s.NATIP, &s.MACSurrogate} {
		if *value == "" {
			continue
		}
		plain, err := p.cipher.Decrypt(*value)
		if err != nil {
			p.logger.Debug("field kept verbatim",
				slog.String("record_id", r.ID.String()),
				slog.Any("error", err))
		}
		*value = plain
	}
	return out
}
