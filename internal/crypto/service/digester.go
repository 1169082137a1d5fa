package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"golang.org/x/text/unicode/norm"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
)

// hmacDigester derives one HMAC key per tenant and caches it.
type hmacDigester struct {
	secret []byte
	keys   sync.Map
}

// NewDigester creates a Digester whose tenant keys are derived from secret
// with HKDF info "index-digest-v1:"+tenantID.
func NewDigester(secret []byte) Digester {
	s := make([]byte, len(secret))
	copy(s, secret)
	return &hmacDigester{secret: s}
}

// Digest returns hex(HMAC-SHA256(K_tenant, NFC(value))). The empty value has
// the empty digest so absent fields never collide with real ones.
func (d *hmacDigester) Digest(tenantID, value string) string {
	if value == "" {
		return ""
	}

	key, ok := d.keys.Load(tenantID)
	if !ok {
		key, _ = d.keys.LoadOrStore(tenantID, DeriveKey(d.secret, cryptoDomain.InfoIndexDigest+tenantID))
	}

	mac := hmac.New(sha256.New, key.([]byte))
	mac.Write(norm.NFC.Bytes([]byte(value)))
	return hex.EncodeToString(mac.Sum(nil))
}
