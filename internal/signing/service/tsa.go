// Package service implements the timestamp authorities used by the signer: a
// local Ed25519 TSA and a client for a remote TSA speaking the same JSON shim.
//
// # Local token format
//
// A LocalTSA token is two unpadded base64url segments joined by a dot:
//
//	base64url(claims) "." base64url(signature)
//
// claims is the JSON object
//
//	{"version":1,"serial":"<uuid>","hash":"<64 lowercase hex>","algorithm":"SHA256",
//	 "nonce":"<optional>","issued_at":"<RFC 3339>","tsa":"<identity>"}
//
// and signature is the 64-byte Ed25519 signature over the exact claims bytes
// as encoded in the first segment. The Ed25519 seed is HKDF-SHA256 of the
// master key with no salt and info "tsa-signing-v1"; LocalTSA.PublicKey
// exposes the matching verification key.
//
// A token verifies when the signature checks out under that key, hash equals
// the SHA-256 being verified, tsa equals the authority identity, and
// issued_at is set and no later than the verifier's clock plus one minute.
package service

import (
	"context"
	"encoding/hex"
	"strings"

	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

// TSAClient obtains and checks timestamp tokens.
type TSAClient interface {
	// Name identifies the authority. It is stored on every signature it issues.
	Name() string
	Timestamp(ctx context.Context, hash, nonce string) (*signingDomain.Timestamp, error)
	Verify(ctx context.Context, token []byte, hash string) (*signingDomain.Verification, error)
}

// NormalizeHash lowercases hash and checks it is a hex SHA-256 digest.
func NormalizeHash(hash string) (string, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		return "", signingDomain.ErrHashRequired
	}
	if len(hash) != 64 {
		return "", signingDomain.ErrInvalidHash
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return "", signingDomain.ErrInvalidHash
	}
	return hash, nil
}
