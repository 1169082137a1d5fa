// Package service implements the cryptographic primitives used by every other
// component: AEAD ciphers, field encryption at rest, keyed index digests, key
// derivation and KMS access.
package service

import (
	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
// Implementations generate a fresh random nonce per call and never reuse it.
type AEAD interface {
	// Encrypt seals plaintext with optional AAD and returns the ciphertext
	// (tag appended) and the random nonce that was used.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt opens ciphertext with the nonce and AAD used during encryption.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)

	// NonceSize returns the nonce length in bytes.
	NonceSize() int
}

// AEADManager creates AEAD cipher instances for a given algorithm.
type AEADManager interface {
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyManager issues and unwraps per-archive data keys under the content key.
type KeyManager interface {
	// CreateDek generates a random 32-byte key and wraps it with the content
	// key. The plaintext key is returned for immediate use and must be zeroed.
	CreateDek(contentKey *cryptoDomain.ContentKey, alg cryptoDomain.Algorithm) (cryptoDomain.Dek, []byte, error)

	// DecryptDek unwraps a Dek with the content key.
	DecryptDek(dek cryptoDomain.Dek, contentKey *cryptoDomain.ContentKey) ([]byte, error)
}

// FieldCipher protects individual record fields at rest.
type FieldCipher interface {
	// Encrypt returns base64(nonce || ciphertext || tag).
	Encrypt(plaintext string) (string, error)

	// Decrypt returns the plaintext. When stored is not a valid sealed value it
	// is returned verbatim together with ErrDecryptFailed.
	Decrypt(stored string) (string, error)
}

// Digester computes keyed, tenant-scoped digests for indexing encrypted values.
type Digester interface {
	Digest(tenantID, value string) string
}
