package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
)

// gcmNonceSize widens the GCM nonce to 128 bits so random nonces stay safe
// across the volume of record fields sealed under one content key.
const gcmNonceSize = 16

// Sealer is an AEAD with a random nonce drawn per Encrypt call. Safe for
// concurrent use.
type Sealer struct {
	alg  cryptoDomain.Algorithm
	aead cipher.AEAD
}

// NewAESGCM returns an AES-256-GCM sealer with a 16-byte nonce.
func NewAESGCM(key []byte) (*Sealer, error) {
	return newSealer(key, cryptoDomain.AESGCM)
}

// NewXChaCha20 returns an XChaCha20-Poly1305 sealer with a 24-byte nonce.
func NewXChaCha20(key []byte) (*Sealer, error) {
	return newSealer(key, cryptoDomain.ChaCha20)
}

func newSealer(key []byte, alg cryptoDomain.Algorithm) (*Sealer, error) {
	if len(key) != 32 {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case cryptoDomain.AESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key); err == nil {
			aead, err = cipher.NewGCMWithNonceSize(block, gcmNonceSize)
		}
	case cryptoDomain.ChaCha20:
		aead, err = chacha20poly1305.NewX(key)
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cipher: %w", alg, err)
	}
	return &Sealer{alg: alg, aead: aead}, nil
}

// Algorithm reports which AEAD the sealer uses.
func (s *Sealer) Algorithm() cryptoDomain.Algorithm {
	return s.alg
}

// Encrypt returns the ciphertext with its tag appended and the fresh nonce.
// The aad binds the ciphertext to its context (tenant id and field name for
// record fields, archive id for blobs).
func (s *Sealer) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nil, nonce, plaintext, aad), nonce, nil
}

// Decrypt verifies the tag before returning any plaintext.
func (s *Sealer) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != s.aead.NonceSize() {
		return nil, fmt.Errorf("failed to decrypt: nonce is %d bytes, want %d", len(nonce), s.aead.NonceSize())
	}
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

func (s *Sealer) NonceSize() int {
	return s.aead.NonceSize()
}

// CipherFactory builds sealers by algorithm name, as stored next to archive DEKs.
type CipherFactory struct{}

// NewAEADManager returns a CipherFactory.
func NewAEADManager() *CipherFactory {
	return &CipherFactory{}
}

func (CipherFactory) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	s, err := newSealer(key, alg)
	if err != nil {
		return nil, err
	}
	return s, nil
}
