package service

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey expands a 32-byte subkey from secret with HKDF-SHA256 and the
// given info label. Distinct labels yield independent keys.
func DeriveKey(secret []byte, info string) []byte {
	reader := hkdf.New(sha256.New, secret, nil, []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		// HKDF-SHA256 can produce up to 8160 bytes; 32 never fails.
		panic("hkdf: " + err.Error())
	}
	return key
}
