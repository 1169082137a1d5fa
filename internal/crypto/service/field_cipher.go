package service

import (
	"encoding/base64"
	"fmt"

	apperrors "github.com/allisson/trustlog/internal/errors"
)

// fieldCipher seals record fields as base64(nonce || ciphertext || tag).
type fieldCipher struct {
	aead AEAD
}

// NewFieldCipher creates a FieldCipher using AES-256-GCM under key.
func NewFieldCipher(key []byte) (FieldCipher, error) {
	aead, err := NewAESGCM(key)
	if err != nil {
		return nil, err
	}
	return &fieldCipher{aead: aead}, nil
}

func (f *fieldCipher) Encrypt(plaintext string) (string, error) {
	ciphertext, nonce, err := f.aead.Encrypt([]byte(plaintext), nil)
	if err != nil {
		return "", err
	}
	blob := make([]byte, 0, len(nonce)+len(ciphertext))
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt keeps legacy plaintext readable: anything that does not open as a
// sealed value is returned verbatim with ErrDecryptFailed.
func (f *fieldCipher) Decrypt(stored string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return stored, apperrors.Wrap(apperrors.ErrDecryptFailed, "value is not base64")
	}

	nonceSize := f.aead.NonceSize()
	if len(blob) < nonceSize+16 {
		return stored, apperrors.Wrap(apperrors.ErrDecryptFailed, "value too short")
	}

	plaintext, err := f.aead.Decrypt(blob[nonceSize:], blob[:nonceSize], nil)
	if err != nil {
		return stored, apperrors.Wrap(apperrors.ErrDecryptFailed, fmt.Sprintf("open: %v", err))
	}
	return string(plaintext), nil
}
