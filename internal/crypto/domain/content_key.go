package domain

import (
	"context"
	"encoding/base64"
	"fmt"
)

// KMSKeeper is the subset of *secrets.Keeper used to unwrap the content key.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// ContentKey is the process-wide 256-bit key protecting data at rest. Every
// other key (index digests, TSA signing, device cookies) is derived from it.
//
// The key is loaded once at startup, never logged, and zeroed by Close.
type ContentKey struct {
	key []byte
}

// NewContentKey copies key into a ContentKey. The key must be 32 bytes.
func NewContentKey(key []byte) (*ContentKey, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: content key must be 32 bytes, got %d", ErrInvalidKeySize, len(key))
	}
	k := make([]byte, 32)
	copy(k, key)
	return &ContentKey{key: k}, nil
}

// ParseContentKey decodes a base64 ENCRYPTION_KEY value. When keeper is not
// nil the decoded bytes are treated as KMS ciphertext and unwrapped first.
func ParseContentKey(ctx context.Context, encoded string, keeper KMSKeeper) (*ContentKey, error) {
	if encoded == "" {
		return nil, ErrContentKeyNotSet
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContentKeyBase64, err)
	}
	defer Zero(raw)

	if keeper != nil {
		plain, err := keeper.Decrypt(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to unwrap encryption key: %w", err)
		}
		defer Zero(plain)
		return NewContentKey(plain)
	}

	return NewContentKey(raw)
}

// Bytes returns the raw key. Callers must not retain or modify it.
func (k *ContentKey) Bytes() []byte {
	return k.key
}

// Close zeroes the key material.
func (k *ContentKey) Close() {
	Zero(k.key)
}
