package domain

import (
	"github.com/allisson/trustlog/internal/errors"
)

var (
	// ErrUnsupportedAlgorithm indicates an unknown AEAD algorithm.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the key is not 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrContentKeyNotSet indicates ENCRYPTION_KEY is missing.
	ErrContentKeyNotSet = errors.Wrap(errors.ErrInvalidInput, "encryption key not set")

	// ErrInvalidContentKeyBase64 indicates ENCRYPTION_KEY is not valid base64.
	ErrInvalidContentKeyBase64 = errors.Wrap(errors.ErrInvalidInput, "encryption key is not valid base64")

	// ErrDecryptionFailed indicates an AEAD open failure.
	ErrDecryptionFailed = errors.Wrap(errors.ErrDecryptFailed, "authentication failed")
)
