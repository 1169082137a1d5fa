package domain

import (
	apperrors "github.com/allisson/trustlog/internal/errors"
)

// Signing-specific errors.
var (
	// ErrSignatureNotFound indicates the signature does not exist in the tenant.
	ErrSignatureNotFound = apperrors.Wrap(apperrors.ErrNotFound, "signature not found")

	// ErrInvalidTransition indicates a state change the signature state machine forbids.
	ErrInvalidTransition = apperrors.Wrap(apperrors.ErrPolicyViolation, "invalid signature transition")

	// ErrNotSigned indicates verification was requested before a token exists.
	ErrNotSigned = apperrors.Wrap(apperrors.ErrInvalidInput, "signature has no token yet")

	// ErrHashRequired indicates a timestamp request without a hash.
	ErrHashRequired = apperrors.Wrap(apperrors.ErrInvalidInput, "hash is required")

	// ErrInvalidHash indicates the hash is not a hex SHA-256 digest.
	ErrInvalidHash = apperrors.Wrap(apperrors.ErrInvalidInput, "hash must be a hex encoded SHA-256 digest")

	// ErrMalformedToken indicates a token that cannot be decoded.
	ErrMalformedToken = apperrors.Wrap(apperrors.ErrInvalidInput, "malformed timestamp token")

	// ErrUnknownSubject indicates no hasher is registered for the subject kind.
	ErrUnknownSubject = apperrors.Wrap(apperrors.ErrInvalidInput, "unknown signature subject")
)
