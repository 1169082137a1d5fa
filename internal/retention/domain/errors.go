package domain

import (
	apperrors "github.com/allisson/trustlog/internal/errors"
)

var (
	ErrPolicyNotFound = apperrors.Wrap(apperrors.ErrNotFound, "retention policy not found")
	ErrJobNotFound    = apperrors.Wrap(apperrors.ErrNotFound, "archive job not found")
	ErrInvalidPolicy  = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid retention policy")

	// ErrBusy is returned when another archive or cleanup run holds the tenant.
	ErrBusy = apperrors.Wrap(apperrors.ErrLocked, "retention run already in progress for tenant")

	// ErrBackendUnavailable is returned for a policy naming a backend that is
	// not configured in this process.
	ErrBackendUnavailable = apperrors.Wrap(apperrors.ErrInvalidInput, "archive backend not configured")

	// ErrWORMOverwrite is returned when a write would replace an existing
	// blob on a write-once backend.
	ErrWORMOverwrite = apperrors.Wrap(apperrors.ErrPolicyViolation, "write-once archive refuses overwrite")

	ErrArchiveCorrupt = apperrors.Wrap(apperrors.ErrVerifyFailed, "archive blob is corrupt or truncated")
	ErrHashMismatch   = apperrors.Wrap(apperrors.ErrVerifyFailed, "archive blob hash does not match job")
)
