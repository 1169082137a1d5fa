// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by handlers.
//
// Every sentinel carries a machine-readable kind (see KindOf) which is surfaced to
// callers as error_kind.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated operator doesn't have permission.
	ErrForbidden = errors.New("forbidden")

	// ErrLocked indicates the operator account is temporarily locked.
	ErrLocked = errors.New("locked")
)

// Input errors.
var (
	// ErrConsentMissing indicates the visitor did not accept the consent text.
	ErrConsentMissing = errors.New("consent missing")

	// ErrIdentityRejected indicates the identity kind is not admitted by the tenant.
	ErrIdentityRejected = errors.New("identity rejected")

	// ErrTenantUnknown indicates the tenant slug or id does not resolve.
	ErrTenantUnknown = errors.New("tenant unknown")
)

// Storage errors.
var (
	// ErrPersistenceFailed indicates a storage write failed after retries.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrStorageFull indicates the backing store refused a write for lack of space.
	ErrStorageFull = errors.New("storage full")
)

// Crypto errors.
var (
	// ErrDecryptFailed is non-fatal: the stored bytes are returned verbatim.
	ErrDecryptFailed = errors.New("decrypt failed")

	// ErrSignFailed indicates a timestamp token could not be obtained. Retryable.
	ErrSignFailed = errors.New("sign failed")

	// ErrVerifyFailed indicates a signature no longer matches its record.
	ErrVerifyFailed = errors.New("verify failed")
)

// Policy errors.
var (
	// ErrRetentionSkip is informational: a record was kept because a deletion guard failed.
	ErrRetentionSkip = errors.New("retention skip")

	// ErrPolicyViolation is fatal for the offending operation.
	ErrPolicyViolation = errors.New("policy violation")
)

// Transport errors.
var (
	ErrTimeout     = errors.New("timeout")
	ErrUnreachable = errors.New("unreachable")
	ErrProtocol    = errors.New("protocol error")
)

// Operational errors.
var (
	ErrRateLimited = errors.New("rate limited")
	ErrOverflow    = errors.New("collector overflow")
	ErrSuppressed  = errors.New("suppressed")
)

// Error kinds surfaced as error_kind.
const (
	KindValidationFailed  = "VALIDATION_FAILED"
	KindConsentMissing    = "CONSENT_MISSING"
	KindIdentityRejected  = "IDENTITY_REJECTED"
	KindTenantUnknown     = "TENANT_UNKNOWN"
	KindNotFound          = "NOT_FOUND"
	KindConflict          = "CONFLICT"
	KindPersistenceFailed = "PERSISTENCE_FAILED"
	KindStorageFull       = "STORAGE_FULL"
	KindDecryptFailed     = "DECRYPT_FAILED"
	KindSignFailed        = "SIGN_FAILED"
	KindVerifyFailed      = "VERIFY_FAILED"
	KindRetentionSkip     = "RETENTION_SKIP"
	KindPolicyViolation   = "POLICY_VIOLATION"
	KindTimeout           = "TIMEOUT"
	KindUnreachable       = "UNREACHABLE"
	KindProtocolError     = "PROTOCOL_ERROR"
	KindRateLimited       = "RATE_LIMITED"
	KindOverflow          = "SC_OVERFLOW"
	KindSuppressed        = "SUPPRESSED"
	KindUnauthorized      = "UNAUTHORIZED"
	KindForbidden         = "FORBIDDEN"
	KindLocked            = "LOCKED"
	KindInternal          = "INTERNAL_ERROR"
)

// kinds is ordered: the first sentinel found in the chain decides the kind.
var kinds = []struct {
	err  error
	kind string
}{
	{ErrConsentMissing, KindConsentMissing},
	{ErrIdentityRejected, KindIdentityRejected},
	{ErrTenantUnknown, KindTenantUnknown},
	{ErrInvalidInput, KindValidationFailed},
	{ErrStorageFull, KindStorageFull},
	{ErrPersistenceFailed, KindPersistenceFailed},
	{ErrNotFound, KindNotFound},
	{ErrConflict, KindConflict},
	{ErrDecryptFailed, KindDecryptFailed},
	{ErrSignFailed, KindSignFailed},
	{ErrVerifyFailed, KindVerifyFailed},
	{ErrRetentionSkip, KindRetentionSkip},
	{ErrPolicyViolation, KindPolicyViolation},
	{ErrTimeout, KindTimeout},
	{ErrUnreachable, KindUnreachable},
	{ErrProtocol, KindProtocolError},
	{ErrRateLimited, KindRateLimited},
	{ErrOverflow, KindOverflow},
	{ErrSuppressed, KindSuppressed},
	{ErrUnauthorized, KindUnauthorized},
	{ErrLocked, KindLocked},
	{ErrForbidden, KindForbidden},
}

// KindOf returns the machine-readable kind of err, or KindInternal when err
// does not wrap any known sentinel.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps err with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join is a convenience wrapper around errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
