package domain

import (
	"github.com/allisson/trustlog/internal/errors"
)

var (
	// ErrRecordNotFound is returned when a record id does not resolve within the tenant.
	ErrRecordNotFound = errors.Wrap(errors.ErrNotFound, "record not found")

	// ErrUnknownKind is returned for a record without a known payload.
	ErrUnknownKind = errors.Wrap(errors.ErrInvalidInput, "unknown record kind")

	// ErrRetentionNotElapsed is returned when purging a record younger than
	// the tenant's retention.
	ErrRetentionNotElapsed = errors.Wrap(errors.ErrPolicyViolation, "retention period not elapsed")
)
