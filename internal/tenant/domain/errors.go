package domain

import (
	"github.com/allisson/trustlog/internal/errors"
)

var (
	// ErrTenantNotFound is returned when a tenant id or slug does not resolve.
	ErrTenantNotFound = errors.Wrap(errors.ErrTenantUnknown, "tenant not found")

	// ErrSlugTaken is returned when creating a tenant with an existing slug.
	ErrSlugTaken = errors.Wrap(errors.ErrConflict, "tenant slug already exists")

	// ErrRetentionBelowMinimum is returned when a retention period is shorter
	// than the statutory minimum.
	ErrRetentionBelowMinimum = errors.Wrap(errors.ErrPolicyViolation, "retention below statutory minimum")
)
