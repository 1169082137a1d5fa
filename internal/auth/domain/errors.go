package domain

import (
	"github.com/allisson/trustlog/internal/errors"
)

// Authentication and authorization errors.
var (
	ErrOperatorNotFound = errors.Wrap(errors.ErrNotFound, "operator not found")
	ErrTokenNotFound    = errors.Wrap(errors.ErrNotFound, "token not found")
	ErrUsernameTaken    = errors.Wrap(errors.ErrConflict, "username already exists")

	// ErrInvalidCredentials covers unknown usernames, wrong secrets and
	// expired or revoked tokens alike.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	ErrOperatorInactive    = errors.Wrap(errors.ErrForbidden, "operator is inactive")
	ErrOperatorLocked      = errors.Wrap(errors.ErrLocked, "operator is locked")
	ErrOperatorExpired     = errors.Wrap(errors.ErrForbidden, "operator validity has ended")
	ErrOutsideAccessWindow = errors.Wrap(errors.ErrForbidden, "outside of operator access window")
	ErrSourceIPDenied      = errors.Wrap(errors.ErrForbidden, "source address not allowed")
	ErrNotMember           = errors.Wrap(errors.ErrForbidden, "operator is not a member of tenant")
)
