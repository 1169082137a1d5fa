package domain

import (
	apperrors "github.com/allisson/trustlog/internal/errors"
)

var (
	ErrEndpointNotFound = apperrors.Wrap(apperrors.ErrNotFound, "syslog endpoint not found")
	ErrFilterNotFound   = apperrors.Wrap(apperrors.ErrNotFound, "syslog filter not found")
	ErrClientNotFound   = apperrors.Wrap(apperrors.ErrNotFound, "syslog client not found")

	ErrInvalidFilter = apperrors.Wrap(apperrors.ErrInvalidInput, "syslog filter pattern or CIDR is invalid")
	ErrAddressInUse  = apperrors.Wrap(apperrors.ErrConflict, "syslog endpoint address already in use")
	ErrTLSMaterial   = apperrors.Wrap(apperrors.ErrInvalidInput, "tls endpoints need a certificate and key")
)
