package domain

import (
	apperrors "github.com/allisson/trustlog/internal/errors"
)

// Admission errors.
var (
	// ErrConsentRequired indicates the visitor did not accept the consent text.
	ErrConsentRequired = apperrors.Wrap(apperrors.ErrConsentMissing, "consent is required")

	// ErrForeignIdentityRejected indicates a passport at a tenant that only admits national ids.
	ErrForeignIdentityRejected = apperrors.Wrap(apperrors.ErrIdentityRejected, "foreign identities are not admitted")

	// ErrUnknownIdentityKind indicates an identity kind other than national-id or passport.
	ErrUnknownIdentityKind = apperrors.Wrap(apperrors.ErrInvalidInput, "unknown identity kind")

	// ErrMalformedNationalID indicates a national id that is not eleven digits.
	ErrMalformedNationalID = apperrors.Wrap(apperrors.ErrInvalidInput, "national id must be 11 digits")

	// ErrPassportIncomplete indicates a passport without number or country.
	ErrPassportIncomplete = apperrors.Wrap(apperrors.ErrInvalidInput, "passport number and country are required")

	// ErrNameRequired indicates a missing display name.
	ErrNameRequired = apperrors.Wrap(apperrors.ErrInvalidInput, "name is required")

	// ErrDeviceRequired indicates that no device surrogate could be derived.
	ErrDeviceRequired = apperrors.Wrap(apperrors.ErrInvalidInput, "device could not be identified")
)
