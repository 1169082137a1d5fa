package domain

import (
	"github.com/allisson/trustlog/internal/errors"
)

var (
	// ErrDossierNotFound is returned when a dossier id does not resolve within the tenant.
	ErrDossierNotFound = errors.Wrap(errors.ErrNotFound, "dossier not found")

	// ErrRequestNumberTaken is returned when a request number is reused within a tenant.
	ErrRequestNumberTaken = errors.Wrap(errors.ErrConflict, "request number already exists")

	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.Wrap(errors.ErrConflict, "invalid dossier status transition")

	// ErrSelfApproval is returned when the requester tries to approve or reject.
	ErrSelfApproval = errors.Wrap(errors.ErrForbidden, "requester may not approve the dossier")

	// ErrNoArtifact is returned when serving a dossier that was never generated.
	ErrNoArtifact = errors.Wrap(errors.ErrInvalidInput, "dossier has no artifact")

	// ErrArtifactTampered is returned when the stored artifact no longer matches its hash.
	ErrArtifactTampered = errors.Wrap(errors.ErrVerifyFailed, "dossier artifact does not match its hash")

	// ErrAuditSignatureInvalid is returned when an audit entry no longer matches its signature.
	ErrAuditSignatureInvalid = errors.Wrap(errors.ErrVerifyFailed, "dossier audit entry signature is invalid")
)
