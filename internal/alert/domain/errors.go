package domain

import (
	apperrors "github.com/allisson/trustlog/internal/errors"
)

var (
	ErrAlertNotFound       = apperrors.Wrap(apperrors.ErrNotFound, "alert not found")
	ErrRuleNotFound        = apperrors.Wrap(apperrors.ErrNotFound, "rule not found")
	ErrSuppressionNotFound = apperrors.Wrap(apperrors.ErrNotFound, "suppression not found")

	ErrInvalidAlertTransition = apperrors.Wrap(apperrors.ErrPolicyViolation, "alert status transition not allowed")
	ErrInvalidPredicate       = apperrors.Wrap(apperrors.ErrInvalidInput, "rule predicate does not compile to a boolean")

	// ErrRuleCapped is returned when a rule reached its hourly or daily cap.
	ErrRuleCapped = apperrors.Wrap(apperrors.ErrRateLimited, "rule alert cap reached")

	// ErrAlertSuppressed marks an alert recorded under a suppression.
	ErrAlertSuppressed = apperrors.Wrap(apperrors.ErrSuppressed, "alert suppressed")

	ErrChannelUnavailable = apperrors.Wrap(apperrors.ErrUnreachable, "alert channel unavailable")
)
