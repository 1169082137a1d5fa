// Package dto provides request and response bodies for the retention endpoints.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
	retentionUseCase "github.com/allisson/trustlog/internal/retention/usecase"
)

// SetPolicyRequest replaces the policy of one record kind. Durations are in
// days; zero falls back to the tenant retention and the process default.
type SetPolicyRequest struct {
	MinRetentionDays int    `json:"min_retention_days"`
	ArchiveAfterDays int    `json:"archive_after_days"`
	Compress         bool   `json:"compress"`
	Encrypt          bool   `json:"encrypt"`
	Backend          string `json:"backend"`
	Cadence          string `json:"cadence"`
	AutoCleanup      bool   `json:"auto_cleanup"`
}

// Validate checks the policy shape. Retention floors are enforced by the use case.
func (r *SetPolicyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.MinRetentionDays, validation.Min(0)),
		validation.Field(&r.ArchiveAfterDays, validation.Min(0)),
		validation.Field(&r.Backend, validation.By(func(any) error {
			if r.Backend != "" && !retentionDomain.BackendKind(r.Backend).Valid() {
				return validation.NewError("validation_backend", "must be one of local, worm, cloud, tape, hybrid")
			}
			return nil
		})),
		validation.Field(&r.Cadence, validation.By(func(any) error {
			if r.Cadence != "" && !retentionDomain.Cadence(r.Cadence).Valid() {
				return validation.NewError("validation_cadence", "must be one of daily, weekly, monthly, quarterly")
			}
			return nil
		})),
	)
}

// ToInput converts the request for the given kind.
func (r *SetPolicyRequest) ToInput(kind recordDomain.Kind) *retentionUseCase.PolicyInput {
	const day = 24 * time.Hour
	return &retentionUseCase.PolicyInput{
		Kind:         kind,
		MinRetention: time.Duration(r.MinRetentionDays) * day,
		ArchiveAfter: time.Duration(r.ArchiveAfterDays) * day,
		Compress:     r.Compress,
		Encrypt:      r.Encrypt,
		Backend:      retentionDomain.BackendKind(r.Backend),
		Cadence:      retentionDomain.Cadence(r.Cadence),
		AutoCleanup:  r.AutoCleanup,
	}
}

// RunRequest starts an archive or cleanup run for one record kind.
type RunRequest struct {
	Kind string `json:"kind"`
}

// Validate checks the record kind.
func (r *RunRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Kind, validation.Required, validation.By(func(any) error {
			if !recordDomain.Kind(r.Kind).Valid() {
				return validation.NewError("validation_kind", "must be one of session, syslog, flow")
			}
			return nil
		})),
	)
}
