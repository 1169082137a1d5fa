// Package dto provides request and response bodies for the dossier endpoints.
package dto

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// CreateDossierRequest opens a draft. Identity and source IP are digested
// before storage.
type CreateDossierRequest struct {
	RequestNumber string    `json:"request_number"`
	Type          string    `json:"type"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	Kinds         []string  `json:"kinds"`
	Identity      string    `json:"identity"`
	SourceIP      string    `json:"source_ip"`
	Format        string    `json:"format"`
}

// Validate checks the request shape.
func (r *CreateDossierRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RequestNumber, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Type, validation.Required, validation.By(func(any) error {
			if !dossierDomain.Type(r.Type).Valid() {
				return validation.NewError("validation_type", "must be one of court_order, regulator, audit, compliance")
			}
			return nil
		})),
		validation.Field(&r.Format, validation.Required, validation.By(func(any) error {
			if !dossierDomain.Format(r.Format).Valid() {
				return validation.NewError("validation_format", "must be one of pdf, csv, xlsx, json, xml, html")
			}
			return nil
		})),
		validation.Field(&r.From, validation.Required),
		validation.Field(&r.To, validation.Required, validation.By(func(any) error {
			if !r.From.Before(r.To) {
				return validation.NewError("validation_range", "must be after from")
			}
			return nil
		})),
		validation.Field(&r.Kinds, validation.Each(validation.By(func(v any) error {
			if kind, _ := v.(string); !recordDomain.Kind(kind).Valid() {
				return validation.NewError("validation_kind", "must be one of session, syslog, flow")
			}
			return nil
		}))),
		validation.Field(&r.SourceIP, validation.Length(0, 64)),
	)
}

// ToInput converts the request for the tenant and requester.
func (r *CreateDossierRequest) ToInput(tenantID, requestedBy uuid.UUID) *dossierDomain.CreateInput {
	kinds := make([]recordDomain.Kind, len(r.Kinds))
	for i, k := range r.Kinds {
		kinds[i] = recordDomain.Kind(k)
	}
	return &dossierDomain.CreateInput{
		TenantID:      tenantID,
		RequestNumber: r.RequestNumber,
		Type:          dossierDomain.Type(r.Type),
		RequestedBy:   requestedBy,
		From:          r.From,
		To:            r.To,
		Kinds:         kinds,
		Identity:      r.Identity,
		SourceIP:      r.SourceIP,
		Format:        dossierDomain.Format(r.Format),
	}
}

// TransitionRequest carries the optional note of a status change.
type TransitionRequest struct {
	Note string `json:"note"`
}

// Validate checks the note length.
func (r *TransitionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Note, validation.Length(0, 2000)),
	)
}

// AccessRequest reports an access made outside the download endpoint.
type AccessRequest struct {
	Kind        string `json:"kind"`
	SessionID   string `json:"session_id"`
	PagesViewed int    `json:"pages_viewed"`
	DurationMS  int64  `json:"duration_ms"`
}

// Validate checks the access shape.
func (r *AccessRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Kind, validation.Required, validation.By(func(any) error {
			if !dossierDomain.AccessKind(r.Kind).Valid() {
				return validation.NewError("validation_access_kind", "must be one of view, download, print, export")
			}
			return nil
		})),
		validation.Field(&r.SessionID, validation.Length(0, 128)),
		validation.Field(&r.PagesViewed, validation.Min(0)),
		validation.Field(&r.DurationMS, validation.Min(int64(0))),
	)
}

// ToInput converts the request for the operator and client address.
func (r *AccessRequest) ToInput(operatorID uuid.UUID, sourceIP string) *dossierDomain.AccessInput {
	return &dossierDomain.AccessInput{
		OperatorID:  operatorID,
		Kind:        dossierDomain.AccessKind(r.Kind),
		SourceIP:    sourceIP,
		SessionID:   r.SessionID,
		PagesViewed: r.PagesViewed,
		Duration:    time.Duration(r.DurationMS) * time.Millisecond,
	}
}
