package dto

import (
	"time"

	"github.com/google/uuid"

	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
)

func idString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// DossierResponse is a dossier without its filter digests.
type DossierResponse struct {
	ID               string     `json:"id"`
	TenantID         string     `json:"tenant_id"`
	RequestNumber    string     `json:"request_number"`
	Type             string     `json:"type"`
	RequestedBy      string     `json:"requested_by"`
	ApprovedBy       string     `json:"approved_by,omitempty"`
	From             time.Time  `json:"from"`
	To               time.Time  `json:"to"`
	Kinds            []string   `json:"kinds"`
	IdentityFiltered bool       `json:"identity_filtered"`
	SourceIPFiltered bool       `json:"source_ip_filtered"`
	Format           string     `json:"format"`
	Status           string     `json:"status"`
	RecordCount      int        `json:"record_count"`
	SignatureCount   int        `json:"signature_count"`
	ArtifactSize     int64      `json:"artifact_size,omitempty"`
	SHA256           string     `json:"sha256,omitempty"`
	SignatureID      string     `json:"signature_id,omitempty"`
	GeneratedAt      *time.Time `json:"generated_at,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// MapDossierToResponse converts a dossier to its response body.
func MapDossierToResponse(d *dossierDomain.Dossier) DossierResponse {
	kinds := make([]string, len(d.Filter.Kinds))
	for i, k := range d.Filter.Kinds {
		kinds[i] = string(k)
	}
	return DossierResponse{
		ID:               d.ID.String(),
		TenantID:         d.TenantID.String(),
		RequestNumber:    d.RequestNumber,
		Type:             string(d.Type),
		RequestedBy:      d.RequestedBy.String(),
		ApprovedBy:       idString(d.ApprovedBy),
		From:             d.From,
		To:               d.To,
		Kinds:            kinds,
		IdentityFiltered: d.Filter.IdentityDigest != "",
		SourceIPFiltered: d.Filter.SourceIPDigest != "",
		Format:           string(d.Format),
		Status:           string(d.Status),
		RecordCount:      d.RecordCount,
		SignatureCount:   d.SignatureCount,
		ArtifactSize:     d.ArtifactSize,
		SHA256:           d.SHA256,
		SignatureID:      idString(d.SignatureID),
		GeneratedAt:      d.GeneratedAt,
		DeliveredAt:      d.DeliveredAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// ListDossiersResponse is a page of dossiers.
type ListDossiersResponse struct {
	Data []DossierResponse `json:"data"`
}

// MapDossiersToListResponse converts dossiers to a list response.
func MapDossiersToListResponse(dossiers []*dossierDomain.Dossier) ListDossiersResponse {
	data := make([]DossierResponse, 0, len(dossiers))
	for _, d := range dossiers {
		data = append(data, MapDossierToResponse(d))
	}
	return ListDossiersResponse{Data: data}
}

// AuditEntryResponse is one status transition.
type AuditEntryResponse struct {
	ID         string    `json:"id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	OperatorID string    `json:"operator_id"`
	Note       string    `json:"note"`
	At         time.Time `json:"at"`
}

// ListAuditResponse is the audit trail of a dossier.
type ListAuditResponse struct {
	Data []AuditEntryResponse `json:"data"`
}

// MapAuditToListResponse converts audit entries to a list response.
func MapAuditToListResponse(entries []*dossierDomain.AuditEntry) ListAuditResponse {
	data := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, AuditEntryResponse{
			ID:         e.ID.String(),
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			OperatorID: e.OperatorID.String(),
			Note:       e.Note,
			At:         e.At,
		})
	}
	return ListAuditResponse{Data: data}
}

// AuditReportResponse reports the signature check of an audit trail.
type AuditReportResponse struct {
	Checked  int `json:"checked"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Unsigned int `json:"unsigned"`
}

// AccessResponse is one recorded access.
type AccessResponse struct {
	ID          string    `json:"id"`
	OperatorID  string    `json:"operator_id"`
	Kind        string    `json:"kind"`
	SourceIP    string    `json:"source_ip"`
	SessionID   string    `json:"session_id"`
	PagesViewed int       `json:"pages_viewed"`
	DurationMS  int64     `json:"duration_ms"`
	At          time.Time `json:"at"`
}

// MapAccessToResponse converts an access to its response body.
func MapAccessToResponse(a *dossierDomain.Access) AccessResponse {
	return AccessResponse{
		ID:          a.ID.String(),
		OperatorID:  a.OperatorID.String(),
		Kind:        string(a.Kind),
		SourceIP:    a.SourceIP,
		SessionID:   a.SessionID,
		PagesViewed: a.PagesViewed,
		DurationMS:  a.Duration.Milliseconds(),
		At:          a.At,
	}
}

// ListAccessesResponse is a page of accesses.
type ListAccessesResponse struct {
	Data []AccessResponse `json:"data"`
}

// MapAccessesToListResponse converts accesses to a list response.
func MapAccessesToListResponse(accesses []*dossierDomain.Access) ListAccessesResponse {
	data := make([]AccessResponse, 0, len(accesses))
	for _, a := range accesses {
		data = append(data, MapAccessToResponse(a))
	}
	return ListAccessesResponse{Data: data}
}
