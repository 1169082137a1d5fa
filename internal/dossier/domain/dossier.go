// Package domain defines evidence dossiers: signed, reproducible reports over
// a tenant's records, their approval state machine and the append-only
// audit and access trails kept on each dossier.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"

	recordDomain "github.com/allisson/trustlog/internal/record/domain"
)

// Type is the legal reason a dossier was requested.
type Type string

const (
	TypeCourtOrder Type = "court_order"
	TypeRegulator  Type = "regulator"
	TypeAudit      Type = "audit"
	TypeCompliance Type = "compliance"
)

// Valid reports whether t is a known dossier type.
func (t Type) Valid() bool {
	switch t {
	case TypeCourtOrder, TypeRegulator, TypeAudit, TypeCompliance:
		return true
	}
	return false
}

// Format is the artifact encoding.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatHTML Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatPDF, FormatCSV, FormatXLSX, FormatJSON, FormatXML, FormatHTML}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	return slices.Contains(Formats, f)
}

// ContentType is the media type served on download.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	case FormatXML:
		return "application/xml"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

// Status is the lifecycle state of a dossier.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusGenerated       Status = "generated"
	StatusDelivered       Status = "delivered"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusRejected, StatusGenerated, StatusDelivered:
		return true
	}
	return false
}

var transitions = map[Status]Status{
	StatusDraft:     StatusPendingApproval,
	StatusApproved:  StatusGenerated,
	StatusGenerated: StatusDelivered,
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	if from == StatusPendingApproval {
		return to == StatusApproved || to == StatusRejected
	}
	next, ok := transitions[from]
	return ok && next == to
}

// Filter selects the records of a dossier. Identity and source IP are kept
// only as tenant-keyed digests.
type Filter struct {
	Kinds          []recordDomain.Kind `json:"kinds"`
	IdentityDigest string              `json:"identity_digest,omitempty"`
	SourceIPDigest string              `json:"source_ip_digest,omitempty"`
}

// Dossier is an evidence report requested by an operator.
type Dossier struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	RequestNumber  string
	Type           Type
	RequestedBy    uuid.UUID
	ApprovedBy     *uuid.UUID
	From           time.Time
	To             time.Time
	Filter         Filter
	Format         Format
	Status         Status
	RecordCount    int
	SignatureCount int
	ArtifactKey    string
	ArtifactSize   int64
	SHA256         string
	SignatureID    *uuid.UUID
	GeneratedAt    *time.Time
	DeliveredAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Frozen reports whether the artifact and its hash may no longer change.
func (d *Dossier) Frozen() bool {
	return d.Status == StatusGenerated || d.Status == StatusDelivered
}

// ArtifactKeyFor returns the blob key of the rendered artifact.
func ArtifactKeyFor(tenantID uuid.UUID, requestNumber string, format Format) string {
	return tenantID.String() + "/" + requestNumber + "." + string(format)
}

// SignatureKeyFor returns the blob key of the detached signature binding.
func SignatureKeyFor(tenantID uuid.UUID, requestNumber string) string {
	return tenantID.String() + "/" + requestNumber + ".sig.json"
}

// Clone returns a deep copy of d.
func (d *Dossier) Clone() *Dossier {
	out := *d
	out.Filter.Kinds = slices.Clone(d.Filter.Kinds)
	if d.ApprovedBy != nil {
		v := *d.ApprovedBy
		out.ApprovedBy = &v
	}
	if d.SignatureID != nil {
		v := *d.SignatureID
		out.SignatureID = &v
	}
	if d.GeneratedAt != nil {
		v := *d.GeneratedAt
		out.GeneratedAt = &v
	}
	if d.DeliveredAt != nil {
		v := *d.DeliveredAt
		out.DeliveredAt = &v
	}
	return &out
}

// CreateInput holds the fields of a new dossier. Identity and SourceIP are
// plaintext and digested by the use case.
type CreateInput struct {
	TenantID      uuid.UUID
	RequestNumber string
	Type          Type
	RequestedBy   uuid.UUID
	From          time.Time
	To            time.Time
	Kinds         []recordDomain.Kind
	Identity      string
	SourceIP      string
	Format        Format
}

// AuditEntry records one status transition. Append-only.
type AuditEntry struct {
	ID         uuid.UUID
	DossierID  uuid.UUID
	TenantID   uuid.UUID
	FromStatus Status
	ToStatus   Status
	OperatorID uuid.UUID
	Note       string
	At         time.Time
	// Signature is the HMAC of the entry under the audit signing key. Empty
	// when the entry was written without a signer.
	Signature []byte
}

// AccessKind is how an operator consumed a dossier.
type AccessKind string

const (
	AccessView     AccessKind = "view"
	AccessDownload AccessKind = "download"
	AccessPrint    AccessKind = "print"
	AccessExport   AccessKind = "export"
)

// Valid reports whether k is a known access kind.
func (k AccessKind) Valid() bool {
	switch k {
	case AccessView, AccessDownload, AccessPrint, AccessExport:
		return true
	}
	return false
}

// Access is one consumption of a dossier. Append-only.
type Access struct {
	ID          uuid.UUID
	DossierID   uuid.UUID
	TenantID    uuid.UUID
	OperatorID  uuid.UUID
	Kind        AccessKind
	SourceIP    string
	SessionID   string
	PagesViewed int
	Duration    time.Duration
	At          time.Time
}

// AccessInput describes an access before it is recorded.
type AccessInput struct {
	OperatorID  uuid.UUID
	Kind        AccessKind
	SourceIP    string
	SessionID   string
	PagesViewed int
	Duration    time.Duration
}
