// Package service renders dossier documents into their artifact formats.
// Every renderer is deterministic: the same document yields the same bytes.
package service

import (
	"io"
	"strconv"
	"strings"
	"time"

	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
	apperrors "github.com/allisson/trustlog/internal/errors"
)

// Renderer writes a document in one format.
type Renderer interface {
	Render(w io.Writer, doc *dossierDomain.Document) error
}

// NewRenderer returns the renderer of a format.
func NewRenderer(format dossierDomain.Format) (Renderer, error) {
	switch format {
	case dossierDomain.FormatJSON:
		return jsonRenderer{}, nil
	case dossierDomain.FormatCSV:
		return csvRenderer{}, nil
	case dossierDomain.FormatXML:
		return xmlRenderer{}, nil
	case dossierDomain.FormatHTML:
		return htmlRenderer{}, nil
	case dossierDomain.FormatPDF:
		return pdfRenderer{}, nil
	case dossierDomain.FormatXLSX:
		return xlsxRenderer{}, nil
	}
	return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unsupported dossier format %q", format)
}

var tableHeader = []string{
	"entry_time", "kind", "id", "content_hash", "suspicious",
	"signature_status", "tsa_serial", "signed_at", "payload",
}

func tableRow(r *dossierDomain.DocumentRecord) []string {
	status, serial, signedAt := "unsigned", "", ""
	if r.Signature != nil {
		status, serial, signedAt = r.Signature.Status, r.Signature.Serial, r.Signature.SignedAt
	}
	return []string{
		r.EntryTime,
		r.Kind,
		r.ID,
		r.ContentHash,
		strconv.FormatBool(r.Suspicious),
		status,
		serial,
		signedAt,
		r.PayloadJSON(),
	}
}

// headerLines returns the label/value pairs printed above the records.
func headerLines(h *dossierDomain.DocumentHeader) [][2]string {
	return [][2]string{
		{"Request number", h.RequestNumber},
		{"Dossier", h.ID},
		{"Type", h.Type},
		{"Tenant", h.TenantName + " (" + h.TenantID + ")"},
		{"Range", h.From + " - " + h.To},
		{"Kinds", strings.Join(h.Kinds, ", ")},
		{"Records", strconv.Itoa(h.RecordCount)},
		{"Signatures", strconv.Itoa(h.SignatureCount)},
	}
}

// generatedFor parses the header's fixed generation time.
func generatedFor(h *dossierDomain.DocumentHeader) time.Time {
	t, err := time.Parse(time.RFC3339Nano, h.GeneratedFor)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t.UTC()
}
