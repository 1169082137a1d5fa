package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusPendingApproval, true},
		{StatusDraft, StatusApproved, false},
		{StatusPendingApproval, StatusApproved, true},
		{StatusPendingApproval, StatusRejected, true},
		{StatusPendingApproval, StatusGenerated, false},
		{StatusApproved, StatusGenerated, true},
		{StatusApproved, StatusDelivered, false},
		{StatusGenerated, StatusDelivered, true},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusDraft, false},
		{StatusDelivered, StatusGenerated, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestKeys(t *testing.T) {
	tenantID := uuid.MustParse("0190b3a0-0000-7000-8000-000000000001")

	assert.Equal(t, "0190b3a0-0000-7000-8000-000000000001/2026-123.pdf",
		ArtifactKeyFor(tenantID, "2026-123", FormatPDF))
	assert.Equal(t, "0190b3a0-0000-7000-8000-000000000001/2026-123.sig.json",
		SignatureKeyFor(tenantID, "2026-123"))
}

func TestDossier_Frozen(t *testing.T) {
	d := &Dossier{Status: StatusApproved}
	assert.False(t, d.Frozen())

	d.Status = StatusGenerated
	assert.True(t, d.Frozen())

	d.Status = StatusDelivered
	assert.True(t, d.Frozen())
}

func TestFormat(t *testing.T) {
	assert.True(t, FormatXLSX.Valid())
	assert.False(t, Format("docx").Valid())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}
