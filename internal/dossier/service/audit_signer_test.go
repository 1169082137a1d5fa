package service

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
)

func newTestAuditSigner(t testing.TB) AuditSigner {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	contentKey, err := cryptoDomain.NewContentKey(key)
	require.NoError(t, err)
	return NewAuditSigner(contentKey)
}

func testAuditEntry() *dossierDomain.AuditEntry {
	return &dossierDomain.AuditEntry{
		ID:         uuid.Must(uuid.NewV7()),
		DossierID:  uuid.Must(uuid.NewV7()),
		TenantID:   uuid.Must(uuid.NewV7()),
		FromStatus: dossierDomain.StatusPendingApproval,
		ToStatus:   dossierDomain.StatusApproved,
		OperatorID: uuid.Must(uuid.NewV7()),
		Note:       "court order 2026/44",
		At:         time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}
}

func TestAuditSigner_SignAndVerify(t *testing.T) {
	signer := newTestAuditSigner(t)
	entry := testAuditEntry()

	entry.Signature = signer.Sign(entry)
	assert.Len(t, entry.Signature, 32, "HMAC-SHA256 should produce 32-byte signature")
	assert.NoError(t, signer.Verify(entry))
}

func TestAuditSigner_Deterministic(t *testing.T) {
	signer := newTestAuditSigner(t)
	entry := testAuditEntry()

	assert.Equal(t, signer.Sign(entry), signer.Sign(entry))
}

func TestAuditSigner_VerifyDetectsTampering(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(e *dossierDomain.AuditEntry)
	}{
		{"Note", func(e *dossierDomain.AuditEntry) { e.Note = "approved by phone" }},
		{"ToStatus", func(e *dossierDomain.AuditEntry) { e.ToStatus = dossierDomain.StatusRejected }},
		{"FromStatus", func(e *dossierDomain.AuditEntry) { e.FromStatus = dossierDomain.StatusDraft }},
		{"Operator", func(e *dossierDomain.AuditEntry) { e.OperatorID = uuid.Must(uuid.NewV7()) }},
		{"Dossier", func(e *dossierDomain.AuditEntry) { e.DossierID = uuid.Must(uuid.NewV7()) }},
		{"Time", func(e *dossierDomain.AuditEntry) { e.At = e.At.Add(time.Microsecond) }},
		{"Signature", func(e *dossierDomain.AuditEntry) { e.Signature[0] ^= 0xff }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := newTestAuditSigner(t)
			entry := testAuditEntry()
			entry.Signature = signer.Sign(entry)

			tt.tamper(entry)
			assert.ErrorIs(t, signer.Verify(entry), dossierDomain.ErrAuditSignatureInvalid)
		})
	}
}

func TestAuditSigner_LengthPrefixPreventsShifting(t *testing.T) {
	signer := newTestAuditSigner(t)

	a := testAuditEntry()
	b := *a
	a.FromStatus, a.Note = "ab", "c"
	b.FromStatus, b.Note = "a", "bc"

	assert.NotEqual(t, signer.Sign(a), signer.Sign(&b))
}

func TestAuditSigner_DifferentKeys(t *testing.T) {
	entry := testAuditEntry()
	entry.Signature = newTestAuditSigner(t).Sign(entry)

	assert.ErrorIs(t, newTestAuditSigner(t).Verify(entry), dossierDomain.ErrAuditSignatureInvalid)
}

func TestAuditSigner_UnsignedEntryFails(t *testing.T) {
	assert.ErrorIs(t, newTestAuditSigner(t).Verify(testAuditEntry()), dossierDomain.ErrAuditSignatureInvalid)
}

func BenchmarkAuditSigner_Sign(b *testing.B) {
	signer := newTestAuditSigner(b)
	entry := testAuditEntry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = signer.Sign(entry)
	}
}
