package domain

import (
	"encoding/json"
	"time"
)

// Document is the canonical content every renderer consumes. Struct fields
// are declared in JSON key order so the encoding has sorted keys.
type Document struct {
	Dossier DocumentHeader   `json:"dossier"`
	Records []DocumentRecord `json:"records"`
}

// DocumentHeader describes the request a document answers.
type DocumentHeader struct {
	From           string   `json:"from"`
	GeneratedFor   string   `json:"generated_for"`
	ID             string   `json:"id"`
	Kinds          []string `json:"kinds"`
	RecordCount    int      `json:"record_count"`
	RequestNumber  string   `json:"request_number"`
	SignatureCount int      `json:"signature_count"`
	TenantID       string   `json:"tenant_id"`
	TenantName     string   `json:"tenant_name"`
	To             string   `json:"to"`
	Type           string   `json:"type"`
}

// DocumentRecord is one record with its timestamp proof.
type DocumentRecord struct {
	ContentHash string             `json:"content_hash"`
	EntryTime   string             `json:"entry_time"`
	ID          string             `json:"id"`
	Kind        string             `json:"kind"`
	Payload     map[string]any     `json:"payload"`
	Signature   *DocumentSignature `json:"signature"`
	Suspicious  bool               `json:"suspicious"`
}

// DocumentSignature is the part of a signature shown in a dossier.
type DocumentSignature struct {
	HashAlgorithm string `json:"hash_algorithm"`
	Serial        string `json:"serial"`
	SignedAt      string `json:"signed_at"`
	Status        string `json:"status"`
	TSA           string `json:"tsa"`
	TokenHash     string `json:"token_hash"`
}

// FormatTime renders t in UTC RFC 3339 with nanoseconds, or "" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// PayloadJSON returns the payload with sorted keys.
func (r *DocumentRecord) PayloadJSON() string {
	raw, err := json.Marshal(r.Payload)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// SignatureBinding is the detached file tying an artifact hash to its timestamp.
type SignatureBinding struct {
	DossierID   string `json:"dossier_id"`
	SHA256      string `json:"sha256"`
	SignatureID string `json:"signature_id"`
	Serial      string `json:"serial"`
	Status      string `json:"status"`
	Token       []byte `json:"token"`
}
