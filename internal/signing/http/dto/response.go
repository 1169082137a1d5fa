package dto

import (
	"time"

	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

// TimestampResponse is the local TSA reply.
type TimestampResponse struct {
	Status         string    `json:"status"`
	TimestampToken string    `json:"timestamp_token"`
	Timestamp      time.Time `json:"timestamp"`
	Hash           string    `json:"hash"`
	Algorithm      string    `json:"algorithm"`
	Serial         string    `json:"serial"`
	TSA            string    `json:"tsa"`
}

// MapTimestampToResponse converts a stamp to its response body.
func MapTimestampToResponse(ts *signingDomain.Timestamp) TimestampResponse {
	return TimestampResponse{
		Status:         "success",
		TimestampToken: string(ts.Token),
		Timestamp:      ts.IssuedAt,
		Hash:           ts.Hash,
		Algorithm:      ts.Algorithm,
		Serial:         ts.Serial,
		TSA:            ts.TSA,
	}
}

// StatusResponse is the liveness reply of the local TSA.
type StatusResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Algorithm string    `json:"algorithm"`
	Timestamp time.Time `json:"timestamp"`
}

// VerifyTokenResponse is the verification reply.
type VerifyTokenResponse struct {
	Status    string    `json:"status"`
	Valid     bool      `json:"valid"`
	HashMatch bool      `json:"hash_match"`
	TimeValid bool      `json:"time_valid"`
	Timestamp time.Time `json:"timestamp"`
	Algorithm string    `json:"algorithm"`
	TSA       string    `json:"tsa"`
	Serial    string    `json:"serial"`
}

// MapVerificationToResponse converts a verification to its response body.
func MapVerificationToResponse(v *signingDomain.Verification) VerifyTokenResponse {
	status := "invalid"
	if v.Valid {
		status = "valid"
	}
	return VerifyTokenResponse{
		Status:    status,
		Valid:     v.Valid,
		HashMatch: v.HashMatch,
		TimeValid: v.TimeValid,
		Timestamp: v.IssuedAt,
		Algorithm: v.Algorithm,
		TSA:       v.TSA,
		Serial:    v.Serial,
	}
}

// SignatureResponse is the operator view of a signature.
type SignatureResponse struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	SubjectKind   string     `json:"subject_kind"`
	SubjectID     string     `json:"subject_id"`
	Status        string     `json:"status"`
	HashAlgorithm string     `json:"hash_algorithm"`
	TokenHash     string     `json:"token_hash,omitempty"`
	Token         string     `json:"token,omitempty"`
	Serial        string     `json:"serial,omitempty"`
	TSA           string     `json:"tsa,omitempty"`
	Attempts      int        `json:"attempts"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	SignedAt      *time.Time `json:"signed_at,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// MapSignatureToResponse converts a signature to its response body.
func MapSignatureToResponse(s *signingDomain.Signature) SignatureResponse {
	resp := SignatureResponse{
		ID:            s.ID.String(),
		TenantID:      s.TenantID.String(),
		SubjectKind:   string(s.SubjectKind),
		SubjectID:     s.SubjectID.String(),
		Status:        string(s.Status),
		HashAlgorithm: s.HashAlgorithm,
		TokenHash:     s.TokenHash,
		Token:         string(s.Token),
		Serial:        s.Serial,
		TSA:           s.TSA,
		Attempts:      s.Attempts,
		LastError:     s.LastError,
		SignedAt:      s.SignedAt,
		VerifiedAt:    s.VerifiedAt,
		CreatedAt:     s.CreatedAt,
	}
	if s.Status == signingDomain.StatusPending {
		next := s.NextAttemptAt
		resp.NextAttemptAt = &next
	}
	return resp
}

// ListSignaturesResponse is a page of signatures.
type ListSignaturesResponse struct {
	Data []SignatureResponse `json:"data"`
}

// MapSignaturesToListResponse converts signatures to a list response.
func MapSignaturesToListResponse(sigs []*signingDomain.Signature) ListSignaturesResponse {
	data := make([]SignatureResponse, 0, len(sigs))
	for _, s := range sigs {
		data = append(data, MapSignatureToResponse(s))
	}
	return ListSignaturesResponse{Data: data}
}
