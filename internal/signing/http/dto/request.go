// Package dto provides request and response bodies for the timestamp
// authority and signature endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/trustlog/internal/validation"
)

// TimestampRequest asks the local TSA to stamp a hash.
type TimestampRequest struct {
	Hash  string `json:"hash"`
	Nonce string `json:"nonce"`
}

// Validate checks if the timestamp request is valid.
func (r *TimestampRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Hash, validation.Required, customValidation.SHA256Hex),
		validation.Field(&r.Nonce, validation.Length(0, 255)),
	)
}

// VerifyTokenRequest asks the local TSA to check a token against a hash.
type VerifyTokenRequest struct {
	TimestampToken string `json:"timestamp_token"`
	Hash           string `json:"hash"`
}

// Validate checks if the verify request is valid.
func (r *VerifyTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TimestampToken, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Hash, validation.Required, customValidation.SHA256Hex),
	)
}
