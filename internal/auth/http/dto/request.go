// Package dto provides request and response bodies for the token endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/trustlog/internal/validation"
)

// IssueTokenRequest carries operator credentials.
type IssueTokenRequest struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// Validate checks if the issue token request is valid.
func (r *IssueTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Secret,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}
