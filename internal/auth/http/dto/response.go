package dto

import "time"

// IssueTokenResponse is returned by POST /v1/token.
type IssueTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
