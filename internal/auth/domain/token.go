package domain

import (
	"net/netip"
	"time"

	"github.com/google/uuid"
)

// Token is an issued bearer token. Only its SHA-256 hash is stored.
type Token struct {
	ID         uuid.UUID
	TokenHash  string
	OperatorID uuid.UUID
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	CreatedAt  time.Time
}

// IssueTokenInput holds operator credentials and the caller's address.
type IssueTokenInput struct {
	Username string
	Secret   string
	SourceIP netip.Addr
}

// IssueTokenOutput carries the plain token, shown once.
type IssueTokenOutput struct {
	PlainToken string
	ExpiresAt  time.Time
}
