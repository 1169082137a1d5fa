package domain

import "time"

// TokenVersion is the version written into local TSA tokens.
const TokenVersion = 1

// TokenClaims is the signed body of a local TSA token.
type TokenClaims struct {
	Version   int       `json:"version"`
	Serial    string    `json:"serial"`
	Hash      string    `json:"hash"`
	Algorithm string    `json:"algorithm"`
	Nonce     string    `json:"nonce,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	TSA       string    `json:"tsa"`
}

// Timestamp is what a TSA returns for a hash.
type Timestamp struct {
	Token     []byte
	Serial    string
	Hash      string
	Algorithm string
	IssuedAt  time.Time
	TSA       string
}

// Verification is the outcome of checking a token against a hash.
type Verification struct {
	Valid     bool
	HashMatch bool
	TimeValid bool
	IssuedAt  time.Time
	Algorithm string
	TSA       string
	Serial    string
}
