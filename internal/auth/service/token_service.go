package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	apperrors "github.com/allisson/trustlog/internal/errors"
)

// TokenPrefix marks operator bearer tokens so they are recognizable in logs
// and secret scanners.
const TokenPrefix = "tlo_"

type tokenService struct{}

func (t *tokenService) GenerateToken() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate token")
	}
	plain := TokenPrefix + base64.RawURLEncoding.EncodeToString(raw)
	return plain, t.HashToken(plain), nil
}

// HashToken returns the hex SHA-256 of the plain token.
func (t *tokenService) HashToken(plainToken string) string {
	sum := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(sum[:])
}

// NewTokenService creates a TokenService.
func NewTokenService() TokenService {
	return &tokenService{}
}
