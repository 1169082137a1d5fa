// Package service provides credential primitives for operator authentication.
package service

// SecretService generates and verifies operator secrets. Hashes are Argon2id
// in PHC string format.
type SecretService interface {
	// GenerateSecret returns a random plain secret and its hash. The plain
	// value is shown to the operator once and never stored.
	GenerateSecret() (plainSecret string, hashedSecret string, err error)
	HashSecret(plainSecret string) (hashedSecret string, err error)
	// CompareSecret runs in constant time with respect to the secret.
	CompareSecret(plainSecret string, hashedSecret string) bool
}

// TokenService generates bearer tokens and hashes them for lookup.
type TokenService interface {
	GenerateToken() (plainToken string, tokenHash string, err error)
	HashToken(plainToken string) string
}
