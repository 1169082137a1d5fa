package service

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/trustlog/internal/errors"
)

// secretLength is the number of random bytes in a generated operator secret.
const secretLength = 24

type secretService struct {
	hasher *pwdhash.PasswordHasher
}

func (s *secretService) GenerateSecret() (string, string, error) {
	raw := make([]byte, secretLength)
	if _, err := rand.Read(raw); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate operator secret")
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)

	hashed, err := s.HashSecret(plain)
	if err != nil {
		return "", "", err
	}
	return plain, hashed, nil
}

func (s *secretService) HashSecret(plainSecret string) (string, error) {
	hashed, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash operator secret")
	}
	return hashed, nil
}

func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	return err == nil && ok
}

// NewSecretService creates a SecretService using the moderate Argon2id policy.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	if err != nil {
		panic(err)
	}
	return &secretService{hasher: hasher}
}
