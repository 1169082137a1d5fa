package service

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
	cryptoService "github.com/allisson/trustlog/internal/crypto/service"
	apperrors "github.com/allisson/trustlog/internal/errors"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

// clockSkew is the tolerance for tokens issued slightly in the future.
const clockSkew = time.Minute

var tokenEncoding = base64.RawURLEncoding

// LocalTSA issues self-contained tokens signed with an Ed25519 key derived
// from the master key.
type LocalTSA struct {
	identity   string
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	now        func() time.Time
}

// NewLocalTSA derives the signing key from masterKey.
func NewLocalTSA(masterKey []byte, identity string) *LocalTSA {
	seed := cryptoService.DeriveKey(masterKey, cryptoDomain.InfoTSASigning)
	privateKey := ed25519.NewKeyFromSeed(seed)
	return &LocalTSA{
		identity:   identity,
		privateKey: privateKey,
		publicKey:  privateKey.Public().(ed25519.PublicKey),
		now:        time.Now,
	}
}

// Name returns the TSA identity embedded in tokens.
func (l *LocalTSA) Name() string {
	return l.identity
}

// PublicKey returns the verification key.
func (l *LocalTSA) PublicKey() ed25519.PublicKey {
	return l.publicKey
}

// Timestamp binds hash and nonce to the current time.
func (l *LocalTSA) Timestamp(ctx context.Context, hash, nonce string) (*signingDomain.Timestamp, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTimeout, err.Error())
	}
	hash, err := NormalizeHash(hash)
	if err != nil {
		return nil, err
	}

	claims := signingDomain.TokenClaims{
		Version:   signingDomain.TokenVersion,
		Serial:    uuid.Must(uuid.NewV7()).String(),
		Hash:      hash,
		Algorithm: signingDomain.HashAlgorithm,
		Nonce:     nonce,
		IssuedAt:  l.now().UTC().Truncate(time.Microsecond),
		TSA:       l.identity,
	}
	body, err := json.Marshal(claims)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode token claims")
	}
	sig := ed25519.Sign(l.privateKey, body)

	var token bytes.Buffer
	token.WriteString(tokenEncoding.EncodeToString(body))
	token.WriteByte('.')
	token.WriteString(tokenEncoding.EncodeToString(sig))

	return &signingDomain.Timestamp{
		Token:     token.Bytes(),
		Serial:    claims.Serial,
		Hash:      hash,
		Algorithm: claims.Algorithm,
		IssuedAt:  claims.IssuedAt,
		TSA:       l.identity,
	}, nil
}

// Verify checks the token signature, the bound hash and the issue time.
func (l *LocalTSA) Verify(_ context.Context, token []byte, hash string) (*signingDomain.Verification, error) {
	claims, sigOK, err := l.decode(token)
	if err != nil {
		return nil, err
	}

	normalized, err := NormalizeHash(hash)
	if err != nil {
		return nil, err
	}

	result := &signingDomain.Verification{
		HashMatch: claims.Hash == normalized,
		TimeValid: !claims.IssuedAt.IsZero() && !claims.IssuedAt.After(l.now().Add(clockSkew)),
		IssuedAt:  claims.IssuedAt,
		Algorithm: claims.Algorithm,
		TSA:       claims.TSA,
		Serial:    claims.Serial,
	}
	result.Valid = sigOK && result.HashMatch && result.TimeValid && claims.TSA == l.identity
	return result, nil
}

func (l *LocalTSA) decode(token []byte) (*signingDomain.TokenClaims, bool, error) {
	body64, sig64, found := bytes.Cut(bytes.TrimSpace(token), []byte("."))
	if !found {
		return nil, false, signingDomain.ErrMalformedToken
	}
	body, err := tokenEncoding.DecodeString(string(body64))
	if err != nil {
		return nil, false, signingDomain.ErrMalformedToken
	}
	sig, err := tokenEncoding.DecodeString(string(sig64))
	if err != nil || len(sig) != ed25519.SignatureSize {
		return nil, false, signingDomain.ErrMalformedToken
	}

	var claims signingDomain.TokenClaims
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, false, signingDomain.ErrMalformedToken
	}
	return &claims, ed25519.Verify(l.publicKey, body, sig), nil
}
