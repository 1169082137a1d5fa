package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	apperrors "github.com/allisson/trustlog/internal/errors"
	signingDomain "github.com/allisson/trustlog/internal/signing/domain"
)

// maxResponseBytes bounds what is read from a remote TSA.
const maxResponseBytes = 1 << 20

type timestampRequest struct {
	Hash  string `json:"hash"`
	Nonce string `json:"nonce,omitempty"`
}

type timestampResponse struct {
	Status         string    `json:"status"`
	TimestampToken string    `json:"timestamp_token"`
	Timestamp      time.Time `json:"timestamp"`
	Hash           string    `json:"hash"`
	Algorithm      string    `json:"algorithm"`
	Serial         string    `json:"serial"`
	TSA            string    `json:"tsa"`
}

type verifyRequest struct {
	TimestampToken string `json:"timestamp_token"`
	Hash           string `json:"hash"`
}

type verifyResponse struct {
	Status    string    `json:"status"`
	Valid     bool      `json:"valid"`
	HashMatch bool      `json:"hash_match"`
	TimeValid bool      `json:"time_valid"`
	Timestamp time.Time `json:"timestamp"`
	Algorithm string    `json:"algorithm"`
	TSA       string    `json:"tsa"`
	Serial    string    `json:"serial"`
}

// RemoteTSA calls a TSA over HTTP behind a circuit breaker.
type RemoteTSA struct {
	baseURL    string
	credential string
	timeout    time.Duration
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// NewRemoteTSA creates a client for the TSA at baseURL. Every request is
// bounded by timeout.
func NewRemoteTSA(baseURL, credential string, timeout time.Duration, logger *slog.Logger) *RemoteTSA {
	baseURL = strings.TrimRight(baseURL, "/")
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tsa:" + baseURL,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("tsa circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return &RemoteTSA{
		baseURL:    baseURL,
		credential: credential,
		timeout:    timeout,
		client:     &http.Client{},
		breaker:    breaker,
		logger:     logger,
	}
}

// Name returns the TSA base URL.
func (r *RemoteTSA) Name() string {
	return r.baseURL
}

// Timestamp requests a token for hash.
func (r *RemoteTSA) Timestamp(ctx context.Context, hash, nonce string) (*signingDomain.Timestamp, error) {
	hash, err := NormalizeHash(hash)
	if err != nil {
		return nil, err
	}

	body, err := r.post(ctx, "/tsa/timestamp", timestampRequest{Hash: hash, Nonce: nonce})
	if err != nil {
		return nil, err
	}

	var resp timestampResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProtocol, "invalid timestamp response")
	}
	if resp.Status != "success" || resp.TimestampToken == "" {
		return nil, apperrors.Wrapf(apperrors.ErrProtocol, "timestamp status %q", resp.Status)
	}
	if !strings.EqualFold(resp.Hash, hash) {
		return nil, apperrors.Wrap(apperrors.ErrProtocol, "timestamp response bound a different hash")
	}

	tsa := resp.TSA
	if tsa == "" {
		tsa = r.baseURL
	}
	return &signingDomain.Timestamp{
		Token:     []byte(resp.TimestampToken),
		Serial:    resp.Serial,
		Hash:      hash,
		Algorithm: resp.Algorithm,
		IssuedAt:  resp.Timestamp.UTC(),
		TSA:       tsa,
	}, nil
}

// Verify asks the remote TSA to check token against hash.
func (r *RemoteTSA) Verify(ctx context.Context, token []byte, hash string) (*signingDomain.Verification, error) {
	body, err := r.post(ctx, "/tsa/verify", verifyRequest{TimestampToken: string(token), Hash: hash})
	if err != nil {
		return nil, err
	}

	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProtocol, "invalid verify response")
	}
	return &signingDomain.Verification{
		Valid:     resp.Valid,
		HashMatch: resp.HashMatch,
		TimeValid: resp.TimeValid,
		IssuedAt:  resp.Timestamp.UTC(),
		Algorithm: resp.Algorithm,
		TSA:       resp.TSA,
		Serial:    resp.Serial,
	}, nil
}

func (r *RemoteTSA) post(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode tsa request")
	}

	body, err := r.breaker.Execute(func() ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(raw))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrProtocol, err.Error())
		}
		req.Header.Set("Content-Type", "application/json")
		if r.credential != "" {
			req.Header.Set("Authorization", "Bearer "+r.credential)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, apperrors.Wrap(apperrors.ErrTimeout, "tsa request timed out")
			}
			return nil, apperrors.Wrap(apperrors.ErrUnreachable, err.Error())
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrProtocol, err.Error())
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, apperrors.Wrap(apperrors.ErrProtocol, fmt.Sprintf("tsa returned status %d", resp.StatusCode))
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperrors.Wrap(apperrors.ErrUnreachable, err.Error())
	}
	return body, err
}
