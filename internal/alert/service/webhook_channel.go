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
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/retry"
)

// WebhookChannel POSTs alert payloads as JSON. Each target URL has its own
// circuit breaker.
type WebhookChannel struct {
	client     *http.Client
	defaultURL string
	logger     *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

// NewWebhookChannel creates a webhook channel. defaultURL is used by rules
// that do not name a target.
func NewWebhookChannel(defaultURL string, timeout time.Duration, logger *slog.Logger) *WebhookChannel {
	return &WebhookChannel{
		client:     &http.Client{Timeout: timeout},
		defaultURL: defaultURL,
		logger:     logger.With("component", "alert-webhook-channel"),
		breakers:   make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// Kind returns ChannelWebhook.
func (c *WebhookChannel) Kind() alertDomain.ChannelKind {
	return alertDomain.ChannelWebhook
}

func (c *WebhookChannel) breaker(url string) *gobreaker.CircuitBreaker[struct{}] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[url]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "webhook " + url,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("webhook circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	c.breakers[url] = cb
	return cb
}

// Deliver sends the payload. A 2xx answer counts as delivered; 4xx answers
// are not retried.
func (c *WebhookChannel) Deliver(
	ctx context.Context,
	target string,
	payload *alertDomain.Payload,
) (alertDomain.DeliveryState, error) {
	url := target
	if url == "" {
		url = c.defaultURL
	}
	if url == "" {
		return alertDomain.DeliveryFailed, retry.Permanent(
			apperrors.Wrap(alertDomain.ErrChannelUnavailable, "no webhook url configured"),
		)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return alertDomain.DeliveryFailed, retry.Permanent(err)
	}

	_, err = c.breaker(url).Execute(func() (struct{}, error) {
		return struct{}{}, c.post(ctx, url, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return alertDomain.DeliveryFailed, apperrors.Wrap(alertDomain.ErrChannelUnavailable, err.Error())
		}
		return alertDomain.DeliveryFailed, err
	}
	return alertDomain.DeliveryDelivered, nil
}

func (c *WebhookChannel) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "trustlog-alerts/1")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.Wrap(apperrors.ErrTimeout, "webhook timed out")
		}
		return apperrors.Wrap(apperrors.ErrUnreachable, err.Error())
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return retry.Permanent(apperrors.Wrapf(apperrors.ErrProtocol, "webhook answered %d", resp.StatusCode))
	}
	return apperrors.Wrap(apperrors.ErrUnreachable, fmt.Sprintf("webhook answered %d", resp.StatusCode))
}
