// Package retry runs transient operations with bounded exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded retry schedule.
type Policy struct {
	Attempts            int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	RandomizationFactor float64
}

// Default is used for storage writes and outbound calls: 3 attempts, 200ms base, 2s cap.
var Default = Policy{
	Attempts:            3,
	InitialInterval:     200 * time.Millisecond,
	MaxInterval:         2 * time.Second,
	RandomizationFactor: 0.5,
}

// Do runs op until it succeeds, returns a permanent error, the attempts are
// exhausted or ctx is done. The last error is returned unwrapped.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.RandomizationFactor = p.RandomizationFactor
	b.Multiplier = 2
	b.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		return op(ctx)
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.Attempts-1)), ctx))
}

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
