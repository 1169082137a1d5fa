package http

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/httputil"
)

// staleLimiterAge is how long an idle limiter is kept before cleanup.
const staleLimiterAge = time.Hour

// limiterStore holds one token bucket per key.
type limiterStore[K comparable] struct {
	limiters sync.Map // K -> *limiterEntry
	rps      float64
	burst    int
}

type limiterEntry struct {
	limiter    *rate.Limiter
	mu         sync.Mutex
	lastAccess time.Time
}

func newLimiterStore[K comparable](rps float64, burst int) *limiterStore[K] {
	return &limiterStore[K]{rps: rps, burst: burst}
}

func (s *limiterStore[K]) get(key K) *rate.Limiter {
	now := time.Now()
	if val, ok := s.limiters.Load(key); ok {
		entry := val.(*limiterEntry)
		entry.mu.Lock()
		entry.lastAccess = now
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &limiterEntry{limiter: rate.NewLimiter(rate.Limit(s.rps), s.burst), lastAccess: now}
	actual, _ := s.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter
}

// sweep drops limiters idle since before threshold.
func (s *limiterStore[K]) sweep(threshold time.Time) {
	s.limiters.Range(func(key, value any) bool {
		entry := value.(*limiterEntry)
		entry.mu.Lock()
		stale := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()
		if stale {
			s.limiters.Delete(key)
		}
		return true
	})
}

func (s *limiterStore[K]) cleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now().Add(-staleLimiterAge))
		}
	}
}

// reject answers 429 with a Retry-After header.
func reject(c *gin.Context, limiter *rate.Limiter, logger *slog.Logger, attrs ...any) {
	reservation := limiter.Reserve()
	retryAfter := int(reservation.Delay().Seconds()) + 1
	reservation.Cancel()

	logger.Debug("rate limit exceeded", append(attrs, slog.Int("retry_after", retryAfter))...)

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	httputil.AbortWithError(c, apperrors.ErrRateLimited, logger)
}

// RateLimitMiddleware limits authenticated requests per operator. It must run
// after AuthenticationMiddleware.
func RateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newLimiterStore[uuid.UUID](rps, burst)
	go store.cleanupStale(ctx, 5*time.Minute)

	return func(c *gin.Context) {
		operator, ok := GetOperator(c.Request.Context())
		if !ok {
			logger.Error("rate limit middleware: no authenticated operator in context")
			httputil.AbortWithError(c, apperrors.ErrUnauthorized, logger)
			return
		}

		limiter := store.get(operator.ID)
		if !limiter.Allow() {
			reject(c, limiter, logger, slog.String("operator_id", operator.ID.String()))
			return
		}
		c.Next()
	}
}

// IPRateLimitMiddleware limits unauthenticated requests per client address.
// It guards the token endpoint and the captive portal.
func IPRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := newLimiterStore[string](rps, burst)
	go store.cleanupStale(ctx, 5*time.Minute)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limiter := store.get(clientIP)
		if !limiter.Allow() {
			reject(c, limiter, logger, slog.String("client_ip", clientIP))
			return
		}
		c.Next()
	}
}
