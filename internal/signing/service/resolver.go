package service

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Resolver picks the TSA of a tenant. Tenants without a TSA URL use the
// default authority.
type Resolver struct {
	fallback   TSAClient
	credential string
	timeout    time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	remotes map[string]TSAClient
}

// NewResolver creates a resolver around the default authority.
func NewResolver(fallback TSAClient, credential string, timeout time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		fallback:   fallback,
		credential: credential,
		timeout:    timeout,
		logger:     logger,
		remotes:    make(map[string]TSAClient),
	}
}

// ForURL returns the client for url, creating it on first use.
func (r *Resolver) ForURL(url string) TSAClient {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" || url == r.fallback.Name() {
		return r.fallback
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.remotes[url]; ok {
		return c
	}
	c := NewRemoteTSA(url, r.credential, r.timeout, r.logger)
	r.remotes[url] = c
	return c
}

// ForName returns the client that issued tokens under name.
func (r *Resolver) ForName(name string) TSAClient {
	if name == "" {
		return r.fallback
	}
	return r.ForURL(name)
}

// Default returns the default authority.
func (r *Resolver) Default() TSAClient {
	return r.fallback
}
