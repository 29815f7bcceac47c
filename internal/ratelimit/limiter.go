// Package ratelimit provides per-integration request throttling for the
// public webhook ingestion routes.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

const (
	defaultRatePerSecond = 100
	defaultBurst         = 200
)

// IntegrationLimiter hands out one token-bucket limiter per integration_id,
// created lazily on first use and reused for the life of the process.
type IntegrationLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	burst    int
}

func NewIntegrationLimiter() *IntegrationLimiter {
	return &IntegrationLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        rate.Limit(defaultRatePerSecond),
		burst:    defaultBurst,
	}
}

// Allow reports whether a request for the given integration may proceed.
func (l *IntegrationLimiter) Allow(integrationID string) bool {
	return l.get(integrationID).Allow()
}

func (l *IntegrationLimiter) get(integrationID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[integrationID]
	if !ok {
		lim = rate.NewLimiter(l.r, l.burst)
		l.limiters[integrationID] = lim
	}
	return lim
}
