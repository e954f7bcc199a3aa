// Package ratelimit provides an optional politeness limiter for the crawler.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles requests against the single crawl target. A zero rate
// disables throttling entirely, preserving the back-to-back sequential
// request behavior.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter. requestsPerSecond <= 0 means unlimited.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if requestsPerSecond <= 0 {
		return &Limiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Wait blocks until a request is allowed or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.limiter == nil {
		return ctx.Err()
	}
	return l.limiter.Wait(ctx)
}

// Allow checks if a request is allowed without blocking.
func (l *Limiter) Allow() bool {
	if l.limiter == nil {
		return true
	}
	return l.limiter.Allow()
}

// SetRate updates the rate limit.
func (l *Limiter) SetRate(requestsPerSecond float64, burst int) {
	if requestsPerSecond <= 0 {
		l.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	if l.limiter == nil {
		l.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
		return
	}
	l.limiter.SetLimit(rate.Limit(requestsPerSecond))
	l.limiter.SetBurst(burst)
}
