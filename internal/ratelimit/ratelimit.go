// Package ratelimit enforces a fixed-window request quota per client.
//
// The in-memory limiter serves single-instance deployments and tests;
// the redis limiter coordinates the window across instances. Both speak
// the same Limiter interface, and limiter malfunctions fail open so a
// broken backend never takes traffic down with it.
package ratelimit

import (
	"context"
	"time"
)

const (
	// DefaultWindow and DefaultLimit match the registry quota:
	// 100 requests per client address per 15 minutes.
	DefaultWindow = 15 * time.Minute
	DefaultLimit  = 100
)

// Result is the outcome of one quota check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfterSeconds is the whole number of seconds until the window
// resets, never less than 1.
func (r Result) RetryAfterSeconds() int {
	secs := int(time.Until(r.ResetAt).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter decides whether a request identified by key should proceed.
// Implementations must be safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
	Close() error
}

// NoopLimiter permits every request. Used when rate limiting is disabled.
type NoopLimiter struct{}

func (NoopLimiter) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true, Remaining: 1, ResetAt: time.Now()}, nil
}

func (NoopLimiter) Close() error { return nil }
