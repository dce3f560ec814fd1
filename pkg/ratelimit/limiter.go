package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrLimiterUnavailable = errors.New("rate limiter backend unavailable")

// Result describes one admission decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits at most Limit attempts per key within a sliding window.
// Rejected attempts are not recorded, so a caller regains access as soon as
// the oldest admitted attempt leaves the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Config holds limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}
