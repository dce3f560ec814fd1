package ratelimit

import (
	"context"
	"sync"
	"time"
)

const maxTrackedKeys = 10000

// MemoryLimiter is the in-process sliding-window limiter used when Redis is
// not configured. Its state is local to one server instance.
type MemoryLimiter struct {
	config Config
	now    func() time.Time

	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		config:   cfg,
		now:      time.Now,
		attempts: make(map[string][]time.Time),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.config.Window)
	if len(l.attempts) > maxTrackedKeys {
		l.pruneLocked(cutoff)
	}

	kept := l.attempts[key][:0]
	for _, at := range l.attempts[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	res := Result{Limit: l.config.MaxAttempts}
	if len(kept) >= l.config.MaxAttempts {
		l.attempts[key] = kept
		res.RetryAfter = kept[0].Add(l.config.Window).Sub(now)
		return res, nil
	}

	kept = append(kept, now)
	l.attempts[key] = kept
	res.Allowed = true
	res.Remaining = l.config.MaxAttempts - len(kept)
	return res, nil
}

// Prune drops keys whose attempts have all left the window.
func (l *MemoryLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now().Add(-l.config.Window))
}

func (l *MemoryLimiter) pruneLocked(cutoff time.Time) {
	for key, list := range l.attempts {
		if len(list) == 0 || !list[len(list)-1].After(cutoff) {
			delete(l.attempts, key)
		}
	}
}
