// Package ratelimit provides fixed-window request limiting keyed by caller.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of a single Allow call
type Decision struct {
	Allowed bool
	Count   int
	Limit   int
	ResetAt time.Time
}

// Remaining returns how many requests are left in the current window
func (d Decision) Remaining() int {
	if r := d.Limit - d.Count; r > 0 {
		return r
	}
	return 0
}

// Limiter counts requests per key within a fixed window
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) Decision
	Close() error
}

// Config holds the limits applied to sensitive credential routes
type Config struct {
	// Limit is the number of requests allowed per key per window; 0 disables limiting
	Limit  int
	Window time.Duration
}

// DefaultConfig returns the default credential route limits
func DefaultConfig() Config {
	return Config{
		Limit:  10,
		Window: 15 * time.Minute,
	}
}
