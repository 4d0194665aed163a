package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// ResetIndexGrace is how long a reset-code index entry outlives the
	// challenge expiry. Within the grace window an expired code is still
	// resolvable and reported as expired rather than invalid.
	ResetIndexGrace time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:             "redis://localhost:6379",
		PoolSize:        10,
		MinIdleConns:    2,
		ResetIndexGrace: 24 * time.Hour,
	}
}
