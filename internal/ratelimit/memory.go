package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/coursehub/internal/dependencies/clock"
)

const sweepInterval = 5 * time.Minute

type window struct {
	count int
	end   time.Time
}

// MemoryLimiter is an in-process Limiter. Counts are not shared between replicas.
type MemoryLimiter struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]window

	stopCh chan struct{}
	once   sync.Once
}

// NewMemoryLimiter creates a MemoryLimiter and starts its sweeper
func NewMemoryLimiter(clk clock.Clock) *MemoryLimiter {
	l := &MemoryLimiter{
		clock:   clk,
		entries: make(map[string]window),
		stopCh:  make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Ensure MemoryLimiter implements Limiter
var _ Limiter = (*MemoryLimiter)(nil)

func (l *MemoryLimiter) Allow(ctx context.Context, key string, limit int, win time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if win <= 0 {
		win = time.Minute
	}
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.entries[key]
	if !ok || !now.Before(w.end) {
		w = window{count: 0, end: now.Add(win)}
	}
	w.count++
	l.entries[key] = w

	return Decision{
		Allowed: w.count <= limit,
		Count:   w.count,
		Limit:   limit,
		ResetAt: w.end,
	}
}

func (l *MemoryLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopCh:
			return
		}
	}
}

// sweep drops windows that have closed
func (l *MemoryLimiter) sweep() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.entries {
		if !now.Before(w.end) {
			delete(l.entries, key)
		}
	}
}

// Close stops the sweeper
func (l *MemoryLimiter) Close() error {
	l.once.Do(func() {
		close(l.stopCh)
	})
	return nil
}
