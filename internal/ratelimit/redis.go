package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "coursehub:ratelimit:"

// RedisLimiter shares counts across replicas through Redis.
// Redis errors fail open so an outage never locks users out.
type RedisLimiter struct {
	client  *redis.Client
	logger  *slog.Logger
	timeout time.Duration
	owned   bool
}

// NewRedisLimiter creates a limiter over an existing client. Close leaves the client open.
func NewRedisLimiter(client *redis.Client, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:  client,
		logger:  logger,
		timeout: 250 * time.Millisecond,
	}
}

// NewRedisLimiterFromURL dials its own client, which Close will release
func NewRedisLimiterFromURL(ctx context.Context, url string, logger *slog.Logger) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	l := NewRedisLimiter(client, logger)
	l.owned = true
	return l, nil
}

// Ensure RedisLimiter implements Limiter
var _ Limiter = (*RedisLimiter)(nil)

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, win time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if win <= 0 {
		win = time.Minute
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	redisKey := redisKeyPrefix + key
	var incr *redis.IntCmd
	var ttlCmd *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		ttlCmd = pipe.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		l.logError("incr", err)
		return Decision{Allowed: true, Limit: limit}
	}
	count := incr.Val()

	// A counter without an expiry would never reset, whether it is new or
	// was left behind by an earlier failed EXPIRE.
	ttl := ttlCmd.Val()
	if ttl < 0 {
		if err := l.client.Expire(ctx, redisKey, win).Err(); err != nil {
			l.logError("expire", err)
		}
		ttl = win
	}

	return Decision{
		Allowed: int(count) <= limit,
		Count:   int(count),
		Limit:   limit,
		ResetAt: time.Now().Add(ttl),
	}
}

// Close releases the client if this limiter dialed it
func (l *RedisLimiter) Close() error {
	if l.owned {
		return l.client.Close()
	}
	return nil
}

func (l *RedisLimiter) logError(op string, err error) {
	l.logger.Error("redis rate limiter error", slog.String("op", op), slog.Any("error", err))
}
