// Package ratelimit provides a Redis-backed fixed-window rate limiter.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of redis.Cmdable the limiter needs.
type RedisClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Limiter is a fixed-window rate limiter keyed by an arbitrary string.
// It fails open: if Redis is unreachable the request is allowed and the
// error is logged, so a cache outage never locks users out.
type Limiter struct {
	client RedisClient
	limit  int64
	window time.Duration
	prefix string
	logger *slog.Logger
}

// NewLimiter creates a limiter allowing limit events per window under the
// given key prefix.
func NewLimiter(client RedisClient, prefix string, limit int64, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
		logger: logger,
	}
}

// Allow records one event for the key and reports whether it is still
// within the window's limit.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logger.WarnContext(ctx, "rate limiter unavailable, allowing request",
			slog.String("key", redisKey),
			slog.String("error", err.Error()),
		)
		return true
	}

	// First event in the window starts the expiry clock.
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.logger.WarnContext(ctx, "failed to set rate limit window expiry",
				slog.String("key", redisKey),
				slog.String("error", err.Error()),
			)
		}
	}

	return count <= l.limit
}
