package httpx

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/logging"
	redis "github.com/redis/go-redis/v9"
)

const (
	redisRateKeyPrefix = "gophdiary:ratelimit:"
	redisRateTimeout   = 250 * time.Millisecond
)

type redisRateLimiter struct {
	client redis.Cmdable
	logger logging.Logger
	clock  func() time.Time
}

// NewRedisRateLimiter shares counters between replicas through Redis. Redis
// errors let the request through. The client is owned by the caller; a nil
// clock means time.Now.
func NewRedisRateLimiter(client redis.Cmdable, logger logging.Logger, clock func() time.Time) RateLimiter {
	if clock == nil {
		clock = time.Now
	}
	return &redisRateLimiter{client: client, logger: logger, clock: clock}
}

func (l *redisRateLimiter) Take(ctx context.Context, key string, rule rateRule) quota {
	if rule.limit <= 0 {
		return unlimited()
	}
	window := rule.windowOrDefault()
	ctx, cancel := context.WithTimeout(ctx, redisRateTimeout)
	defer cancel()

	redisKey := redisRateKeyPrefix + key
	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	if _, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pttl = pipe.PTTL(ctx, redisKey)
		return nil
	}); err != nil {
		l.warn(ctx, "incr", err)
		return unlimited()
	}

	// A counter without an expiry would block the key forever, whether it
	// was just created or an earlier PEXPIRE was lost.
	ttl := pttl.Val()
	if ttl <= 0 {
		if err := l.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			l.warn(ctx, "pexpire", err)
		}
		ttl = window
	}
	now := l.clock()
	return quota{used: int(incr.Val()), resetAt: now.Add(ttl), resetIn: ttl}
}

func (l *redisRateLimiter) Close() {}

func (l *redisRateLimiter) warn(ctx context.Context, op string, err error) {
	if l.logger != nil {
		l.logger.Error(ctx, "redis rate limiter error", "op", op, "error", err)
	}
}
