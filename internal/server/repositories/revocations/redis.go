package revocations

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gophdiary:revoked:"

// RedisRepository keeps one key per revoked token and lets Redis expire it
// together with the token.
type RedisRepository struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisRepository(client redis.Cmdable) *RedisRepository {
	return &RedisRepository{client: client, now: time.Now}
}

func (r *RedisRepository) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, redisKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n > 0, nil
}
