package verified

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rolegate/pkg/platform/sentinel"
)

const verifiedKeyPrefix = "verified:"

// RedisStore shares confirmed verifications across bot instances; TTL
// enforcement is delegated to redis key expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a redis-backed verified store. The client lifecycle is
// managed by the caller.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, userID string) (string, error) {
	roleID, err := s.client.Get(ctx, verifiedKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("verified get: %w", err)
	}
	return roleID, nil
}

func (s *RedisStore) Set(ctx context.Context, userID, roleID string) error {
	if err := s.client.Set(ctx, verifiedKeyPrefix+userID, roleID, s.ttl).Err(); err != nil {
		return fmt.Errorf("verified set: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, verifiedKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("verified invalidate: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
