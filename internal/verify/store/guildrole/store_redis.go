package guildrole

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rolegate/pkg/platform/sentinel"
)

const guildRoleKeyPrefix = "guildrole:"

// RedisStore is the redis-backed implementation for deployments running more
// than one bot instance; TTL enforcement is delegated to redis key expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a redis-backed guild role store. The client lifecycle
// is managed by the caller.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, guildID string) (string, error) {
	roleID, err := s.client.Get(ctx, guildRoleKeyPrefix+guildID).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("guild role get: %w", err)
	}
	return roleID, nil
}

func (s *RedisStore) Set(ctx context.Context, guildID, roleID string) error {
	if err := s.client.Set(ctx, guildRoleKeyPrefix+guildID, roleID, s.ttl).Err(); err != nil {
		return fmt.Errorf("guild role set: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, guildID string) error {
	if err := s.client.Del(ctx, guildRoleKeyPrefix+guildID).Err(); err != nil {
		return fmt.Errorf("guild role invalidate: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
