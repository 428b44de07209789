package guildrole

import (
	"context"
	"time"

	"rolegate/pkg/platform/sentinel"
	"rolegate/pkg/ttlcache"
)

// MemoryStore is the in-process implementation, a thin wrapper over the
// generic expiring map. Suitable for single-instance deployments.
type MemoryStore struct {
	cache *ttlcache.Cache[string, string]
}

// NewMemory creates a memory store whose entries live for ttl.
func NewMemory(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: ttlcache.New[string, string](ttl)}
}

func (s *MemoryStore) Get(ctx context.Context, guildID string) (string, error) {
	roleID, ok := s.cache.Get(guildID)
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return roleID, nil
}

func (s *MemoryStore) Set(ctx context.Context, guildID, roleID string) error {
	s.cache.Set(guildID, roleID)
	return nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, guildID string) error {
	s.cache.Invalidate(guildID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
