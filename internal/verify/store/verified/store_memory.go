package verified

import (
	"context"
	"time"

	"rolegate/pkg/platform/sentinel"
	"rolegate/pkg/ttlcache"
)

// MemoryStore is the in-process implementation over the generic expiring map.
type MemoryStore struct {
	cache *ttlcache.Cache[string, string]
}

// NewMemory creates a memory store whose confirmations live for ttl.
func NewMemory(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: ttlcache.New[string, string](ttl)}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (string, error) {
	roleID, ok := s.cache.Get(userID)
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return roleID, nil
}

func (s *MemoryStore) Set(ctx context.Context, userID, roleID string) error {
	s.cache.Set(userID, roleID)
	return nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, userID string) error {
	s.cache.Invalidate(userID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
