//go:build integration

package guildrole_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rolegate/internal/verify/store/guildrole"
	"rolegate/pkg/platform/sentinel"
	"rolegate/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *guildrole.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = guildrole.NewRedis(s.redis.Client, time.Minute)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "guild-1", "role-1"))

	roleID, err := s.store.Get(ctx, "guild-1")
	s.Require().NoError(err)
	s.Equal("role-1", roleID)
}

func (s *RedisStoreSuite) TestMissReturnsNotFound() {
	_, err := s.store.Get(context.Background(), "guild-unknown")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestInvalidate() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "guild-1", "role-1"))
	s.Require().NoError(s.store.Invalidate(ctx, "guild-1"))

	_, err := s.store.Get(ctx, "guild-1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestEntryExpiresViaRedisTTL() {
	ctx := context.Background()
	store := guildrole.NewRedis(s.redis.Client, time.Second)

	s.Require().NoError(store.Set(ctx, "guild-1", "role-1"))

	s.Require().Eventually(func() bool {
		_, err := store.Get(ctx, "guild-1")
		return err != nil
	}, 3*time.Second, 100*time.Millisecond)
}
