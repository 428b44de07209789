package guildrole

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rolegate/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory(time.Minute)
}

func (s *MemoryStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "guild-1", "role-1"))

	roleID, err := s.store.Get(ctx, "guild-1")
	s.Require().NoError(err)
	s.Equal("role-1", roleID)
}

func (s *MemoryStoreSuite) TestMissReturnsNotFound() {
	_, err := s.store.Get(context.Background(), "guild-unknown")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestInvalidateRemovesFreshEntry() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "guild-1", "role-1"))
	s.Require().NoError(s.store.Invalidate(ctx, "guild-1"))

	_, err := s.store.Get(ctx, "guild-1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestExpiredEntryReadsAsAbsent() {
	ctx := context.Background()
	store := NewMemory(10 * time.Millisecond)

	s.Require().NoError(store.Set(ctx, "guild-1", "role-1"))
	time.Sleep(25 * time.Millisecond)

	_, err := store.Get(ctx, "guild-1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestSetOverwrites() {
	ctx := context.Background()

	s.Require().NoError(s.store.Set(ctx, "guild-1", "role-old"))
	s.Require().NoError(s.store.Set(ctx, "guild-1", "role-new"))

	roleID, err := s.store.Get(ctx, "guild-1")
	s.Require().NoError(err)
	s.Equal("role-new", roleID)
}
