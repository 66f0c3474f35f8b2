package tracker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"invitetrack/entity"
)

func TestSnapshotCacheReplaceReturnsPrevious(t *testing.T) {
	cache := newSnapshotCache()

	prev := cache.Replace("g1", map[string]*entity.Invite{"alpha": {Code: "alpha"}})
	require.Nil(t, prev, "never-cached guild has no previous snapshot")

	prev = cache.Replace("g1", map[string]*entity.Invite{"beta": {Code: "beta"}})
	require.Len(t, prev, 1)
	require.Contains(t, prev, "alpha")

	current := cache.Guild("g1")
	require.Len(t, current, 1)
	require.Contains(t, current, "beta")
}

func TestSnapshotCacheIncrementalUpdates(t *testing.T) {
	cache := newSnapshotCache()

	cache.UpsertOne("g1", &entity.Invite{Code: "alpha", Uses: 1})
	cache.UpsertOne("g1", &entity.Invite{Code: "alpha", Uses: 2})
	require.Equal(t, 2, cache.Guild("g1")["alpha"].Uses)

	cache.RemoveOne("g1", "alpha")
	require.Empty(t, cache.Guild("g1"))

	// removing from an unknown guild is a no-op
	cache.RemoveOne("g2", "alpha")
	require.False(t, cache.Has("g2"))
}

func TestSnapshotCacheGuildsIndependent(t *testing.T) {
	cache := newSnapshotCache()
	cache.UpsertOne("g1", &entity.Invite{Code: "alpha"})
	cache.UpsertOne("g2", &entity.Invite{Code: "beta"})

	cache.Replace("g1", map[string]*entity.Invite{})
	require.Empty(t, cache.Guild("g1"))
	require.Len(t, cache.Guild("g2"), 1)
}
