package tracker

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"invitetrack/entity"
	"invitetrack/internal/database"
)

type fakePlatform struct {
	invites map[string][]*entity.Invite
	err     error
	calls   int
}

func (p *fakePlatform) GuildInvites(_ context.Context, guildID string) ([]*entity.Invite, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.invites[guildID], nil
}

func (p *fakePlatform) set(guildID string, invites ...*entity.Invite) {
	if p.invites == nil {
		p.invites = make(map[string][]*entity.Invite)
	}
	p.invites[guildID] = invites
}

func invite(code, guildID, inviterID string, uses, maxUses int) *entity.Invite {
	return &entity.Invite{
		Code:      code,
		GuildID:   guildID,
		InviterID: inviterID,
		Uses:      uses,
		MaxUses:   maxUses,
		Active:    true,
	}
}

func newTestTracker(t *testing.T) (*Tracker, *fakePlatform, *database.Memory) {
	t.Helper()
	store := database.NewMemory()
	platform := &fakePlatform{}
	trk := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	trk.SetPlatform(platform)
	return trk, platform, store
}

func TestCacheInvitesEstablishesBaseline(t *testing.T) {
	ctx := context.Background()
	trk, platform, store := newTestTracker(t)
	platform.set("g1", invite("alpha", "g1", "u1", 2, 0), invite("beta", "g1", "u2", 0, 1))

	require.NoError(t, trk.CacheInvites(ctx, "g1"))

	cached := trk.cache.Guild("g1")
	require.Len(t, cached, 2)
	require.Equal(t, 2, cached["alpha"].Uses)

	stored := store.InviteByCode("alpha")
	require.NotNil(t, stored)
	require.Equal(t, 2, stored.Uses)

	// snapshot invite counts written for both inviters
	stats, err := store.UserStats(ctx, "g1", "u1")
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalInvites)
	require.Zero(t, stats.TotalUses)
}

func TestCacheInvitesPermissionDenied(t *testing.T) {
	ctx := context.Background()
	trk, platform, _ := newTestTracker(t)
	platform.set("g1", invite("alpha", "g1", "u1", 2, 0))
	require.NoError(t, trk.CacheInvites(ctx, "g1"))

	// a failed refresh leaves the stale snapshot in place
	platform.err = ErrPermissionDenied
	err := trk.CacheInvites(ctx, "g1")
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.Len(t, trk.cache.Guild("g1"), 1)
}

func TestMemberJoinCreditsIncrementedInvite(t *testing.T) {
	ctx := context.Background()
	trk, platform, store := newTestTracker(t)
	platform.set("g1", invite("alpha", "g1", "u1", 2, 0))
	require.NoError(t, trk.CacheInvites(ctx, "g1"))

	platform.set("g1", invite("alpha", "g1", "u1", 3, 0))
	trk.OnMemberJoin(ctx, &entity.Member{UserID: "newbie", GuildID: "g1"})

	stats, err := store.UserStats(ctx, "g1", "u1")
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalUses)

	daily, err := store.DailyLeaderboard(ctx, "g1", 7, 10)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	require.Equal(t, "u1", daily[0].UserID)
	require.Equal(t, 1, daily[0].TotalUses)

	require.Equal(t, 3, trk.cache.Guild("g1")["alpha"].Uses)
	require.Equal(t, 3, store.InviteByCode("alpha").Uses)
}

func TestMemberJoinCreditsVanishedSingleUseInvite(t *testing.T) {
	ctx := context.Background()
	trk, platform, store := newTestTracker(t)
	platform.set("g1", invite("once", "g1", "v1", 0, 1), invite("alpha", "g1", "u1", 5, 0))
	require.NoError(t, trk.CacheInvites(ctx, "g1"))

	// the platform deletes a maxed-out single-use invite before its
	// incremented count can be observed
	platform.set("g1", invite("alpha", "g1", "u1", 5, 0))
	trk.OnMemberJoin(ctx, &entity.Member{UserID: "newbie", GuildID: "g1"})

	stats, err := store.UserStats(ctx, "g1", "v1")
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalUses)
	require.NotContains(t, trk.cache.Guild("g1"), "once")
}

func TestMemberJoinNoChangeCreditsNobody(t *testing.T) {
	ctx := context.Background()
	trk, platform, store := newTestTracker(t)
	platform.set("g1", invite("alpha", "g1", "u1", 2, 0), invite("beta", "g1", "u2", 4, 10))
	require.NoError(t, trk.CacheInvites(ctx, "g1"))

	trk.OnMemberJoin(ctx, &entity.Member{UserID: "newbie", GuildID: "g1"})

	for _, userID := range []string{"u1", "u2"} {
		stats, err := store.UserStats(ctx, "g1", userID)
		require.NoError(t, err)
		require.Zero(t, stats.TotalUses, "user %s must not be credited", userID)
	}
}

func TestMemberJoinVanishedMultiUseInviteNotCredited(t *testing.T) {
	ctx := context.Background()
	trk, platform, store := newTestTracker(t)
	platform.set("g1", invite("multi", "g1", "u1", 3, 10))
	require.NoError(t, trk.CacheInvites(ctx, "g1"))

	// only single-use invites count as consumed when they vanish
	platform.set("g1")
	trk.OnMemberJoin(ctx, &entity.Member{UserID: "newbie", GuildID: "g1"})

	stats, err := store.UserStats(ctx, "g1", "u1")
	require.NoError(t, err)
	require.Zero(t, stats.TotalUses)
}

func TestMemberJoinInviterlessInviteCreditsNobody(t *testing.T) {
	ctx := context.Background()
	trk, platform, store := newTestTracker(t)
	platform.set("g1", invite("vanity", "g1", "", 7, 0))
	require.NoError(t, trk.CacheInvites(ctx, "g1"))

	platform.set("g1", invite("vanity", "g1", "", 8, 0))
	trk.OnMemberJoin(ctx, &entity.Member{UserID: "newbie", GuildID: "g1"})

	entries, err := store.Leaderboard(ctx, "g1", 10)
	require.NoError(t, err)
	require.Empty(t, entries)
	// the cache still absorbs the new count
	require.Equal(t, 8, trk.cache.Guild("g1")["vanity"].Uses)
}

func TestMemberJoinPermissionDeniedKeepsState(t *testing.T) {
	ctx := context.Background()
	trk, platform, store := newTestTracker(t)
	platform.set("g1", invite("alpha", "g1", "u1", 2, 0))
	require.NoError(t, trk.CacheInvites(ctx, "g1"))

	platform.err = ErrPermissionDenied
	trk.OnMemberJoin(ctx, &entity.Member{UserID: "newbie", GuildID: "g1"})

	stats, err := store.UserStats(ctx, "g1", "u1")
	require.NoError(t, err)
	require.Zero(t, stats.TotalUses)
	require.Equal(t, 2, trk.cache.Guild("g1")["alpha"].Uses)
}

func TestInviteCreateAndDeleteAdjustSnapshotCounts(t *testing.T) {
	ctx := context.Background()
	trk, platform, store := newTestTracker(t)
	platform.set("g1")
	require.NoError(t, trk.CacheInvites(ctx, "g1"))

	trk.OnInviteCreate(ctx, invite("one", "g1", "u1", 0, 0))
	trk.OnInviteCreate(ctx, invite("two", "g1", "u1", 0, 0))
	stats, err := store.UserStats(ctx, "g1", "u1")
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalInvites)

	// the created-invite count is a snapshot and may decrease
	trk.OnInviteDelete(ctx, "g1", "two")
	stats, err = store.UserStats(ctx, "g1", "u1")
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalInvites)

	stored := store.InviteByCode("two")
	require.NotNil(t, stored, "deleted invites are kept for history")
	require.False(t, stored.Active)
}

func TestUpdateInviteCountsCachesUnknownGuild(t *testing.T) {
	ctx := context.Background()
	trk, platform, _ := newTestTracker(t)
	platform.set("g1", invite("alpha", "g1", "u1", 0, 0))

	trk.UpdateInviteCounts(ctx, "g1")
	require.True(t, trk.cache.Has("g1"))
}

func TestInviteStatsDegradesToZeros(t *testing.T) {
	trk, _, _ := newTestTracker(t)
	created, used := trk.InviteStats(context.Background(), "g1", "ghost")
	require.Zero(t, created)
	require.Zero(t, used)
}

func TestReadyGate(t *testing.T) {
	trk, _, _ := newTestTracker(t)
	require.False(t, trk.Ready())
	trk.SetReady()
	require.True(t, trk.Ready())
}
