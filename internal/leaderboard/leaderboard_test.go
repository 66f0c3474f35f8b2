package leaderboard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"invitetrack/entity"
)

type fakeStore struct {
	entries []*entity.LeaderboardEntry
	stats   map[string]*entity.MemberStats
	err     error
}

func (s *fakeStore) Leaderboard(_ context.Context, _ string, limit int) ([]*entity.LeaderboardEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.entries) > limit {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func (s *fakeStore) DailyLeaderboard(_ context.Context, _ string, _, limit int) ([]*entity.LeaderboardEntry, error) {
	return s.Leaderboard(nil, "", limit)
}

func (s *fakeStore) UserStats(_ context.Context, guildID, userID string) (*entity.MemberStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	if stats, ok := s.stats[userID]; ok {
		return stats, nil
	}
	return &entity.MemberStats{UserID: userID, GuildID: guildID}, nil
}

type fakeResolver struct {
	names map[string]string
}

func (r *fakeResolver) DisplayName(_, userID string) (string, error) {
	if name, ok := r.names[userID]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unknown user %s", userID)
}

func newTestManager(store *fakeStore, resolver Resolver) *Manager {
	m := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if resolver != nil {
		m.SetResolver(resolver)
	}
	return m
}

func TestRowsMedalsAndNumbering(t *testing.T) {
	store := &fakeStore{entries: []*entity.LeaderboardEntry{
		{UserID: "a", TotalUses: 9},
		{UserID: "b", TotalUses: 7},
		{UserID: "c", TotalUses: 5},
		{UserID: "d", TotalUses: 1},
	}}
	resolver := &fakeResolver{names: map[string]string{"a": "Alice", "b": "Bob", "c": "Cleo", "d": "Drew"}}

	rows, err := newTestManager(store, resolver).Rows(context.Background(), "g1", KindAllTime)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	require.Equal(t, "🥇", rows[0].Medal)
	require.Equal(t, "🥈", rows[1].Medal)
	require.Equal(t, "🥉", rows[2].Medal)
	require.Equal(t, "4.", rows[3].Medal)
	require.Equal(t, 1, rows[0].Rank)
	require.Equal(t, 4, rows[3].Rank)
	require.Equal(t, "Alice", rows[0].DisplayName)
}

func TestRowsUnresolvableUserGetsPlaceholder(t *testing.T) {
	store := &fakeStore{entries: []*entity.LeaderboardEntry{{UserID: "gone", TotalUses: 2}}}
	resolver := &fakeResolver{}

	rows, err := newTestManager(store, resolver).Rows(context.Background(), "g1", KindAllTime)
	require.NoError(t, err)
	require.Equal(t, "Unknown User (gone)", rows[0].DisplayName)
}

func TestRowsWithoutResolver(t *testing.T) {
	store := &fakeStore{entries: []*entity.LeaderboardEntry{{UserID: "a", TotalUses: 1}}}

	rows, err := newTestManager(store, nil).Rows(context.Background(), "g1", KindDaily)
	require.NoError(t, err)
	require.Equal(t, "Unknown User (a)", rows[0].DisplayName)
}

func TestRowsEmptyBoard(t *testing.T) {
	rows, err := newTestManager(&fakeStore{}, nil).Rows(context.Background(), "g1", KindAllTime)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestUserStatsSuccessRate(t *testing.T) {
	store := &fakeStore{stats: map[string]*entity.MemberStats{
		"a": {UserID: "a", TotalInvites: 4, TotalUses: 2},
	}}
	m := newTestManager(store, nil)

	stats := m.UserStats(context.Background(), "g1", "a")
	require.Equal(t, 4, stats.TotalInvites)
	require.Equal(t, 2, stats.TotalUses)
	require.NotNil(t, stats.SuccessRate)
	require.InDelta(t, 50.0, *stats.SuccessRate, 0.01)
}

func TestUserStatsNoInvitesOmitsRate(t *testing.T) {
	m := newTestManager(&fakeStore{}, nil)
	stats := m.UserStats(context.Background(), "g1", "ghost")
	require.Zero(t, stats.TotalInvites)
	require.Zero(t, stats.TotalUses)
	require.Nil(t, stats.SuccessRate)
}

func TestUserStatsStoreErrorDegradesToZeros(t *testing.T) {
	m := newTestManager(&fakeStore{err: fmt.Errorf("connection refused")}, nil)
	stats := m.UserStats(context.Background(), "g1", "a")
	require.Zero(t, stats.TotalUses)
	require.Nil(t, stats.SuccessRate)
}
