package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"invitetrack/entity"
	"invitetrack/lib/clock"
)

type dailyKey struct {
	userID  string
	guildID string
	date    string
}

type statsKey struct {
	userID  string
	guildID string
}

// Memory is a Store kept entirely in process memory. It backs local
// development when Mongo is disabled; counts survive only until restart.
type Memory struct {
	mu      sync.RWMutex
	invites map[string]*entity.Invite
	stats   map[statsKey]*entity.MemberStats
	daily   map[dailyKey]int
	users   map[string]*entity.User
}

func NewMemory() *Memory {
	return &Memory{
		invites: make(map[string]*entity.Invite),
		stats:   make(map[statsKey]*entity.MemberStats),
		daily:   make(map[dailyKey]int),
		users:   make(map[string]*entity.User),
	}
}

func (m *Memory) UpsertInvite(_ context.Context, invite *entity.Invite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.invites[invite.Code]
	record := *invite
	record.Active = true
	if ok {
		record.Uses = stored.Uses
		record.CreatedAt = stored.CreatedAt
	} else {
		record.Uses = 0
	}
	m.invites[invite.Code] = &record
	return nil
}

func (m *Memory) SetInviteUses(_ context.Context, code string, uses int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if invite, ok := m.invites[code]; ok {
		invite.Uses = uses
	}
	return nil
}

func (m *Memory) DeactivateInvite(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if invite, ok := m.invites[code]; ok {
		invite.Active = false
	}
	return nil
}

func (m *Memory) CreditJoin(_ context.Context, guildID, inviterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.ensureStats(guildID, inviterID)
	stats.TotalUses++
	stats.LastUpdated = time.Now().UTC()
	m.daily[dailyKey{userID: inviterID, guildID: guildID, date: clock.Today()}]++
	return nil
}

func (m *Memory) SetInviteCount(_ context.Context, guildID, userID string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.ensureStats(guildID, userID)
	stats.TotalInvites = count
	stats.LastUpdated = time.Now().UTC()
	return nil
}

// caller holds the lock
func (m *Memory) ensureStats(guildID, userID string) *entity.MemberStats {
	key := statsKey{userID: userID, guildID: guildID}
	stats, ok := m.stats[key]
	if !ok {
		stats = &entity.MemberStats{UserID: userID, GuildID: guildID}
		m.stats[key] = stats
	}
	return stats
}

func (m *Memory) Leaderboard(_ context.Context, guildID string, limit int) ([]*entity.LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*entity.LeaderboardEntry
	for _, stats := range m.stats {
		if stats.GuildID != guildID {
			continue
		}
		entries = append(entries, &entity.LeaderboardEntry{
			UserID:       stats.UserID,
			TotalInvites: stats.TotalInvites,
			TotalUses:    stats.TotalUses,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalUses != entries[j].TotalUses {
			return entries[i].TotalUses > entries[j].TotalUses
		}
		return entries[i].TotalInvites > entries[j].TotalInvites
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *Memory) DailyLeaderboard(_ context.Context, guildID string, windowDays, limit int) ([]*entity.LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cutoff := clock.WindowStart(windowDays)
	totals := make(map[string]int)
	for key, uses := range m.daily {
		if key.guildID != guildID || key.date < cutoff {
			continue
		}
		totals[key.userID] += uses
	}
	entries := make([]*entity.LeaderboardEntry, 0, len(totals))
	for userID, uses := range totals {
		entries = append(entries, &entity.LeaderboardEntry{UserID: userID, TotalUses: uses})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TotalUses > entries[j].TotalUses
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *Memory) UserStats(_ context.Context, guildID, userID string) (*entity.MemberStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if stats, ok := m.stats[statsKey{userID: userID, guildID: guildID}]; ok {
		result := *stats
		return &result, nil
	}
	return &entity.MemberStats{UserID: userID, GuildID: guildID}, nil
}

// InviteByCode is a read hook for tests and diagnostics.
func (m *Memory) InviteByCode(code string) *entity.Invite {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if invite, ok := m.invites[code]; ok {
		result := *invite
		return &result
	}
	return nil
}

func (m *Memory) GetUser(_ context.Context, token string) (*entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Token == token {
			result := *user
			return &result, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (m *Memory) SaveUser(_ context.Context, user *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := *user
	m.users[user.Username] = &record
	return nil
}
