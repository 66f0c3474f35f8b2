// Package leaderboard is the read side of invite tracking: it turns store
// rows into ranked, display-ready leaderboard data. It never writes.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"invitetrack/entity"
	"invitetrack/lib/sl"
)

type Kind string

const (
	KindAllTime Kind = "all"
	KindDaily   Kind = "daily"
)

const (
	windowDays = 7
	pageSize   = 10
)

var medals = []string{"🥇", "🥈", "🥉"}

// Store defines the read operations the leaderboard depends on.
// Implemented by internal/database.
type Store interface {
	Leaderboard(ctx context.Context, guildID string, limit int) ([]*entity.LeaderboardEntry, error)
	DailyLeaderboard(ctx context.Context, guildID string, windowDays, limit int) ([]*entity.LeaderboardEntry, error)
	UserStats(ctx context.Context, guildID, userID string) (*entity.MemberStats, error)
}

// Resolver turns a user id into a display name. Implemented by bot.Bot.
// Errors fall back to a placeholder, so leaderboards render even for users
// whose account is gone.
type Resolver interface {
	DisplayName(guildID, userID string) (string, error)
}

// Row is one ranked leaderboard line. Medal carries 🥇🥈🥉 for the top
// three and "4.", "5.", ... after that.
type Row struct {
	Rank        int    `json:"rank"`
	Medal       string `json:"medal"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Uses        int    `json:"uses"`
	Invites     int    `json:"invites,omitempty"`
}

// Stats is one user's presentation-ready statistics. SuccessRate is a
// percentage and omitted while the user has no invites created.
type Stats struct {
	UserID       string   `json:"user_id"`
	TotalInvites int      `json:"total_invites"`
	TotalUses    int      `json:"total_uses"`
	SuccessRate  *float64 `json:"success_rate,omitempty"`
}

type Manager struct {
	db       Store
	resolver Resolver
	log      *slog.Logger
}

func New(db Store, log *slog.Logger) *Manager {
	return &Manager{
		db:  db,
		log: log.With(sl.Module("leaderboard")),
	}
}

// SetResolver wires the identity lookup; without one every row renders the
// placeholder name.
func (m *Manager) SetResolver(r Resolver) {
	m.resolver = r
}

// Rows returns the ranked leaderboard for a guild. KindDaily covers the past
// seven days from daily counters; KindAllTime orders the aggregate rows.
// An empty guild yields an empty slice, not an error.
func (m *Manager) Rows(ctx context.Context, guildID string, kind Kind) ([]Row, error) {
	var entries []*entity.LeaderboardEntry
	var err error
	if kind == KindDaily {
		entries, err = m.db.DailyLeaderboard(ctx, guildID, windowDays, pageSize)
	} else {
		entries, err = m.db.Leaderboard(ctx, guildID, pageSize)
	}
	if err != nil {
		m.log.With(sl.Guild(guildID)).Error("reading leaderboard", sl.Err(err))
		return nil, err
	}

	rows := make([]Row, 0, len(entries))
	for i, entry := range entries {
		row := Row{
			Rank:        i + 1,
			Medal:       fmt.Sprintf("%d.", i+1),
			UserID:      entry.UserID,
			DisplayName: m.displayName(guildID, entry.UserID),
			Uses:        entry.TotalUses,
			Invites:     entry.TotalInvites,
		}
		if i < len(medals) {
			row.Medal = medals[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// UserStats degrades to zero-valued stats when the store read fails, keeping
// the presentation layer responsive.
func (m *Manager) UserStats(ctx context.Context, guildID, userID string) *Stats {
	stats, err := m.db.UserStats(ctx, guildID, userID)
	if err != nil {
		m.log.With(sl.Guild(guildID), sl.User(userID)).Error("reading user stats", sl.Err(err))
		return &Stats{UserID: userID}
	}
	result := &Stats{
		UserID:       userID,
		TotalInvites: stats.TotalInvites,
		TotalUses:    stats.TotalUses,
	}
	if stats.TotalInvites > 0 {
		rate := float64(stats.TotalUses) / float64(stats.TotalInvites) * 100
		result.SuccessRate = &rate
	}
	return result
}

func (m *Manager) displayName(guildID, userID string) string {
	if m.resolver != nil {
		name, err := m.resolver.DisplayName(guildID, userID)
		if err == nil {
			return name
		}
	}
	return fmt.Sprintf("Unknown User (%s)", userID)
}
