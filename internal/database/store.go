package database

import (
	"context"

	"invitetrack/entity"
)

// Store is the durable side of invite tracking. Every operation is atomic:
// it either fully applies or has no effect. Callers follow a log-and-continue
// policy on errors, so implementations return errors rather than panicking.
type Store interface {
	// UpsertInvite inserts or replaces invite metadata. It never touches the
	// stored use count; SetInviteUses owns that field.
	UpsertInvite(ctx context.Context, invite *entity.Invite) error
	// SetInviteUses overwrites the recorded use count for an invite.
	SetInviteUses(ctx context.Context, code string, uses int) error
	// DeactivateInvite marks an invite inactive. Idempotent.
	DeactivateInvite(ctx context.Context, code string) error
	// CreditJoin records one attributed join: the inviter's aggregate
	// total_uses and today's daily counter both grow by exactly one, with no
	// lost updates under concurrent calls.
	CreditJoin(ctx context.Context, guildID, inviterID string) error
	// SetInviteCount overwrites the snapshot of active invites a user holds.
	SetInviteCount(ctx context.Context, guildID, userID string, count int) error

	Leaderboard(ctx context.Context, guildID string, limit int) ([]*entity.LeaderboardEntry, error)
	// DailyLeaderboard sums daily counters over [today-windowDays, today].
	DailyLeaderboard(ctx context.Context, guildID string, windowDays, limit int) ([]*entity.LeaderboardEntry, error)
	// UserStats returns zero-valued stats for users never seen.
	UserStats(ctx context.Context, guildID, userID string) (*entity.MemberStats, error)

	GetUser(ctx context.Context, token string) (*entity.User, error)
	SaveUser(ctx context.Context, user *entity.User) error
}
