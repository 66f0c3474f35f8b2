package entity

import "time"

// MemberStats is the per-guild aggregate for one inviter.
//
// TotalUses counts joins attributed to the user and only ever increments.
// TotalInvites is a snapshot of how many active invite links the user
// currently holds; it is overwritten after every cache refresh and may
// decrease. Leaderboard ordering keys on TotalUses, with TotalInvites as
// the tie-break.
type MemberStats struct {
	UserID       string    `json:"user_id" bson:"user_id"`
	GuildID      string    `json:"guild_id" bson:"guild_id"`
	TotalInvites int       `json:"total_invites" bson:"total_invites"`
	TotalUses    int       `json:"total_uses" bson:"total_uses"`
	LastUpdated  time.Time `json:"last_updated" bson:"last_updated"`
}

// DailyUsage is one attributed-joins counter per (user, guild, UTC day).
// Date is formatted as 2006-01-02.
type DailyUsage struct {
	UserID  string `json:"user_id" bson:"user_id"`
	GuildID string `json:"guild_id" bson:"guild_id"`
	Date    string `json:"date" bson:"date"`
	Uses    int    `json:"uses" bson:"uses"`
}

// LeaderboardEntry is one ranked row as read from the store.
// TotalInvites is zero for rolling-window queries, which aggregate daily
// counters only.
type LeaderboardEntry struct {
	UserID       string `json:"user_id" bson:"user_id"`
	TotalInvites int    `json:"total_invites" bson:"total_invites"`
	TotalUses    int    `json:"total_uses" bson:"total_uses"`
}
