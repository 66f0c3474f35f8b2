package entity

import "time"

// Member is the payload of a guild join notification.
type Member struct {
	UserID   string    `json:"user_id"`
	GuildID  string    `json:"guild_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}
