package entity

import "time"

// Invite is the last known state of a guild invite link.
// Code is the natural key within a guild; re-creation of a previously seen
// code replaces the old metadata. Invites are never deleted from storage,
// only marked inactive, so history survives for auditing.
type Invite struct {
	Code      string     `json:"code" bson:"code"`
	GuildID   string     `json:"guild_id" bson:"guild_id"`
	InviterID string     `json:"inviter_id" bson:"inviter_id"` // empty for vanity/widget invites
	Uses      int        `json:"uses" bson:"uses"`
	MaxUses   int        `json:"max_uses" bson:"max_uses"` // 0 = unlimited
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	Active    bool       `json:"active" bson:"active"`
}

// SingleUse reports whether the invite is deleted by the platform as soon
// as it is consumed. Such invites vanish from the live list before their
// incremented use count can be observed.
func (i *Invite) SingleUse() bool {
	return i.MaxUses == 1
}

func (i *Invite) HasInviter() bool {
	return i.InviterID != ""
}
