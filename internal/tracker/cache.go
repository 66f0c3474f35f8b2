package tracker

import (
	"sync"

	"invitetrack/entity"
)

// snapshotCache is the last known invite list per guild, kept in memory only
// and rebuilt from the platform after restarts. The tracker owns it; the
// store stays the durable source of truth for counts.
//
// The cache mutex only guards the guild index. Mutation of a single guild's
// invite map is serialized by the tracker's per-guild lock, which lets
// OnMemberJoin iterate a guild map without copying while other guilds keep
// updating in parallel.
type snapshotCache struct {
	mu     sync.RWMutex
	guilds map[string]map[string]*entity.Invite
}

func newSnapshotCache() *snapshotCache {
	return &snapshotCache{
		guilds: make(map[string]map[string]*entity.Invite),
	}
}

// Replace swaps in a fresh invite map for the guild and returns the previous
// one so the caller can diff against it. A nil return means the guild was
// never cached.
func (c *snapshotCache) Replace(guildID string, invites map[string]*entity.Invite) map[string]*entity.Invite {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.guilds[guildID]
	c.guilds[guildID] = invites
	return prev
}

func (c *snapshotCache) Guild(guildID string) map[string]*entity.Invite {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.guilds[guildID]
}

func (c *snapshotCache) Has(guildID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.guilds[guildID]
	return ok
}

func (c *snapshotCache) UpsertOne(guildID string, invite *entity.Invite) {
	c.mu.Lock()
	defer c.mu.Unlock()
	guild, ok := c.guilds[guildID]
	if !ok {
		guild = make(map[string]*entity.Invite)
		c.guilds[guildID] = guild
	}
	guild[invite.Code] = invite
}

func (c *snapshotCache) RemoveOne(guildID, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if guild, ok := c.guilds[guildID]; ok {
		delete(guild, code)
	}
}
