// Package tracker implements invite attribution for guild joins.
//
// Discord never reports which invite a joining member used. The tracker
// keeps a per-guild snapshot of all active invites and, on every join,
// fetches the live list and diffs it against the snapshot: an invite whose
// use count grew is the one that was consumed. Single-use invites are the
// special case — the platform deletes them as soon as they max out, so a
// cached max_uses==1 invite that vanished from the live list counts as
// consumed too.
//
// All operations for one guild are serialized by a per-guild lock so a join
// diff never races a concurrent refresh and misreads the prior snapshot.
// Different guilds proceed independently.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"invitetrack/entity"
	"invitetrack/lib/sl"
)

// platform fetches are bounded; on timeout the stale cache is kept
const fetchTimeout = 10 * time.Second

var (
	// ErrPermissionDenied means the bot lacks the Manage Guild capability
	// needed to list invites. The operation is skipped and the cache kept.
	ErrPermissionDenied = errors.New("missing manage guild permission")
	// ErrPlatformUnavailable means the live invite list could not be
	// fetched. Retried on the next triggering event, never fatal.
	ErrPlatformUnavailable = errors.New("platform unavailable")
)

// Platform is the gateway to the chat platform.
// Implemented by bot.Bot over a discordgo session.
type Platform interface {
	GuildInvites(ctx context.Context, guildID string) ([]*entity.Invite, error)
}

// Database defines the storage operations the tracker depends on.
// Implemented by internal/database.
type Database interface {
	UpsertInvite(ctx context.Context, invite *entity.Invite) error
	SetInviteUses(ctx context.Context, code string, uses int) error
	DeactivateInvite(ctx context.Context, code string) error
	CreditJoin(ctx context.Context, guildID, inviterID string) error
	SetInviteCount(ctx context.Context, guildID, userID string, count int) error
	UserStats(ctx context.Context, guildID, userID string) (*entity.MemberStats, error)
}

type Tracker struct {
	log      *slog.Logger
	db       Database
	platform Platform
	cache    *snapshotCache
	ready    atomic.Bool

	mu    sync.Mutex // guards locks
	locks map[string]*sync.Mutex
}

func New(db Database, log *slog.Logger) *Tracker {
	return &Tracker{
		log:   log.With(sl.Module("tracker")),
		db:    db,
		cache: newSnapshotCache(),
		locks: make(map[string]*sync.Mutex),
	}
}

// SetPlatform wires the platform gateway. The bot is constructed after the
// tracker (it needs the tracker for event handling), so the dependency is
// injected once both exist.
func (t *Tracker) SetPlatform(p Platform) {
	t.platform = p
}

// SetReady marks startup caching complete. Scheduled tasks no-op until then.
func (t *Tracker) SetReady() {
	t.ready.Store(true)
}

func (t *Tracker) Ready() bool {
	return t.ready.Load()
}

func (t *Tracker) guildLock(guildID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.locks[guildID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[guildID] = lock
	}
	return lock
}

// CacheInvites replaces the guild's snapshot with the live invite list and
// writes metadata and use counts through to the store. Establishes the
// baseline that later join diffs compare against.
func (t *Tracker) CacheInvites(ctx context.Context, guildID string) error {
	lock := t.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()
	return t.cacheInvites(ctx, guildID)
}

// caller holds the guild lock
func (t *Tracker) cacheInvites(ctx context.Context, guildID string) error {
	log := t.log.With(sl.Guild(guildID))
	invites, err := t.fetchInvites(ctx, guildID)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			log.Warn("cannot cache invites, bot needs the Manage Server permission")
		} else {
			log.Error("caching invites", sl.Err(err))
		}
		return err
	}

	fresh := make(map[string]*entity.Invite, len(invites))
	for _, invite := range invites {
		fresh[invite.Code] = invite
	}
	t.cache.Replace(guildID, fresh)

	for _, invite := range invites {
		if err = t.db.UpsertInvite(ctx, invite); err != nil {
			log.Error("storing invite", sl.Code(invite.Code), sl.Err(err))
			continue
		}
		if err = t.db.SetInviteUses(ctx, invite.Code, invite.Uses); err != nil {
			log.Error("storing invite uses", sl.Code(invite.Code), sl.Err(err))
		}
	}

	t.syncInviteCounts(ctx, guildID)
	log.With(slog.Int("count", len(invites))).Debug("cached invites")
	return nil
}

func (t *Tracker) fetchInvites(ctx context.Context, guildID string) ([]*entity.Invite, error) {
	if t.platform == nil {
		return nil, ErrPlatformUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	return t.platform.GuildInvites(ctx, guildID)
}

// UpdateInviteCounts rewrites the per-user snapshot of currently held active
// invites. For a never-cached guild it performs the initial caching instead,
// which includes the count sync.
func (t *Tracker) UpdateInviteCounts(ctx context.Context, guildID string) {
	lock := t.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()
	if !t.cache.Has(guildID) {
		_ = t.cacheInvites(ctx, guildID)
		return
	}
	t.syncInviteCounts(ctx, guildID)
}

// syncInviteCounts overwrites total_invites per user from the cached
// snapshot. Only users currently holding at least one active invite get a
// row written; a vanished last invite leaves the previous count behind.
// The overwrite may lower the count — unlike total_uses this field is not
// monotonic. Caller holds the guild lock.
func (t *Tracker) syncInviteCounts(ctx context.Context, guildID string) {
	counts := make(map[string]int)
	for _, invite := range t.cache.Guild(guildID) {
		if invite.HasInviter() {
			counts[invite.InviterID]++
		}
	}
	for userID, count := range counts {
		if err := t.db.SetInviteCount(ctx, guildID, userID, count); err != nil {
			t.log.With(sl.Guild(guildID), sl.User(userID)).Error("storing invite count", sl.Err(err))
		}
	}
}

// OnInviteCreate records a newly created invite in cache and store.
func (t *Tracker) OnInviteCreate(ctx context.Context, invite *entity.Invite) {
	lock := t.guildLock(invite.GuildID)
	lock.Lock()
	defer lock.Unlock()

	t.cache.UpsertOne(invite.GuildID, invite)
	if err := t.db.UpsertInvite(ctx, invite); err != nil {
		t.log.With(sl.Guild(invite.GuildID), sl.Code(invite.Code)).Error("storing created invite", sl.Err(err))
	}
	t.syncInviteCounts(ctx, invite.GuildID)
	t.log.With(sl.Guild(invite.GuildID), sl.Code(invite.Code), sl.User(invite.InviterID)).Debug("invite created")
}

// OnInviteDelete drops the invite from the cache and deactivates it in the
// store. The record itself is kept for history.
func (t *Tracker) OnInviteDelete(ctx context.Context, guildID, code string) {
	lock := t.guildLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	t.cache.RemoveOne(guildID, code)
	if err := t.db.DeactivateInvite(ctx, code); err != nil {
		t.log.With(sl.Guild(guildID), sl.Code(code)).Error("deactivating invite", sl.Err(err))
	}
	t.syncInviteCounts(ctx, guildID)
	t.log.With(sl.Guild(guildID), sl.Code(code)).Debug("invite deleted")
}

// OnMemberJoin attributes a join to the invite that brought the member in.
//
// The live invite list is compared against the prior snapshot in cache
// order; the first invite with a grown use count wins. A cached single-use
// invite missing from the live list is treated as just consumed. When
// several invites grew at once (joins racing each other) only the first one
// encountered is credited — a known accuracy limit of count diffing.
// Finishes with a full re-cache regardless of the outcome.
func (t *Tracker) OnMemberJoin(ctx context.Context, member *entity.Member) {
	log := t.log.With(sl.Guild(member.GuildID), sl.User(member.UserID))

	lock := t.guildLock(member.GuildID)
	lock.Lock()
	defer lock.Unlock()

	invites, err := t.fetchInvites(ctx, member.GuildID)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			log.Warn("cannot attribute join, bot needs the Manage Server permission")
		} else {
			log.Error("fetching invites on member join", sl.Err(err))
		}
		return
	}

	fresh := make(map[string]*entity.Invite, len(invites))
	for _, invite := range invites {
		fresh[invite.Code] = invite
	}

	for code, cached := range t.cache.Guild(member.GuildID) {
		current, exists := fresh[code]
		if exists {
			if current.Uses <= cached.Uses {
				continue
			}
			if cached.HasInviter() {
				t.credit(ctx, member.GuildID, cached.InviterID)
				log.With(sl.Code(code), slog.String("inviter", cached.InviterID)).Info("member joined via invite")
			}
			t.cache.UpsertOne(member.GuildID, current)
			if err = t.db.SetInviteUses(ctx, code, current.Uses); err != nil {
				log.Error("storing invite uses", sl.Code(code), sl.Err(err))
			}
			break
		}
		if cached.SingleUse() {
			if cached.HasInviter() {
				t.credit(ctx, member.GuildID, cached.InviterID)
				log.With(sl.Code(code), slog.String("inviter", cached.InviterID)).Info("member joined via single-use invite")
			}
			t.cache.RemoveOne(member.GuildID, code)
			break
		}
	}

	// resynchronize the whole snapshot, including per-user invite counts
	_ = t.cacheInvites(ctx, member.GuildID)
}

func (t *Tracker) credit(ctx context.Context, guildID, inviterID string) {
	if err := t.db.CreditJoin(ctx, guildID, inviterID); err != nil {
		t.log.With(sl.Guild(guildID), sl.User(inviterID)).Error("crediting join", sl.Err(err))
	}
}

// InviteStats returns (invites created, joins credited) for a user,
// degrading to zeros when the store is unavailable.
func (t *Tracker) InviteStats(ctx context.Context, guildID, userID string) (int, int) {
	stats, err := t.db.UserStats(ctx, guildID, userID)
	if err != nil {
		t.log.With(sl.Guild(guildID), sl.User(userID)).Error("reading user stats", sl.Err(err))
		return 0, 0
	}
	return stats.TotalInvites, stats.TotalUses
}
