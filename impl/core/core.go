// Package core ties the read-side services together behind the interfaces
// the HTTP handlers consume.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"invitetrack/entity"
	"invitetrack/internal/leaderboard"
	"invitetrack/internal/tracker"
	"invitetrack/lib/sl"
)

// Database defines the storage operations the core depends on.
// Implemented by internal/database.
type Database interface {
	GetUser(ctx context.Context, token string) (*entity.User, error)
	SaveUser(ctx context.Context, user *entity.User) error
}

type Core struct {
	db    Database
	trk   *tracker.Tracker
	board *leaderboard.Manager
	log   *slog.Logger
}

func New(db Database, trk *tracker.Tracker, board *leaderboard.Manager, log *slog.Logger) *Core {
	return &Core{
		db:    db,
		trk:   trk,
		board: board,
		log:   log.With(sl.Module("core")),
	}
}

func (c *Core) AuthenticateByToken(token string) (*entity.User, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return c.db.GetUser(context.Background(), token)
}

// CreateUser registers an API consumer and issues its bearer token.
func (c *Core) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	if user.Role == "" {
		user.Role = entity.RoleReader
	}
	user.Token = uuid.NewString()
	user.RegisteredAt = time.Now().UTC()
	if err := c.db.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}
	c.log.With(slog.String("username", user.Username)).Info("api user created")
	return user, nil
}

func (c *Core) GuildLeaderboard(ctx context.Context, guildID string, kind leaderboard.Kind) ([]leaderboard.Row, error) {
	return c.board.Rows(ctx, guildID, kind)
}

func (c *Core) GuildUserStats(ctx context.Context, guildID, userID string) *leaderboard.Stats {
	return c.board.UserStats(ctx, guildID, userID)
}

func (c *Core) RefreshGuild(ctx context.Context, guildID string) error {
	return c.trk.CacheInvites(ctx, guildID)
}
