// Package bot implements the Discord surface of invite tracking.
//
// Architecture overview:
//   - discord.go  — Bot struct, lifecycle (Start/Stop), gateway event handlers,
//     daily leaderboard posting
//   - platform.go — adapters: tracker.Platform (invite listing with permission
//     mapping) and leaderboard.Resolver (display names)
//   - commands.go — chat commands: !leaderboard, !daily, !stats, !refresh, !help
//   - embeds.go   — embed builders and the color palette
//
// Data flow for gateway events:
//
//	InviteCreate/InviteDelete → tracker cache+store update
//	GuildMemberAdd → tracker.OnMemberJoin (snapshot diff, credit, re-cache)
//	MessageCreate → command dispatch → leaderboard reads → embed reply
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"invitetrack/entity"
	"invitetrack/internal/leaderboard"
	"invitetrack/internal/tracker"
	"invitetrack/lib/sl"
)

// Config holds Discord-specific configuration loaded from the YAML config file.
type Config struct {
	Token              string
	CommandPrefix      string
	LeaderboardChannel string
}

type Bot struct {
	log     *slog.Logger
	session *discordgo.Session
	tracker *tracker.Tracker
	board   *leaderboard.Manager
	config  Config
}

func New(cfg Config, trk *tracker.Tracker, board *leaderboard.Manager, log *slog.Logger) (*Bot, error) {
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildInvites |
		discordgo.IntentGuildMembers |
		discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		log:     log.With(sl.Module("bot")),
		session: session,
		tracker: trk,
		board:   board,
		config:  cfg,
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onGuildCreate)
	session.AddHandler(b.onInviteCreate)
	session.AddHandler(b.onInviteDelete)
	session.AddHandler(b.onMemberJoin)
	session.AddHandler(b.onMessage)

	return b, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening gateway connection: %w", err)
	}
	return nil
}

func (b *Bot) Stop() {
	b.log.Info("stopping discord bot")
	_ = b.session.Close()
}

// onReady caches invites for every connected guild to establish the diff
// baseline, then marks the tracker ready so the scheduled post may run.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.With(slog.Int("guilds", len(r.Guilds))).Info("connected to discord")

	go func() {
		for _, guild := range r.Guilds {
			_ = b.tracker.CacheInvites(context.Background(), guild.ID)
		}
		b.tracker.SetReady()
	}()

	_ = s.UpdateWatchStatus(0, "invite statistics | "+b.config.CommandPrefix+"help")
}

func (b *Bot) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.With(sl.Guild(g.ID), slog.String("name", g.Name)).Debug("guild available")
	go func() {
		_ = b.tracker.CacheInvites(context.Background(), g.ID)
	}()
}

func (b *Bot) onInviteCreate(_ *discordgo.Session, e *discordgo.InviteCreate) {
	b.tracker.OnInviteCreate(context.Background(), inviteEntity(e.GuildID, e.Invite))
}

func (b *Bot) onInviteDelete(_ *discordgo.Session, e *discordgo.InviteDelete) {
	b.tracker.OnInviteDelete(context.Background(), e.GuildID, e.Code)
}

func (b *Bot) onMemberJoin(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
	member := &entity.Member{
		UserID:   e.User.ID,
		GuildID:  e.GuildID,
		Username: e.User.Username,
		JoinedAt: e.JoinedAt,
	}
	b.tracker.OnMemberJoin(context.Background(), member)
}

// PostDailyLeaderboard publishes the rolling leaderboard to the configured
// channel. Skipped with a log line when no channel is set up.
func (b *Bot) PostDailyLeaderboard(ctx context.Context) error {
	channelID := b.config.LeaderboardChannel
	if channelID == "" {
		b.log.Info("no leaderboard channel configured, skipping daily post")
		return nil
	}

	channel, err := b.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("resolving leaderboard channel: %w", err)
	}

	rows, err := b.board.Rows(ctx, channel.GuildID, leaderboard.KindDaily)
	if err != nil {
		return fmt.Errorf("building daily leaderboard: %w", err)
	}

	embed := leaderboardEmbed(leaderboard.KindDaily, rows)
	embed.Description += fmt.Sprintf("\n\n*Automatically posted at %s UTC*", time.Now().UTC().Format("15:04"))

	if _, err = b.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("posting daily leaderboard: %w", err)
	}
	b.log.With(slog.String("channel", channelID), sl.Guild(channel.GuildID)).Info("posted daily leaderboard")
	return nil
}
