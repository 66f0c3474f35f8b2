package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"invitetrack/internal/leaderboard"
	"invitetrack/lib/sl"
)

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if !strings.HasPrefix(m.Content, b.config.CommandPrefix) {
		return
	}

	args := strings.Fields(strings.TrimPrefix(m.Content, b.config.CommandPrefix))
	if len(args) == 0 {
		return
	}

	ctx := context.Background()
	switch strings.ToLower(args[0]) {
	case "leaderboard", "lb", "top":
		b.sendLeaderboard(ctx, m, leaderboard.KindAllTime)
	case "daily", "weekly", "recent":
		b.sendLeaderboard(ctx, m, leaderboard.KindDaily)
	case "stats", "me", "invites":
		b.sendUserStats(ctx, m)
	case "refresh":
		b.refresh(ctx, s, m)
	case "help":
		b.reply(m.ChannelID, helpEmbed(b.config.CommandPrefix))
	}
}

func (b *Bot) sendLeaderboard(ctx context.Context, m *discordgo.MessageCreate, kind leaderboard.Kind) {
	rows, err := b.board.Rows(ctx, m.GuildID, kind)
	if err != nil {
		b.reply(m.ChannelID, errorEmbed("An error occurred while generating the leaderboard."))
		return
	}
	b.reply(m.ChannelID, leaderboardEmbed(kind, rows))
}

func (b *Bot) sendUserStats(ctx context.Context, m *discordgo.MessageCreate) {
	target := m.Author
	if len(m.Mentions) > 0 {
		target = m.Mentions[0]
	}
	stats := b.board.UserStats(ctx, m.GuildID, target.ID)
	b.reply(m.ChannelID, statsEmbed(target.Username, stats))
}

// refresh re-caches the guild's invites on demand. Administrators only.
func (b *Bot) refresh(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil || perms&discordgo.PermissionAdministrator == 0 {
		b.reply(m.ChannelID, errorEmbed("You need Administrator permission to use this command."))
		return
	}

	if err = b.tracker.CacheInvites(ctx, m.GuildID); err != nil {
		b.reply(m.ChannelID, errorEmbed("Failed to refresh the invite cache. Check the bot's permissions."))
		return
	}
	b.reply(m.ChannelID, successEmbed("Invite cache refreshed."))
}

func (b *Bot) reply(channelID string, embed *discordgo.MessageEmbed) {
	if _, err := b.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.log.With(slog.String("channel", channelID)).Warn("sending reply", sl.Err(err))
	}
}
