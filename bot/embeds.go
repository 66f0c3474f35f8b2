package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"invitetrack/internal/leaderboard"
)

const (
	colorBlurple = 0x5865F2
	colorRed     = 0xED4245
	colorGreen   = 0x57F287
)

func leaderboardEmbed(kind leaderboard.Kind, rows []leaderboard.Row) *discordgo.MessageEmbed {
	title := "🏆 All-Time Invite Leaderboard"
	description := "Top inviters of all time"
	valueLabel := "Total Invites Used"
	if kind == leaderboard.KindDaily {
		title = "📊 Weekly Invite Leaderboard"
		description = "Top inviters from the past 7 days"
		valueLabel = "Recent Invites"
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colorBlurple,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	if len(rows) == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "No Data Available",
			Value: "No invite statistics found for this server.",
		})
		return embed
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%s **%s** - %d %s\n",
			row.Medal, row.DisplayName, row.Uses, strings.ToLower(valueLabel)))
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  valueLabel,
		Value: sb.String(),
	})
	return embed
}

func statsEmbed(displayName string, stats *leaderboard.Stats) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("📈 Invite Statistics for %s", displayName),
		Color:     colorBlurple,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total Invites Created", Value: fmt.Sprintf("%d", stats.TotalInvites), Inline: true},
			{Name: "Total Successful Invites", Value: fmt.Sprintf("%d", stats.TotalUses), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "User ID: " + stats.UserID},
	}
	if stats.SuccessRate != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Success Rate",
			Value:  fmt.Sprintf("%.1f%%", *stats.SuccessRate),
			Inline: true,
		})
	}
	return embed
}

func helpEmbed(prefix string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Invite Tracker Commands",
		Description: "Track which invites bring members to the server.",
		Color:       colorBlurple,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📊 " + prefix + "leaderboard", Value: "Show the all-time invite leaderboard"},
			{Name: "📅 " + prefix + "daily", Value: "Show the leaderboard for the past 7 days"},
			{Name: "📈 " + prefix + "stats [@user]", Value: "Show invite statistics for you or a mentioned user"},
			{Name: "🔄 " + prefix + "refresh", Value: "Refresh the invite cache (administrators only)"},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Use these commands to track invite performance!"},
	}
}

func errorEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Error",
		Description: message,
		Color:       colorRed,
	}
}

func successEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ Done",
		Description: message,
		Color:       colorGreen,
	}
}
