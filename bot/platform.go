package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"invitetrack/entity"
	"invitetrack/internal/tracker"
)

// GuildInvites implements tracker.Platform. Discord answers the invite list
// with 403 when the bot lacks Manage Server, which is the tracker's
// capability gate.
func (b *Bot) GuildInvites(ctx context.Context, guildID string) ([]*entity.Invite, error) {
	invites, err := b.session.GuildInvites(guildID, discordgo.WithContext(ctx))
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden {
			return nil, tracker.ErrPermissionDenied
		}
		return nil, fmt.Errorf("%w: %v", tracker.ErrPlatformUnavailable, err)
	}

	result := make([]*entity.Invite, 0, len(invites))
	for _, invite := range invites {
		result = append(result, inviteEntity(guildID, invite))
	}
	return result, nil
}

func inviteEntity(guildID string, invite *discordgo.Invite) *entity.Invite {
	e := &entity.Invite{
		Code:      invite.Code,
		GuildID:   guildID,
		Uses:      invite.Uses,
		MaxUses:   invite.MaxUses,
		CreatedAt: invite.CreatedAt,
		ExpiresAt: invite.ExpiresAt,
		Active:    true,
	}
	if invite.Inviter != nil {
		e.InviterID = invite.Inviter.ID
	}
	return e
}

// DisplayName implements leaderboard.Resolver. Members who left the guild
// fall back to a global user lookup; the caller renders a placeholder when
// even that fails.
func (b *Bot) DisplayName(guildID, userID string) (string, error) {
	member, err := b.session.GuildMember(guildID, userID)
	if err == nil {
		if member.Nick != "" {
			return member.Nick, nil
		}
		return member.User.Username, nil
	}

	user, err := b.session.User(userID)
	if err != nil {
		return "", fmt.Errorf("fetching user %s: %w", userID, err)
	}
	return user.Username + " (Left Server)", nil
}
