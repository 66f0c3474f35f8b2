package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"invitetrack/internal/leaderboard"
	"invitetrack/lib/api/cont"
	"invitetrack/lib/api/response"
	"invitetrack/lib/sl"
)

type Core interface {
	GuildLeaderboard(ctx context.Context, guildID string, kind leaderboard.Kind) ([]leaderboard.Row, error)
	GuildUserStats(ctx context.Context, guildID, userID string) *leaderboard.Stats
	RefreshGuild(ctx context.Context, guildID string) error
}

func Leaderboard(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.stats")
		guildID := chi.URLParam(r, "id")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Guild(guildID),
		)

		kind := leaderboard.KindAllTime
		if r.URL.Query().Get("window") == "daily" {
			kind = leaderboard.KindDaily
		}

		rows, err := handler.GuildLeaderboard(r.Context(), guildID, kind)
		if err != nil {
			log.Error("leaderboard query", sl.Err(err))
			render.JSON(w, r, response.Error("Leaderboard not available"))
			return
		}
		render.JSON(w, r, response.Ok(rows))
	}
}

func UserStats(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.stats")
		guildID := chi.URLParam(r, "id")
		userID := chi.URLParam(r, "user")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Guild(guildID),
			sl.User(userID),
		)

		stats := handler.GuildUserStats(r.Context(), guildID, userID)
		log.Debug("user stats served")
		render.JSON(w, r, response.Ok(stats))
	}
}

func Refresh(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.stats")
		guildID := chi.URLParam(r, "id")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Guild(guildID),
		)

		user := cont.GetUser(r.Context())
		if !user.IsAdmin() {
			log.Warn("refresh denied", slog.String("username", user.Username))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("Admin role required"))
			return
		}

		if err := handler.RefreshGuild(r.Context(), guildID); err != nil {
			log.Error("guild refresh", sl.Err(err))
			render.JSON(w, r, response.Error("Refresh failed"))
			return
		}
		render.JSON(w, r, response.Ok("refreshed"))
	}
}
