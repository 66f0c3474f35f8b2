package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"invitetrack/entity"
	"invitetrack/lib/api/cont"
	"invitetrack/lib/api/response"
	"invitetrack/lib/sl"
)

type Core interface {
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
}

// Create registers a new API consumer and returns it with a freshly issued
// bearer token. Admin role required.
func Create(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.users")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := cont.GetUser(r.Context())
		if !caller.IsAdmin() {
			log.Warn("user creation denied", slog.String("username", caller.Username))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("Admin role required"))
			return
		}

		user := &entity.User{}
		if err := render.Bind(r, user); err != nil {
			log.Warn("invalid user payload", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		created, err := handler.CreateUser(r.Context(), user)
		if err != nil {
			log.Error("user creation", sl.Err(err))
			render.JSON(w, r, response.Error("User creation failed"))
			return
		}
		render.JSON(w, r, response.Ok(created))
	}
}
