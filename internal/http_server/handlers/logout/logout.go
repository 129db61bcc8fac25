package logout

import (
	"log/slog"
	"net/http"

	"user_service/internal/apperror"
	"user_service/internal/http_server/middleware/authn"
	"user_service/internal/lib/api/cookie"
	resp "user_service/internal/lib/api/response"
	"user_service/internal/user"

	"github.com/go-chi/chi/middleware"
)

// New clears the stored refresh token and both cookies. The account comes
// from the authn middleware.
func New(log *slog.Logger, svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		u, ok := authn.FromContext(r.Context())
		if !ok {
			resp.Err(w, r, apperror.Auth("unauthorized request"))

			return
		}

		if err := svc.Logout(r.Context(), u.ID.Hex()); err != nil {
			resp.Err(w, r, err)

			return
		}

		http.SetCookie(w, cookie.Delete(cookie.AccessToken))
		http.SetCookie(w, cookie.Delete(cookie.RefreshToken))

		log.Info("user logged out", slog.String("username", u.Username))

		resp.OK(w, r, http.StatusOK, struct{}{}, "user logged out")
	}
}
