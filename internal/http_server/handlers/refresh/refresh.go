package refresh

import (
	"log/slog"
	"net/http"
	"time"

	"user_service/internal/config"
	"user_service/internal/lib/api/cookie"
	resp "user_service/internal/lib/api/response"
	"user_service/internal/user"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Request struct {
	RefreshToken string `json:"refreshToken"`
}

type Response struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// New rotates the token pair. The refresh token is read from the cookie
// first, with the JSON body as fallback for non-browser clients.
func New(
	log *slog.Logger,
	svc *user.Service,
	tokens config.Tokens,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		refreshToken := ""
		if c, err := r.Cookie(cookie.RefreshToken); err == nil {
			refreshToken = c.Value
		}
		if refreshToken == "" {
			var req Request
			if err := render.DecodeJSON(r.Body, &req); err == nil {
				refreshToken = req.RefreshToken
			}
		}

		result, err := svc.Refresh(r.Context(), refreshToken)
		if err != nil {
			resp.Err(w, r, err)

			return
		}

		http.SetCookie(w, cookie.New(cookie.AccessToken, result.AccessToken, time.Now().Add(tokens.AccessTokenTTL)))
		http.SetCookie(w, cookie.New(cookie.RefreshToken, result.RefreshToken, time.Now().Add(tokens.RefreshTokenTTL)))

		log.Info("tokens refreshed", slog.String("username", result.User.Username))

		resp.OK(w, r, http.StatusOK, Response{
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
		}, "access token refreshed successfully")
	}
}
