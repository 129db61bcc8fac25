package login

import (
	"log/slog"
	"net/http"
	"time"

	"user_service/internal/apperror"
	"user_service/internal/config"
	"user_service/internal/lib/api/cookie"
	resp "user_service/internal/lib/api/response"
	sl "user_service/internal/lib/logger"
	"user_service/internal/models"
	"user_service/internal/user"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type Response struct {
	User         models.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	svc *user.Service,
	tokens config.Tokens,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			resp.Err(w, r, apperror.Validation("failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			resp.ValidationError(w, r, validateErr)

			return
		}

		result, err := svc.Login(r.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			resp.Err(w, r, err)

			return
		}

		http.SetCookie(w, cookie.New(cookie.AccessToken, result.AccessToken, time.Now().Add(tokens.AccessTokenTTL)))
		http.SetCookie(w, cookie.New(cookie.RefreshToken, result.RefreshToken, time.Now().Add(tokens.RefreshTokenTTL)))

		log.Info("user logged in", slog.String("username", result.User.Username))

		resp.OK(w, r, http.StatusOK, Response{
			User:         result.User,
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
		}, "user logged in successfully")
	}
}
