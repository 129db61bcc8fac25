package profile

import (
	"log/slog"
	"net/http"

	"user_service/internal/apperror"
	"user_service/internal/http_server/middleware/authn"
	resp "user_service/internal/lib/api/response"
	sl "user_service/internal/lib/logger"
	"user_service/internal/user"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type UpdateRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// Current returns the authenticated account.
func Current(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := authn.FromContext(r.Context())
		if !ok {
			resp.Err(w, r, apperror.Auth("unauthorized request"))

			return
		}

		resp.OK(w, r, http.StatusOK, u.Public(), "current user fetched successfully")
	}
}

// Update changes display name and email.
func Update(
	log *slog.Logger,
	validate *validator.Validate,
	svc *user.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.profile.Update"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		u, ok := authn.FromContext(r.Context())
		if !ok {
			resp.Err(w, r, apperror.Auth("unauthorized request"))

			return
		}

		var req UpdateRequest

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

		updated, err := svc.UpdateProfile(r.Context(), u.ID.Hex(), req.FullName, req.Email)
		if err != nil {
			resp.Err(w, r, err)

			return
		}

		log.Info("profile updated", slog.String("username", updated.Username))

		resp.OK(w, r, http.StatusOK, updated, "account details updated successfully")
	}
}
