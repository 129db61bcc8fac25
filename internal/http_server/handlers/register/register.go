package register

import (
	"log/slog"
	"net/http"

	"user_service/internal/apperror"
	resp "user_service/internal/lib/api/response"
	"user_service/internal/lib/api/upload"
	sl "user_service/internal/lib/logger"
	"user_service/internal/user"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	FullName string `validate:"required"`
	Email    string `validate:"required,email"`
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// New handles multipart registration: form fields plus a required avatar
// file and an optional cover image.
func New(
	log *slog.Logger,
	validate *validator.Validate,
	svc *user.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if err := r.ParseMultipartForm(upload.MaxMemory); err != nil {
			log.Error("failed to parse multipart form", sl.Err(err))

			resp.Err(w, r, apperror.Validation("failed to parse form"))

			return
		}

		req := Request{
			FullName: r.FormValue("fullName"),
			Email:    r.FormValue("email"),
			Username: r.FormValue("username"),
			Password: r.FormValue("password"),
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			resp.ValidationError(w, r, validateErr)

			return
		}

		avatarPath, err := upload.SaveTemp(r, "avatar")
		if err != nil {
			log.Error("failed to save avatar file", sl.Err(err))

			resp.Err(w, r, apperror.Internal(err))

			return
		}

		coverPath, err := upload.SaveTemp(r, "coverImage")
		if err != nil {
			log.Error("failed to save cover image file", sl.Err(err))

			resp.Err(w, r, apperror.Internal(err))

			return
		}

		defer upload.Cleanup(avatarPath, coverPath)

		created, err := svc.Register(r.Context(), user.RegisterInput{
			FullName:   req.FullName,
			Email:      req.Email,
			Username:   req.Username,
			Password:   req.Password,
			AvatarPath: avatarPath,
			CoverPath:  coverPath,
		})
		if err != nil {
			resp.Err(w, r, err)

			return
		}

		log.Info("user registered", slog.String("username", created.Username))

		resp.OK(w, r, http.StatusCreated, created, "user registered successfully")
	}
}
