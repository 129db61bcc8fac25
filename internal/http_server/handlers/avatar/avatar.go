package avatar

import (
	"context"
	"log/slog"
	"net/http"

	"user_service/internal/apperror"
	"user_service/internal/http_server/middleware/authn"
	resp "user_service/internal/lib/api/response"
	"user_service/internal/lib/api/upload"
	sl "user_service/internal/lib/logger"
	"user_service/internal/models"
	"user_service/internal/user"

	"github.com/go-chi/chi/middleware"
)

// New handles the avatar upload endpoint.
func New(log *slog.Logger, svc *user.Service) http.HandlerFunc {
	return newImageHandler(log, "handlers.avatar.New", "avatar",
		"avatar updated successfully", svc.UpdateAvatar)
}

// NewCover handles the cover image upload endpoint.
func NewCover(log *slog.Logger, svc *user.Service) http.HandlerFunc {
	return newImageHandler(log, "handlers.avatar.NewCover", "coverImage",
		"cover image updated successfully", svc.UpdateCoverImage)
}

func newImageHandler(
	log *slog.Logger,
	op, field, okMessage string,
	update func(ctx context.Context, userID, localPath string) (models.PublicUser, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		u, ok := authn.FromContext(r.Context())
		if !ok {
			resp.Err(w, r, apperror.Auth("unauthorized request"))

			return
		}

		if err := r.ParseMultipartForm(upload.MaxMemory); err != nil {
			log.Error("failed to parse multipart form", sl.Err(err))

			resp.Err(w, r, apperror.Validation("failed to parse form"))

			return
		}

		path, err := upload.SaveTemp(r, field)
		if err != nil {
			log.Error("failed to save uploaded file", sl.Err(err))

			resp.Err(w, r, apperror.Internal(err))

			return
		}
		defer upload.Cleanup(path)

		updated, err := update(r.Context(), u.ID.Hex(), path)
		if err != nil {
			resp.Err(w, r, err)

			return
		}

		log.Info("image updated", slog.String("username", updated.Username))

		resp.OK(w, r, http.StatusOK, updated, okMessage)
	}
}
