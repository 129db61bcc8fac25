package channel

import (
	"log/slog"
	"net/http"

	"user_service/internal/http_server/middleware/authn"
	resp "user_service/internal/lib/api/response"
	"user_service/internal/user"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// New serves the aggregated channel profile. The viewer's id (when
// authenticated) feeds the isSubscribed flag.
func New(log *slog.Logger, svc *user.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.channel.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		viewerID := ""
		if u, ok := authn.FromContext(r.Context()); ok {
			viewerID = u.ID.Hex()
		}

		username := chi.URLParam(r, "username")

		profile, err := svc.ChannelProfile(r.Context(), username, viewerID)
		if err != nil {
			resp.Err(w, r, err)

			return
		}

		log.Info("channel fetched", slog.String("channel", profile.Username))

		resp.OK(w, r, http.StatusOK, profile, "user channel fetched successfully")
	}
}
