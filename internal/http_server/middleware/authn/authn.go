package authn

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"user_service/internal/apperror"
	"user_service/internal/lib/api/cookie"
	resp "user_service/internal/lib/api/response"
	"user_service/internal/lib/jwt"
	sl "user_service/internal/lib/logger"
	"user_service/internal/models"
)

type ctxKey struct{}

type UserProvider interface {
	UserByID(ctx context.Context, id string) (models.User, error)
}

// New verifies the access token (cookie first, then Authorization bearer)
// and attaches the account to the request context. Verification is
// stateless: signature and expiry only.
func New(log *slog.Logger, tokens *jwt.Manager, provider UserProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authn.New"

			log := log.With(slog.String("op", op))

			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				resp.Err(w, r, apperror.Auth("unauthorized request"))
				return
			}

			claims, err := tokens.ParseAccess(tokenStr)
			if err != nil {
				resp.Err(w, r, apperror.Auth("invalid access token"))
				return
			}

			u, err := provider.UserByID(r.Context(), claims.Subject)
			if err != nil {
				log.Warn("token subject not found", sl.Err(err))
				resp.Err(w, r, apperror.Auth("invalid access token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), ctxKey{}, u),
			))
		}

		return http.HandlerFunc(fn)
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(cookie.AccessToken); err == nil && c.Value != "" {
		return c.Value
	}

	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}

	return ""
}

func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(models.User)
	return u, ok
}
