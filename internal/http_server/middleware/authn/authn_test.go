package authn

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"user_service/internal/config"
	"user_service/internal/lib/jwt"
	"user_service/internal/models"
	"user_service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubProvider struct {
	user models.User
}

func (s stubProvider) UserByID(_ context.Context, id string) (models.User, error) {
	if s.user.ID.Hex() == id {
		return s.user, nil
	}
	return models.User{}, storage.ErrUserNotFound
}

func setup(t *testing.T) (*jwt.Manager, models.User, http.Handler) {
	t.Helper()

	tokens := jwt.NewManager(config.Tokens{
		AccessTokenSecret:  "test-access-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenSecret: "test-refresh-secret",
		RefreshTokenTTL:    240 * time.Hour,
	})

	u := models.User{
		ID:       primitive.NewObjectID(),
		Username: "alice",
		Email:    "alice@example.com",
	}

	// next replies 200 only when the account made it into the context
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := FromContext(r.Context())
		if !ok || got.Username != u.Username {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mw := New(slog.New(slog.NewTextHandler(io.Discard, nil)), tokens, stubProvider{user: u})

	return tokens, u, mw(next)
}

func TestAuthn_CookieToken(t *testing.T) {
	t.Parallel()

	tokens, u, handler := setup(t)

	access, err := tokens.NewAccessToken(u)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: access})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthn_BearerToken(t *testing.T) {
	t.Parallel()

	tokens, u, handler := setup(t)

	access, err := tokens.NewAccessToken(u)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthn_MissingToken(t *testing.T) {
	t.Parallel()

	_, _, handler := setup(t)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthn_RefreshTokenRejected(t *testing.T) {
	t.Parallel()

	tokens, u, handler := setup(t)

	// a refresh token must not pass access verification
	refresh, err := tokens.NewRefreshToken(u.ID.Hex())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
