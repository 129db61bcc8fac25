package login

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"user_service/internal/config"
	"user_service/internal/lib/hash"
	"user_service/internal/lib/jwt"
	"user_service/internal/models"
	"user_service/internal/storage"
	"user_service/internal/user"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubStorage struct {
	user models.User
}

func (s *stubStorage) SaveUser(context.Context, *models.User) (string, error) {
	return "", storage.ErrUserExists
}

func (s *stubStorage) UserByLogin(_ context.Context, username, email string) (models.User, error) {
	if s.user.Username == username || s.user.Email == email {
		return s.user, nil
	}
	return models.User{}, storage.ErrUserNotFound
}

func (s *stubStorage) UserByID(_ context.Context, id string) (models.User, error) {
	if s.user.ID.Hex() == id {
		return s.user, nil
	}
	return models.User{}, storage.ErrUserNotFound
}

func (s *stubStorage) SetRefreshToken(_ context.Context, _, token string) error {
	s.user.RefreshToken = token
	return nil
}

func (s *stubStorage) ClearRefreshToken(context.Context, string) error {
	s.user.RefreshToken = ""
	return nil
}

func (s *stubStorage) UpdatePassword(context.Context, string, []byte) error { return nil }

func (s *stubStorage) UpdateProfile(context.Context, string, string, string) (models.User, error) {
	return s.user, nil
}

func (s *stubStorage) UpdateAvatar(context.Context, string, string) (models.User, error) {
	return s.user, nil
}

func (s *stubStorage) UpdateCoverImage(context.Context, string, string) (models.User, error) {
	return s.user, nil
}

func (s *stubStorage) ChannelProfile(context.Context, string, string) (models.ChannelProfile, error) {
	return models.ChannelProfile{}, storage.ErrChannelNotFound
}

type stubMedia struct{}

func (stubMedia) Upload(context.Context, string) (string, error) { return "", nil }

type stubPublisher struct{}

func (stubPublisher) Publish(context.Context, models.AccountEvent) error { return nil }

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func newTestHandler(t *testing.T) http.HandlerFunc {
	t.Helper()

	passHash, err := hash.Password("pw123")
	require.NoError(t, err)

	store := &stubStorage{user: models.User{
		ID:       primitive.NewObjectID(),
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
		Avatar:   "https://cdn.example.com/media/a.png",
		PassHash: passHash,
	}}

	tokens := config.Tokens{
		AccessTokenSecret:  "test-access-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenSecret: "test-refresh-secret",
		RefreshTokenTTL:    240 * time.Hour,
	}

	svc := user.New(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		store, store, stubMedia{}, stubPublisher{},
		jwt.NewManager(tokens),
	)

	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), validator.New(), svc, tokens)
}

func TestLoginHandler_SetsCookies(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		strings.NewReader(`{"username":"alice","password":"pw123"}`))
	rr := httptest.NewRecorder()

	handler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusOK, env.StatusCode)

	var data Response
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.AccessToken)
	assert.NotEmpty(t, data.RefreshToken)
	assert.Equal(t, "alice", data.User.Username)

	names := map[string]*http.Cookie{}
	for _, c := range rr.Result().Cookies() {
		names[c.Name] = c
	}
	require.Contains(t, names, "accessToken")
	require.Contains(t, names, "refreshToken")
	for _, c := range names {
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
	}

	// the hash and stored refresh token must never appear on the wire
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		strings.NewReader(`{"username":"alice","password":"nope"}`))
	rr := httptest.NewRecorder()

	handler(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Empty(t, rr.Result().Cookies())
}

func TestLoginHandler_MissingPassword(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		strings.NewReader(`{"username":"alice"}`))
	rr := httptest.NewRecorder()

	handler(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Errors)
}
