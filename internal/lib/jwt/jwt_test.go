package jwt

import (
	"testing"
	"time"

	"user_service/internal/config"
	"user_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testUser() models.User {
	return models.User{
		ID:       primitive.NewObjectID(),
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
	}
}

func newTestManager(accessTTL, refreshTTL time.Duration) *Manager {
	return NewManager(config.Tokens{
		AccessTokenSecret:  "test-access-secret",
		AccessTokenTTL:     accessTTL,
		RefreshTokenSecret: "test-refresh-secret",
		RefreshTokenTTL:    refreshTTL,
	})
}

func TestManager_AccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManager(15*time.Minute, 240*time.Hour)
	u := testUser()

	token, err := m.NewAccessToken(u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ParseAccess(token)
	require.NoError(t, err)

	assert.Equal(t, u.ID.Hex(), claims.Subject)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, u.Username, claims.Username)
	assert.Equal(t, u.FullName, claims.FullName)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestManager_RefreshToken_RoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManager(15*time.Minute, 240*time.Hour)
	u := testUser()

	token, err := m.NewRefreshToken(u.ID.Hex())
	require.NoError(t, err)

	subject, err := m.ParseRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), subject)
}

func TestManager_NewPair_DistinctTokens(t *testing.T) {
	t.Parallel()

	m := newTestManager(15*time.Minute, 240*time.Hour)

	pair, err := m.NewPair(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
}

func TestManager_CrossSecretParseFails(t *testing.T) {
	t.Parallel()

	m := newTestManager(15*time.Minute, 240*time.Hour)
	u := testUser()

	// an access token must not verify as a refresh token and vice versa
	access, err := m.NewAccessToken(u)
	require.NoError(t, err)

	_, err = m.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	refresh, err := m.NewRefreshToken(u.ID.Hex())
	require.NoError(t, err)

	_, err = m.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_GarbageToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(15*time.Minute, 240*time.Hour)

	_, err := m.ParseAccess("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_ExpiredToken(t *testing.T) {
	t.Parallel()

	m := newTestManager(-time.Minute, -time.Minute)
	u := testUser()

	access, err := m.NewAccessToken(u)
	require.NoError(t, err)

	_, err = m.ParseAccess(access)
	assert.ErrorIs(t, err, ErrExpiredToken)

	refresh, err := m.NewRefreshToken(u.ID.Hex())
	require.NoError(t, err)

	_, err = m.ParseRefresh(refresh)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
