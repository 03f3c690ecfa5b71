package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "lumpiah/internal/core/context"
)

func newTestService(t *testing.T, now time.Time) *JWTService {
	t.Helper()
	s, err := NewJWTService(DefaultJWTConfig("test-secret"))
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func TestJWT_RoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	s := newTestService(t, now)
	user := appctx.UserContext{
		UserID:      "baker-1",
		BranchID:    "0190a1b2-0000-7000-8000-000000000001",
		Email:       "baker@example.com",
		Roles:       []string{"baker"},
		Permissions: []string{"production:plan:read", "production:realization:write"},
	}

	token, expires, err := s.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.Equal(t, now.Add(12*time.Hour), expires)

	got, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, &user, got)
}

func TestJWT_Expired(t *testing.T) {
	issued := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	s := newTestService(t, issued)
	token, _, err := s.GenerateAccessToken(appctx.UserContext{UserID: "u"})
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(13 * time.Hour) }
	_, err = s.ValidateToken(token)

	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWT_WrongSecret(t *testing.T) {
	now := time.Now()
	s := newTestService(t, now)
	token, _, err := s.GenerateAccessToken(appctx.UserContext{UserID: "u"})
	require.NoError(t, err)

	other, err := NewJWTService(DefaultJWTConfig("another-secret"))
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWT_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	assert.Error(t, err)
}
