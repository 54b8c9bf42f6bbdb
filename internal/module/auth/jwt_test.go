package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *JWTManager {
	return NewJWTManager(&JWTConfig{
		Secret:            "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "mockmate-test",
	})
}

func TestJWTRoundTrip(t *testing.T) {
	m := testManager()
	user := &model.User{ID: uuid.New(), Email: "candidate@example.com"}

	token, expiresAt, err := m.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, "mockmate-test", claims.Issuer)
}

func TestJWTValidateRejects(t *testing.T) {
	m := testManager()
	user := &model.User{ID: uuid.New(), Email: "candidate@example.com"}

	t.Run("garbage token", func(t *testing.T) {
		_, err := m.ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := m.GenerateAccessToken(user)
		require.NoError(t, err)

		other := NewJWTManager(&JWTConfig{Secret: "other-secret", AccessTokenExpiry: time.Hour})
		_, err = other.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		short := NewJWTManager(&JWTConfig{Secret: "test-secret", AccessTokenExpiry: -time.Minute})
		token, _, err := short.GenerateAccessToken(user)
		require.NoError(t, err)

		_, err = m.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
