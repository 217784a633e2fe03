package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndParse(t *testing.T) {
	service, err := NewJWTService("test-secret", 24)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := service.GenerateToken(userID, "user@example.com", "PLAYER")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "PLAYER", claims.Role)

	parsed, err := claims.ParsedUserID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestJWTService_WrongSecret(t *testing.T) {
	issuer, err := NewJWTService("secret-one", 24)
	require.NoError(t, err)
	verifier, err := NewJWTService("secret-two", 24)
	require.NoError(t, err)

	token, err := issuer.GenerateToken(uuid.New(), "user@example.com", "PLAYER")
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	service, err := NewJWTService("test-secret", 1)
	require.NoError(t, err)
	service.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := service.GenerateToken(uuid.New(), "user@example.com", "PLAYER")
	require.NoError(t, err)

	_, err = service.ParseToken(token)
	assert.Error(t, err)
}

func TestJWTService_EmptySecret(t *testing.T) {
	_, err := NewJWTService("", 24)
	assert.Error(t, err)
}

func TestJWTService_GarbageToken(t *testing.T) {
	service, err := NewJWTService("test-secret", 24)
	require.NoError(t, err)

	_, err = service.ParseToken("not-a-token")
	assert.Error(t, err)
}
