package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/trivia-live/internal/domain/entity"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
	"github.com/yourusername/trivia-live/pkg/auth"
)

func newAuthService(t *testing.T, env *testEnv) *AuthService {
	t.Helper()
	jwtService, err := auth.NewJWTService("test-secret", 24)
	require.NoError(t, err)
	return NewAuthService(env.repos, jwtService)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newAuthService(t, env)

	registered, err := svc.Register(ctx, "alice", "alice@example.com", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, entity.RolePlayer, registered.User.Role, "роль по умолчанию PLAYER")
	assert.NotEmpty(t, registered.Token)
	assert.NotEqual(t, "password123", registered.User.PasswordHash, "пароль хранится только хешем")

	logged, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, logged.User.ID)
	assert.NotEmpty(t, logged.Token)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newAuthService(t, env)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "password123", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice2", "alice@example.com", "password456", "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestAuthService_Register_UnknownRole(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(t, env)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "password123", "SUPERUSER")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAuthService_Login_WrongCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newAuthService(t, env)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "password123", "")
	require.NoError(t, err)

	// Оба случая неразличимы для клиента
	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
