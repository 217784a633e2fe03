package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/trivia-live/internal/domain/entity"
	"github.com/yourusername/trivia-live/internal/domain/repository"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
	"github.com/yourusername/trivia-live/pkg/auth"
)

// AuthResult — исход регистрации или входа
type AuthResult struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token"`
}

// AuthService отвечает за регистрацию и вход пользователей
type AuthService struct {
	repos      *repository.Repositories
	jwtService *auth.JWTService
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(repos *repository.Repositories, jwtService *auth.JWTService) *AuthService {
	return &AuthService{repos: repos, jwtService: jwtService}
}

// Register создает пользователя и сразу выдает токен.
// Дубликат email → ErrConflict.
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (*AuthResult, error) {
	if role == "" {
		role = entity.RolePlayer
	}
	if role != entity.RoleAdmin && role != entity.RolePlayer {
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Login проверяет пароль и выдает токен. Неверная пара → ErrUnauthorized
// без уточнения, что именно не совпало.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// GetUser возвращает пользователя по ID
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.repos.Users.GetByID(ctx, id)
}
