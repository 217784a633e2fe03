package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/trivia-live/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByIDs возвращает пользователей одним запросом (вместо N запросов)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.User, error)
}
