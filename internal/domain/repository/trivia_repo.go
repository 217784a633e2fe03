package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/trivia-live/internal/domain/entity"
)

// TriviaRepository определяет методы для работы с викторинами
type TriviaRepository interface {
	Create(ctx context.Context, trivia *entity.Trivia) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Trivia, error)
	// GetByIDForUpdate читает викторину с блокировкой строки (SELECT ... FOR UPDATE).
	// Используется внутри транзакций Start/Advance/Reset/Submit, чтобы
	// линеаризовать конкурентные переходы состояния.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Trivia, error)
	Update(ctx context.Context, trivia *entity.Trivia) error
	ListByCreator(ctx context.Context, userID uuid.UUID) ([]entity.Trivia, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Trivia, error)
}
