package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/trivia-live/internal/domain/entity"
)

// TriviaQuestionRepository определяет методы для привязок вопросов к викторинам
type TriviaQuestionRepository interface {
	Create(ctx context.Context, binding *entity.TriviaQuestion) error
	// CountByTrivia возвращает количество привязанных вопросов
	CountByTrivia(ctx context.Context, triviaID uuid.UUID) (int, error)
	// GetByTriviaAndOrder возвращает привязку по позиции (0-based)
	GetByTriviaAndOrder(ctx context.Context, triviaID uuid.UUID, position int) (*entity.TriviaQuestion, error)
	ListByTrivia(ctx context.Context, triviaID uuid.UUID) ([]entity.TriviaQuestion, error)
}
