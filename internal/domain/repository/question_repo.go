package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/trivia-live/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Question, error)
}

// OptionRepository определяет методы для работы с вариантами ответа
type OptionRepository interface {
	CreateBatch(ctx context.Context, options []entity.Option) error
	ListByQuestionID(ctx context.Context, questionID uuid.UUID) ([]entity.Option, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Option, error)
}
