package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/trivia-live/internal/domain/entity"
)

// AnswerRepository определяет методы для журнала ответов
type AnswerRepository interface {
	// Create вставляет ответ. Нарушение уникальности
	// (participation_id, trivia_question_id) возвращается как ErrConflict.
	Create(ctx context.Context, answer *entity.Answer) error
	GetByParticipationAndTriviaQuestion(ctx context.Context, participationID, triviaQuestionID uuid.UUID) (*entity.Answer, error)
	ListByParticipation(ctx context.Context, participationID uuid.UUID) ([]entity.Answer, error)
	// DeleteByTrivia удаляет все ответы участий викторины.
	// Единственный путь уничтожения ответов — Reset викторины.
	DeleteByTrivia(ctx context.Context, triviaID uuid.UUID) error
}
