package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/trivia-live/internal/domain/entity"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Create вставляет ответ. Уникальный индекс (participation_id, trivia_question_id) —
// авторитетная защита от двойного ответа; проигравшая гонку вставка
// возвращается как ErrConflict и перечитывается вызывающим кодом.
func (r *AnswerRepo) Create(ctx context.Context, answer *entity.Answer) error {
	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: answer already submitted for this question", apperrors.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByParticipationAndTriviaQuestion возвращает ответ на конкретный вопрос
func (r *AnswerRepo) GetByParticipationAndTriviaQuestion(ctx context.Context, participationID, triviaQuestionID uuid.UUID) (*entity.Answer, error) {
	var answer entity.Answer
	err := r.db.WithContext(ctx).
		Where("participation_id = ? AND trivia_question_id = ?", participationID, triviaQuestionID).
		First(&answer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &answer, nil
}

// ListByParticipation возвращает все ответы участия
func (r *AnswerRepo) ListByParticipation(ctx context.Context, participationID uuid.UUID) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.WithContext(ctx).
		Where("participation_id = ?", participationID).
		Order("answered_at").
		Find(&answers).Error
	return answers, err
}

// DeleteByTrivia удаляет ответы всех участий викторины (используется Reset-ом)
func (r *AnswerRepo) DeleteByTrivia(ctx context.Context, triviaID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		DELETE FROM answers WHERE participation_id IN
			(SELECT id FROM participations WHERE trivia_id = ?)`, triviaID).Error
}
