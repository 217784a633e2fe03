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

// TriviaQuestionRepo реализует repository.TriviaQuestionRepository
type TriviaQuestionRepo struct {
	db *gorm.DB
}

// NewTriviaQuestionRepo создает новый репозиторий привязок вопросов
func NewTriviaQuestionRepo(db *gorm.DB) *TriviaQuestionRepo {
	return &TriviaQuestionRepo{db: db}
}

// Create создает привязку вопроса к викторине.
// Дубликат позиции или вопроса внутри викторины → ErrConflict.
func (r *TriviaQuestionRepo) Create(ctx context.Context, binding *entity.TriviaQuestion) error {
	if err := r.db.WithContext(ctx).Create(binding).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: question already bound to trivia %s", apperrors.ErrConflict, binding.TriviaID)
		}
		return err
	}
	return nil
}

// CountByTrivia возвращает количество привязанных вопросов
func (r *TriviaQuestionRepo) CountByTrivia(ctx context.Context, triviaID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.TriviaQuestion{}).
		Where("trivia_id = ?", triviaID).
		Count(&count).Error
	return int(count), err
}

// GetByTriviaAndOrder возвращает привязку по позиции (0-based)
func (r *TriviaQuestionRepo) GetByTriviaAndOrder(ctx context.Context, triviaID uuid.UUID, position int) (*entity.TriviaQuestion, error) {
	var binding entity.TriviaQuestion
	err := r.db.WithContext(ctx).
		Where("trivia_id = ? AND position = ?", triviaID, position).
		First(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &binding, nil
}

// ListByTrivia возвращает привязки викторины в порядке позиций
func (r *TriviaQuestionRepo) ListByTrivia(ctx context.Context, triviaID uuid.UUID) ([]entity.TriviaQuestion, error) {
	var bindings []entity.TriviaQuestion
	err := r.db.WithContext(ctx).
		Where("trivia_id = ?", triviaID).
		Order("position").
		Find(&bindings).Error
	return bindings, err
}
