package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/trivia-live/internal/domain/entity"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос (без вариантов; варианты пишутся отдельно батчем)
func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	return r.db.WithContext(ctx).Omit("Options").Create(question).Error
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Question, error) {
	var question entity.Question
	err := r.db.WithContext(ctx).First(&question, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// OptionRepo реализует repository.OptionRepository
type OptionRepo struct {
	db *gorm.DB
}

// NewOptionRepo создает новый репозиторий вариантов ответа
func NewOptionRepo(db *gorm.DB) *OptionRepo {
	return &OptionRepo{db: db}
}

// CreateBatch создает варианты ответа одним запросом
func (r *OptionRepo) CreateBatch(ctx context.Context, options []entity.Option) error {
	if len(options) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&options).Error
}

// ListByQuestionID возвращает варианты вопроса в стабильном порядке
func (r *OptionRepo) ListByQuestionID(ctx context.Context, questionID uuid.UUID) ([]entity.Option, error) {
	var options []entity.Option
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("id").
		Find(&options).Error
	return options, err
}

// GetByID возвращает вариант по ID
func (r *OptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Option, error) {
	var option entity.Option
	err := r.db.WithContext(ctx).First(&option, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &option, nil
}
