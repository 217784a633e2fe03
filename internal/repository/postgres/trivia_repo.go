package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/trivia-live/internal/domain/entity"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
)

// TriviaRepo реализует repository.TriviaRepository
type TriviaRepo struct {
	db *gorm.DB
}

// NewTriviaRepo создает новый репозиторий викторин
func NewTriviaRepo(db *gorm.DB) *TriviaRepo {
	return &TriviaRepo{db: db}
}

// Create создает новую викторину
func (r *TriviaRepo) Create(ctx context.Context, trivia *entity.Trivia) error {
	return r.db.WithContext(ctx).Create(trivia).Error
}

// GetByID возвращает викторину по ID
func (r *TriviaRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Trivia, error) {
	var trivia entity.Trivia
	err := r.db.WithContext(ctx).First(&trivia, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &trivia, nil
}

// GetByIDForUpdate возвращает викторину с блокировкой строки.
// Конкурентные Start/Advance/Submit по одной викторине линеаризуются БД:
// второй вызов ждет коммита первого и перечитывает уже новый статус.
func (r *TriviaRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Trivia, error) {
	var trivia entity.Trivia
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&trivia, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &trivia, nil
}

// Update обновляет викторину целиком
func (r *TriviaRepo) Update(ctx context.Context, trivia *entity.Trivia) error {
	// Save не пишет NULL в nullable-поля, поэтому используем Select("*"):
	// Reset обязан очистить question_started_at/started_at/finished_at.
	return r.db.WithContext(ctx).Model(trivia).Select("*").Omit("created_at").Updates(trivia).Error
}

// ListByCreator возвращает викторины, созданные пользователем
func (r *TriviaRepo) ListByCreator(ctx context.Context, userID uuid.UUID) ([]entity.Trivia, error) {
	var trivias []entity.Trivia
	err := r.db.WithContext(ctx).
		Where("created_by_user_id = ?", userID).
		Order("created_at DESC").
		Find(&trivias).Error
	return trivias, err
}

// ListByIDs возвращает викторины по списку ID одним запросом
func (r *TriviaRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Trivia, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var trivias []entity.Trivia
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&trivias).Error
	return trivias, err
}
