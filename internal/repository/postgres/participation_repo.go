package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/trivia-live/internal/domain/entity"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
)

// ParticipationRepo реализует repository.ParticipationRepository
type ParticipationRepo struct {
	db *gorm.DB
}

// NewParticipationRepo создает новый репозиторий участий
func NewParticipationRepo(db *gorm.DB) *ParticipationRepo {
	return &ParticipationRepo{db: db}
}

// Create создает новое участие. Дубликат (trivia_id, user_id) → ErrConflict.
func (r *ParticipationRepo) Create(ctx context.Context, participation *entity.Participation) error {
	if err := r.db.WithContext(ctx).Create(participation).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s already participates in trivia %s",
				apperrors.ErrConflict, participation.UserID, participation.TriviaID)
		}
		return err
	}
	return nil
}

// Update обновляет участие целиком (включая nullable-поля).
// Вызывается только под блокировкой строки викторины.
func (r *ParticipationRepo) Update(ctx context.Context, participation *entity.Participation) error {
	return r.db.WithContext(ctx).Model(participation).Select("*").Updates(participation).Error
}

// UpdateLastSeen пишет только last_seen_at одним целевым UPDATE:
// heartbeat не читает и не перезаписывает остальные колонки, поэтому
// не может затереть конкурентно закоммиченные статус или флаги подсказки
func (r *ParticipationRepo) UpdateLastSeen(ctx context.Context, triviaID, userID uuid.UUID, seenAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Participation{}).
		Where("trivia_id = ? AND user_id = ?", triviaID, userID).
		UpdateColumn("last_seen_at", seenAt)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetByTriviaAndUser возвращает участие по паре (викторина, пользователь)
func (r *ParticipationRepo) GetByTriviaAndUser(ctx context.Context, triviaID, userID uuid.UUID) (*entity.Participation, error) {
	var participation entity.Participation
	err := r.db.WithContext(ctx).
		Where("trivia_id = ? AND user_id = ?", triviaID, userID).
		First(&participation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participation, nil
}

// ListByTrivia возвращает участия викторины, отсортированные по score DESC
func (r *ParticipationRepo) ListByTrivia(ctx context.Context, triviaID uuid.UUID) ([]entity.Participation, error) {
	var participations []entity.Participation
	err := r.db.WithContext(ctx).
		Where("trivia_id = ?", triviaID).
		Order("score DESC").
		Find(&participations).Error
	return participations, err
}

// ListByUser возвращает все участия пользователя
func (r *ParticipationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Participation, error) {
	var participations []entity.Participation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&participations).Error
	return participations, err
}

// RecomputeScore пересчитывает счёт участия из журнала ответов одним UPDATE
// с коррелированным подзапросом. Возвращает новый счёт.
func (r *ParticipationRepo) RecomputeScore(ctx context.Context, triviaID, userID uuid.UUID) (int, error) {
	var score int
	err := r.db.WithContext(ctx).Raw(`
		UPDATE participations SET score = COALESCE(
			(SELECT SUM(a.earned_points) FROM answers a WHERE a.participation_id = participations.id), 0)
		WHERE trivia_id = ? AND user_id = ?
		RETURNING score`, triviaID, userID).Scan(&score).Error
	if err != nil {
		return 0, err
	}
	return score, nil
}

// RecomputeScoresForTrivia применяет пересчёт ко всем участиям викторины
func (r *ParticipationRepo) RecomputeScoresForTrivia(ctx context.Context, triviaID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE participations SET score = COALESCE(
			(SELECT SUM(a.earned_points) FROM answers a WHERE a.participation_id = participations.id), 0)
		WHERE trivia_id = ?`, triviaID).Error
}

// ResetForTrivia обнуляет счёт и флаги подсказки всех участий викторины
func (r *ParticipationRepo) ResetForTrivia(ctx context.Context, triviaID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.Participation{}).
		Where("trivia_id = ?", triviaID).
		Updates(map[string]interface{}{
			"score":                   0,
			"fifty_fifty_used":        false,
			"fifty_fifty_question_id": nil,
			"finished_at":             nil,
		}).Error
}
