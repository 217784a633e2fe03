package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/trivia-live/internal/domain/entity"
)

// ParticipationRepository определяет методы для работы с участиями
type ParticipationRepository interface {
	Create(ctx context.Context, participation *entity.Participation) error

	// Update перезаписывает участие целиком. Вызывающий код обязан держать
	// блокировку строки викторины (GetByIDForUpdate), иначе полная запись
	// может затереть конкурентный коммит.
	Update(ctx context.Context, participation *entity.Participation) error

	// UpdateLastSeen пишет только last_seen_at, не трогая остальные колонки.
	// Heartbeat-ы идут вне блокировки викторины, поэтому им запрещена
	// полная перезапись строки. NotFound, если участия нет.
	UpdateLastSeen(ctx context.Context, triviaID, userID uuid.UUID, seenAt time.Time) error

	GetByTriviaAndUser(ctx context.Context, triviaID, userID uuid.UUID) (*entity.Participation, error)
	// ListByTrivia возвращает участия викторины, отсортированные по score DESC
	ListByTrivia(ctx context.Context, triviaID uuid.UUID) ([]entity.Participation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Participation, error)

	// RecomputeScore пересчитывает и сохраняет счёт одного участия как
	// COALESCE(SUM(earned_points), 0) по его ответам. Счёт никогда не
	// инкрементируется на месте — только выводится из журнала ответов.
	RecomputeScore(ctx context.Context, triviaID, userID uuid.UUID) (int, error)

	// RecomputeScoresForTrivia применяет тот же пересчёт ко всем участиям
	// викторины. Вызывается перед каждым чтением рейтинга.
	RecomputeScoresForTrivia(ctx context.Context, triviaID uuid.UUID) error

	// ResetForTrivia обнуляет счёт и флаги подсказки всех участий викторины
	ResetForTrivia(ctx context.Context, triviaID uuid.UUID) error
}
