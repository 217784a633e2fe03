package entity

import (
	"time"

	"github.com/google/uuid"
)

// Константы статусов викторины
const (
	TriviaStatusDraft      = "DRAFT"
	TriviaStatusLobby      = "LOBBY"
	TriviaStatusInProgress = "IN_PROGRESS"
	TriviaStatusFinished   = "FINISHED"
)

// Trivia представляет игровую сессию викторины.
// question_started_at не NULL тогда и только тогда, когда статус IN_PROGRESS.
type Trivia struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title                string     `gorm:"size:100;not null" json:"title"`
	Description          string     `gorm:"size:500;not null;default:''" json:"description"`
	CreatedByUserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"created_by_user_id"`
	Status               string     `gorm:"size:20;not null;default:'DRAFT';index" json:"status"`
	CurrentQuestionIndex int        `gorm:"not null;default:0" json:"current_question_index"`
	QuestionStartedAt    *time.Time `json:"question_started_at,omitempty"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	FinishedAt           *time.Time `json:"finished_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Trivia) TableName() string {
	return "trivias"
}

// IsJoinable проверяет, можно ли присоединиться к викторине
func (t *Trivia) IsJoinable() bool {
	return t.Status == TriviaStatusDraft || t.Status == TriviaStatusLobby
}

// IsInProgress проверяет, идет ли викторина
func (t *Trivia) IsInProgress() bool {
	return t.Status == TriviaStatusInProgress
}

// IsFinished проверяет, завершена ли викторина
func (t *Trivia) IsFinished() bool {
	return t.Status == TriviaStatusFinished
}

// PublicState отображает внутренний статус в состояние для клиентов
// (DRAFT и LOBBY снаружи выглядят одинаково — ожидание).
func (t *Trivia) PublicState() string {
	switch t.Status {
	case TriviaStatusInProgress:
		return "IN_PROGRESS"
	case TriviaStatusFinished:
		return "FINISHED"
	default:
		return "WAITING"
	}
}
