package entity

import (
	"time"

	"github.com/google/uuid"
)

// Answer — журнал ответов, каноничный источник очков. Создается ровно один
// раз на пару (participation, trivia_question); повторные submit читают
// существующую запись. Уникальность пары обеспечивается БД.
type Answer struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ParticipationID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_participation_question,priority:1" json:"participation_id"`
	TriviaQuestionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_participation_question,priority:2" json:"trivia_question_id"`
	SelectedOptionID uuid.UUID `gorm:"type:uuid;not null" json:"selected_option_id"`
	IsCorrect        bool      `gorm:"not null" json:"is_correct"`
	EarnedPoints     int       `gorm:"not null;default:0" json:"earned_points"`
	AnsweredAt       time.Time `gorm:"not null" json:"answered_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}
