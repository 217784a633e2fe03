package entity

import "github.com/google/uuid"

// TriviaQuestion — упорядоченная привязка вопроса к викторине с лимитом
// времени на ответ. Позиции плотные: 0..N-1, без пропусков.
// Уникальность (trivia_id, position) и (trivia_id, question_id) обеспечивается БД.
type TriviaQuestion struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TriviaID         uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_trivia_position,priority:1;uniqueIndex:uq_trivia_question,priority:1" json:"trivia_id"`
	QuestionID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_trivia_question,priority:2" json:"question_id"`
	Position         int       `gorm:"not null;uniqueIndex:uq_trivia_position,priority:2" json:"position"`
	TimeLimitSeconds int       `gorm:"not null;default:30" json:"time_limit_seconds"`
}

// TableName определяет имя таблицы для GORM
func (TriviaQuestion) TableName() string {
	return "trivia_questions"
}
