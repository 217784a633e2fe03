package entity

import (
	"time"

	"github.com/google/uuid"
)

// Уровни сложности вопроса
const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
)

// DefaultPoints — базовая таблица очков по сложности.
// Может быть переопределена через конфигурацию (game.points_for).
var DefaultPoints = map[string]int{
	DifficultyEasy:   1,
	DifficultyMedium: 2,
	DifficultyHard:   3,
}

// Question представляет вопрос. Вопросы существуют независимо от викторин
// и могут переиспользоваться через привязки TriviaQuestion.
type Question struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Text            string    `gorm:"size:500;not null" json:"text"`
	Difficulty      string    `gorm:"size:20;not null;default:'EASY'" json:"difficulty"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"created_by_user_id"`
	Options         []Option  `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// Option представляет вариант ответа на вопрос.
// Ровно один вариант вопроса имеет is_correct=true.
type Option struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Text       string    `gorm:"size:500;not null" json:"text"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"-"` // Скрыто от клиента
}

// TableName определяет имя таблицы для GORM
func (Option) TableName() string {
	return "options"
}

// CorrectOption возвращает правильный вариант из списка или nil
func CorrectOption(options []Option) *Option {
	for i := range options {
		if options[i].IsCorrect {
			return &options[i]
		}
	}
	return nil
}

// IncorrectOptions возвращает все неправильные варианты
func IncorrectOptions(options []Option) []Option {
	var out []Option
	for _, opt := range options {
		if !opt.IsCorrect {
			out = append(out, opt)
		}
	}
	return out
}
