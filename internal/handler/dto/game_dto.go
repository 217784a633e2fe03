// Package dto содержит структуры запросов и ответов HTTP-слоя.
package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/trivia-live/internal/domain/entity"
)

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"omitempty,oneof=ADMIN PLAYER"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse представляет пользователя в ответе клиенту
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse создает DTO пользователя
func NewUserResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// AuthResponse представляет ответ на регистрацию или вход
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// CreateTriviaRequest представляет запрос на создание викторины
type CreateTriviaRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// AddQuestionOption — вариант ответа в запросе добавления вопроса
type AddQuestionOption struct {
	Text      string `json:"text" binding:"required,max=500"`
	IsCorrect bool   `json:"is_correct"`
}

// AddQuestionRequest представляет запрос на добавление вопроса к викторине
type AddQuestionRequest struct {
	Text             string              `json:"text" binding:"required,max=500"`
	Difficulty       string              `json:"difficulty" binding:"required,oneof=EASY MEDIUM HARD"`
	TimeLimitSeconds int                 `json:"time_limit_seconds" binding:"omitempty,min=5,max=600"`
	Options          []AddQuestionOption `json:"options" binding:"required,min=2,dive"`
}

// AssignPlayerRequest представляет запрос на назначение игрока
type AssignPlayerRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// SubmitAnswerRequest представляет запрос на отправку ответа
type SubmitAnswerRequest struct {
	SelectedOptionID uuid.UUID `json:"selected_option_id" binding:"required"`
}

// FiftyFiftyRequest представляет запрос на использование подсказки 50/50
type FiftyFiftyRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
}

// TicketResponse представляет выданный билет на подписку
type TicketResponse struct {
	Ticket           string `json:"ticket"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// TriviaResponse представляет викторину в ответе клиенту
type TriviaResponse struct {
	ID                   uuid.UUID  `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	State                string     `json:"state"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	FinishedAt           *time.Time `json:"finished_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// NewTriviaResponse создает DTO викторины (статус в публичной проекции)
func NewTriviaResponse(trivia *entity.Trivia) TriviaResponse {
	return TriviaResponse{
		ID:                   trivia.ID,
		Title:                trivia.Title,
		Description:          trivia.Description,
		State:                trivia.PublicState(),
		CurrentQuestionIndex: trivia.CurrentQuestionIndex,
		StartedAt:            trivia.StartedAt,
		FinishedAt:           trivia.FinishedAt,
		CreatedAt:            trivia.CreatedAt,
	}
}

// NewTriviaListResponse создает список DTO викторин
func NewTriviaListResponse(trivias []entity.Trivia) []TriviaResponse {
	out := make([]TriviaResponse, 0, len(trivias))
	for i := range trivias {
		out = append(out, NewTriviaResponse(&trivias[i]))
	}
	return out
}
