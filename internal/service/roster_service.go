package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/yourusername/trivia-live/internal/config"
	"github.com/yourusername/trivia-live/internal/domain/entity"
	"github.com/yourusername/trivia-live/internal/domain/repository"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
)

// OptionInput — вариант ответа при создании вопроса
type OptionInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// RosterService — административная сборка викторины: создание, вопросы,
// назначение игроков. Игровые переходы живут в GameService.
type RosterService struct {
	tx    repository.TxManager
	repos *repository.Repositories
	email EmailService
	cfg   *config.GameConfig
}

// NewRosterService создает новый сервис ростера
func NewRosterService(tx repository.TxManager, repos *repository.Repositories, email EmailService, cfg *config.GameConfig) *RosterService {
	return &RosterService{tx: tx, repos: repos, email: email, cfg: cfg}
}

// CreateTrivia создает новую викторину в статусе DRAFT
func (s *RosterService) CreateTrivia(ctx context.Context, creatorID uuid.UUID, title, description string) (*entity.Trivia, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	trivia := &entity.Trivia{
		ID:              uuid.New(),
		Title:           title,
		Description:     description,
		CreatedByUserID: creatorID,
		Status:          entity.TriviaStatusDraft,
	}
	if err := s.repos.Trivias.Create(ctx, trivia); err != nil {
		return nil, err
	}
	return trivia, nil
}

// GetTrivia возвращает викторину по ID
func (s *RosterService) GetTrivia(ctx context.Context, id uuid.UUID) (*entity.Trivia, error) {
	return s.repos.Trivias.GetByID(ctx, id)
}

// ListTriviasByCreator возвращает викторины создателя
func (s *RosterService) ListTriviasByCreator(ctx context.Context, creatorID uuid.UUID) ([]entity.Trivia, error) {
	return s.repos.Trivias.ListByCreator(ctx, creatorID)
}

// AddQuestion создает вопрос с вариантами и привязывает его к викторине
// следующей позицией. timeLimitSeconds <= 0 означает лимит по умолчанию.
// Требования: >= 2 вариантов, ровно один правильный.
func (s *RosterService) AddQuestion(
	ctx context.Context,
	triviaID, adminUserID uuid.UUID,
	text, difficulty string,
	options []OptionInput,
	timeLimitSeconds int,
) (*entity.TriviaQuestion, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: question text is required", apperrors.ErrValidation)
	}
	switch difficulty {
	case entity.DifficultyEasy, entity.DifficultyMedium, entity.DifficultyHard:
	default:
		return nil, fmt.Errorf("%w: unknown difficulty %q", apperrors.ErrValidation, difficulty)
	}
	if len(options) < 2 {
		return nil, fmt.Errorf("%w: a question needs at least 2 options", apperrors.ErrValidation)
	}
	correctCount := 0
	for _, opt := range options {
		if opt.IsCorrect {
			correctCount++
		}
	}
	if correctCount != 1 {
		return nil, fmt.Errorf("%w: exactly one option must be correct, got %d", apperrors.ErrValidation, correctCount)
	}
	if timeLimitSeconds <= 0 {
		timeLimitSeconds = s.cfg.DefaultQuestionTimeLimit
	}

	var binding *entity.TriviaQuestion
	err := s.tx.WithinTx(ctx, func(r *repository.Repositories) error {
		trivia, err := r.Trivias.GetByIDForUpdate(ctx, triviaID)
		if err != nil {
			return err
		}
		if trivia.CreatedByUserID != adminUserID {
			return fmt.Errorf("%w: only the creator can add questions", apperrors.ErrForbidden)
		}
		if trivia.IsInProgress() || trivia.IsFinished() {
			return fmt.Errorf("%w: trivia %s is %s, questions are frozen", apperrors.ErrInvalidState, triviaID, trivia.Status)
		}

		question := &entity.Question{
			ID:              uuid.New(),
			Text:            text,
			Difficulty:      difficulty,
			CreatedByUserID: adminUserID,
		}
		if err := r.Questions.Create(ctx, question); err != nil {
			return err
		}

		batch := make([]entity.Option, 0, len(options))
		for _, opt := range options {
			batch = append(batch, entity.Option{
				ID:         uuid.New(),
				QuestionID: question.ID,
				Text:       opt.Text,
				IsCorrect:  opt.IsCorrect,
			})
		}
		if err := r.Options.CreateBatch(ctx, batch); err != nil {
			return err
		}

		// Позиции плотные 0..N-1: следующая позиция — текущее количество
		count, err := r.TriviaQuestions.CountByTrivia(ctx, triviaID)
		if err != nil {
			return err
		}
		binding = &entity.TriviaQuestion{
			ID:               uuid.New(),
			TriviaID:         triviaID,
			QuestionID:       question.ID,
			Position:         count,
			TimeLimitSeconds: timeLimitSeconds,
		}
		return r.TriviaQuestions.Create(ctx, binding)
	})
	if err != nil {
		return nil, err
	}
	return binding, nil
}

// AssignPlayer назначает пользователя в викторину (участие INVITED)
// и отправляет письмо-приглашение. Ошибка отправки письма не откатывает
// назначение, только логируется.
func (s *RosterService) AssignPlayer(ctx context.Context, triviaID, adminUserID, playerID uuid.UUID) (*entity.Participation, error) {
	var participation *entity.Participation
	var player *entity.User
	var trivia *entity.Trivia

	err := s.tx.WithinTx(ctx, func(r *repository.Repositories) error {
		var err error
		trivia, err = r.Trivias.GetByID(ctx, triviaID)
		if err != nil {
			return err
		}
		if trivia.CreatedByUserID != adminUserID {
			return fmt.Errorf("%w: only the creator can assign players", apperrors.ErrForbidden)
		}
		if trivia.IsInProgress() || trivia.IsFinished() {
			return fmt.Errorf("%w: trivia %s is %s, roster is frozen", apperrors.ErrInvalidState, triviaID, trivia.Status)
		}

		player, err = r.Users.GetByID(ctx, playerID)
		if err != nil {
			return err
		}

		participation = &entity.Participation{
			ID:       uuid.New(),
			TriviaID: triviaID,
			UserID:   playerID,
			Status:   entity.ParticipationStatusInvited,
		}
		return r.Participations.Create(ctx, participation)
	})
	if err != nil {
		return nil, err
	}

	if err := s.email.SendInvitation(ctx, player.Email, player.Name, trivia.Title); err != nil {
		log.Printf("[RosterService] Не удалось отправить приглашение %s: %v", player.Email, err)
	}
	return participation, nil
}

// ListAssignedTrivias возвращает викторины, в которые назначен пользователь
func (s *RosterService) ListAssignedTrivias(ctx context.Context, userID uuid.UUID) ([]entity.Trivia, error) {
	participations, err := s.repos.Participations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(participations))
	for _, p := range participations {
		ids = append(ids, p.TriviaID)
	}
	return s.repos.Trivias.ListByIDs(ctx, ids)
}
