package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/trivia-live/internal/config"
	"github.com/yourusername/trivia-live/internal/domain/entity"
	"github.com/yourusername/trivia-live/internal/domain/repository"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
	"github.com/yourusername/trivia-live/internal/sse"
)

// OptionView — вариант ответа без флага правильности
type OptionView struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

// CurrentQuestionView — текущий вопрос для подписчиков события
type CurrentQuestionView struct {
	QuestionID           uuid.UUID    `json:"question_id"`
	Text                 string       `json:"text"`
	Options              []OptionView `json:"options"`
	TimeRemainingSeconds int          `json:"time_remaining_seconds"`
	QuestionIndex        int          `json:"question_index"`
	TotalQuestions       int          `json:"total_questions"`
}

// CurrentQuestionResult — текущий вопрос для конкретного игрока
type CurrentQuestionResult struct {
	CurrentQuestionView
	FiftyFiftyAvailable bool `json:"fifty_fifty_available"`
}

// SubmitResult — исход приёма ответа
type SubmitResult struct {
	TriviaID             uuid.UUID `json:"trivia_id"`
	QuestionID           uuid.UUID `json:"question_id"`
	SelectedOptionID     uuid.UUID `json:"selected_option_id"`
	IsCorrect            bool      `json:"is_correct"`
	EarnedPoints         int       `json:"earned_points"`
	TotalScore           int       `json:"total_score"`
	TimeRemainingSeconds int       `json:"time_remaining_seconds"`
}

// FiftyFiftyResult — суженный набор вариантов после подсказки
type FiftyFiftyResult struct {
	AllowedOptions []OptionView `json:"allowed_options"`
	FiftyFiftyUsed bool         `json:"fifty_fifty_used"`
}

// PlayService — конвейер приёма и оценки ответов плюс подсказка 50/50.
// Счёт участия никогда не инкрементируется на месте: после каждой вставки
// ответа он пересчитывается из журнала внутри той же транзакции.
type PlayService struct {
	tx        repository.TxManager
	repos     *repository.Repositories
	ranking   *RankingService
	publisher EventPublisher
	cfg       *config.GameConfig

	// подменяются в тестах
	now func() time.Time
	rnd *rand.Rand
}

// NewPlayService создает новый игровой сервис
func NewPlayService(
	tx repository.TxManager,
	repos *repository.Repositories,
	ranking *RankingService,
	publisher EventPublisher,
	cfg *config.GameConfig,
) *PlayService {
	return &PlayService{
		tx:        tx,
		repos:     repos,
		ranking:   ranking,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// pointsFor возвращает очки за сложность: из конфигурации, иначе из базовой таблицы
func (s *PlayService) pointsFor(difficulty string) int {
	if s.cfg.PointsFor != nil {
		if points, ok := s.cfg.PointsFor[difficulty]; ok {
			return points
		}
	}
	return entity.DefaultPoints[difficulty]
}

// remainingSeconds считает оставшееся время вопроса. Отрицательный elapsed
// (рассинхронизация часов) трактуется как ноль и логируется.
func (s *PlayService) remainingSeconds(questionStartedAt time.Time, timeLimit int, now time.Time) int {
	elapsed := int(now.Sub(questionStartedAt).Seconds())
	if elapsed < 0 {
		log.Printf("[PlayService] Отрицательный elapsed (%d с): подозрение на рассинхронизацию часов, считаем 0", elapsed)
		elapsed = 0
	}
	remaining := timeLimit - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// CurrentQuestion возвращает текущий вопрос для игрока, включая доступность 50/50
func (s *PlayService) CurrentQuestion(ctx context.Context, triviaID, userID uuid.UUID) (*CurrentQuestionResult, error) {
	trivia, err := s.repos.Trivias.GetByID(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	if !trivia.IsInProgress() {
		return nil, fmt.Errorf("%w: trivia %s is not in progress", apperrors.ErrInvalidState, triviaID)
	}
	if trivia.QuestionStartedAt == nil {
		return nil, fmt.Errorf("%w: question clock is not running", apperrors.ErrInvalidState)
	}

	participation, err := s.repos.Participations.GetByTriviaAndUser(ctx, triviaID, userID)
	if err != nil {
		return nil, err
	}

	view, binding, err := s.buildQuestionView(ctx, s.repos, trivia)
	if err != nil {
		return nil, err
	}

	answered := true
	if _, err := s.repos.Answers.GetByParticipationAndTriviaQuestion(ctx, participation.ID, binding.ID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		answered = false
	}

	return &CurrentQuestionResult{
		CurrentQuestionView: *view,
		FiftyFiftyAvailable: !participation.FiftyFiftyUsed && !answered,
	}, nil
}

// QuestionView строит проекцию текущего вопроса без привязки к игроку
// (используется событием current_question_updated)
func (s *PlayService) QuestionView(ctx context.Context, triviaID uuid.UUID) (*CurrentQuestionView, error) {
	trivia, err := s.repos.Trivias.GetByID(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	if !trivia.IsInProgress() || trivia.QuestionStartedAt == nil {
		return nil, fmt.Errorf("%w: trivia %s has no current question", apperrors.ErrInvalidState, triviaID)
	}
	view, _, err := s.buildQuestionView(ctx, s.repos, trivia)
	return view, err
}

func (s *PlayService) buildQuestionView(ctx context.Context, r *repository.Repositories, trivia *entity.Trivia) (*CurrentQuestionView, *entity.TriviaQuestion, error) {
	binding, err := r.TriviaQuestions.GetByTriviaAndOrder(ctx, trivia.ID, trivia.CurrentQuestionIndex)
	if err != nil {
		return nil, nil, err
	}
	question, err := r.Questions.GetByID(ctx, binding.QuestionID)
	if err != nil {
		return nil, nil, err
	}
	options, err := r.Options.ListByQuestionID(ctx, binding.QuestionID)
	if err != nil {
		return nil, nil, err
	}
	total, err := r.TriviaQuestions.CountByTrivia(ctx, trivia.ID)
	if err != nil {
		return nil, nil, err
	}

	views := make([]OptionView, 0, len(options))
	for _, opt := range options {
		views = append(views, OptionView{ID: opt.ID, Text: opt.Text})
	}

	return &CurrentQuestionView{
		QuestionID:           question.ID,
		Text:                 question.Text,
		Options:              views,
		TimeRemainingSeconds: s.remainingSeconds(*trivia.QuestionStartedAt, binding.TimeLimitSeconds, s.now().UTC()),
		QuestionIndex:        trivia.CurrentQuestionIndex,
		TotalQuestions:       total,
	}, binding, nil
}

// SubmitAnswer принимает ответ игрока на текущий вопрос.
// Повторный вызов для того же вопроса идемпотентен: возвращается исход
// первого ответа с time_remaining=0, новая строка не создается.
func (s *PlayService) SubmitAnswer(ctx context.Context, triviaID, userID, selectedOptionID uuid.UUID) (*SubmitResult, error) {
	var result *SubmitResult
	var inserted bool

	err := s.tx.WithinTx(ctx, func(r *repository.Repositories) error {
		// Предусловия проверяются строго по порядку: каждое даёт свой вид ошибки
		trivia, err := r.Trivias.GetByIDForUpdate(ctx, triviaID)
		if err != nil {
			return err
		}
		if !trivia.IsInProgress() {
			return fmt.Errorf("%w: trivia %s is not in progress", apperrors.ErrInvalidState, triviaID)
		}
		if trivia.QuestionStartedAt == nil {
			return fmt.Errorf("%w: question clock is not running", apperrors.ErrInvalidState)
		}

		participation, err := r.Participations.GetByTriviaAndUser(ctx, triviaID, userID)
		if err != nil {
			return err
		}

		binding, err := r.TriviaQuestions.GetByTriviaAndOrder(ctx, triviaID, trivia.CurrentQuestionIndex)
		if err != nil {
			return err
		}

		option, err := r.Options.GetByID(ctx, selectedOptionID)
		if err != nil {
			return err
		}
		if option.QuestionID != binding.QuestionID {
			return fmt.Errorf("%w: option %s does not belong to the current question", apperrors.ErrNotFound, selectedOptionID)
		}

		// Идемпотентность: ответ уже есть — возвращаем сохраненный исход.
		// time_remaining=0: ответ представляет прошлое решение, переигрывать
		// часы было бы обманом.
		if existing, err := r.Answers.GetByParticipationAndTriviaQuestion(ctx, participation.ID, binding.ID); err == nil {
			result = s.readBack(triviaID, binding.QuestionID, existing, participation.Score)
			return nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		question, err := r.Questions.GetByID(ctx, binding.QuestionID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		remaining := s.remainingSeconds(*trivia.QuestionStartedAt, binding.TimeLimitSeconds, now)

		isCorrect := false
		earned := 0
		if remaining > 0 && option.IsCorrect {
			isCorrect = true
			earned = s.pointsFor(question.Difficulty)
		}

		answer := &entity.Answer{
			ID:               uuid.New(),
			ParticipationID:  participation.ID,
			TriviaQuestionID: binding.ID,
			SelectedOptionID: selectedOptionID,
			IsCorrect:        isCorrect,
			EarnedPoints:     earned,
			AnsweredAt:       now,
		}
		if err := r.Answers.Create(ctx, answer); err != nil {
			// Проигрыш гонки двойной отправки: уникальный индекс — авторитетная
			// защита, перечитываем сохраненный ответ
			if errors.Is(err, apperrors.ErrConflict) {
				existing, readErr := r.Answers.GetByParticipationAndTriviaQuestion(ctx, participation.ID, binding.ID)
				if readErr != nil {
					return err
				}
				result = s.readBack(triviaID, binding.QuestionID, existing, participation.Score)
				return nil
			}
			return err
		}

		// Пересчёт в той же транзакции: видимый ответ подразумевает консистентный счёт
		score, err := r.Participations.RecomputeScore(ctx, triviaID, userID)
		if err != nil {
			return err
		}

		inserted = true
		result = &SubmitResult{
			TriviaID:             triviaID,
			QuestionID:           binding.QuestionID,
			SelectedOptionID:     selectedOptionID,
			IsCorrect:            isCorrect,
			EarnedPoints:         earned,
			TotalScore:           score,
			TimeRemainingSeconds: remaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if inserted {
		s.publishRanking(ctx, triviaID)
	}
	return result, nil
}

func (s *PlayService) readBack(triviaID, questionID uuid.UUID, answer *entity.Answer, currentScore int) *SubmitResult {
	return &SubmitResult{
		TriviaID:             triviaID,
		QuestionID:           questionID,
		SelectedOptionID:     answer.SelectedOptionID,
		IsCorrect:            answer.IsCorrect,
		EarnedPoints:         answer.EarnedPoints,
		TotalScore:           currentScore,
		TimeRemainingSeconds: 0,
	}
}

// UseFiftyFifty выдает игроку суженный набор вариантов текущего вопроса:
// правильный плюс один случайный неправильный. Разрешается один раз за викторину.
func (s *PlayService) UseFiftyFifty(ctx context.Context, triviaID, questionID, userID uuid.UUID) (*FiftyFiftyResult, error) {
	var result *FiftyFiftyResult

	err := s.tx.WithinTx(ctx, func(r *repository.Repositories) error {
		trivia, err := r.Trivias.GetByIDForUpdate(ctx, triviaID)
		if err != nil {
			return err
		}
		if !trivia.IsInProgress() {
			return fmt.Errorf("%w: trivia %s is not in progress", apperrors.ErrInvalidState, triviaID)
		}

		participation, err := r.Participations.GetByTriviaAndUser(ctx, triviaID, userID)
		if err != nil {
			return err
		}
		if participation.FiftyFiftyUsed {
			return fmt.Errorf("%w: fifty-fifty already used in this trivia", apperrors.ErrConflict)
		}

		binding, err := r.TriviaQuestions.GetByTriviaAndOrder(ctx, triviaID, trivia.CurrentQuestionIndex)
		if err != nil {
			return err
		}
		if binding.QuestionID != questionID {
			return fmt.Errorf("%w: question %s is not the current one", apperrors.ErrInvalidState, questionID)
		}

		if _, err := r.Answers.GetByParticipationAndTriviaQuestion(ctx, participation.ID, binding.ID); err == nil {
			return fmt.Errorf("%w: question already answered", apperrors.ErrConflict)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		options, err := r.Options.ListByQuestionID(ctx, questionID)
		if err != nil {
			return err
		}
		correct := entity.CorrectOption(options)
		incorrect := entity.IncorrectOptions(options)
		if len(options) < 4 || correct == nil || len(incorrect) != len(options)-1 {
			return fmt.Errorf("%w: question is not eligible for fifty-fifty", apperrors.ErrValidation)
		}

		chosen := incorrect[s.rnd.Intn(len(incorrect))]
		allowed := []OptionView{
			{ID: correct.ID, Text: correct.Text},
			{ID: chosen.ID, Text: chosen.Text},
		}
		// Порядок пары тоже случайный, чтобы позиция не выдавала ответ
		if s.rnd.Intn(2) == 1 {
			allowed[0], allowed[1] = allowed[1], allowed[0]
		}

		participation.FiftyFiftyUsed = true
		participation.FiftyFiftyQuestionID = &questionID
		if err := r.Participations.Update(ctx, participation); err != nil {
			return err
		}

		result = &FiftyFiftyResult{AllowedOptions: allowed, FiftyFiftyUsed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PlayService) publishRanking(ctx context.Context, triviaID uuid.UUID) {
	ranking, err := s.ranking.GetRanking(ctx, triviaID)
	if err != nil {
		log.Printf("[PlayService] Не удалось построить рейтинг для события: %v", err)
		return
	}
	s.publisher.Publish(triviaID, sse.Event{Type: sse.EventRankingUpdated, Data: ranking})
}
