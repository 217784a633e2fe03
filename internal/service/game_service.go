package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/trivia-live/internal/config"
	"github.com/yourusername/trivia-live/internal/domain/entity"
	"github.com/yourusername/trivia-live/internal/domain/repository"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
	"github.com/yourusername/trivia-live/internal/sse"
)

// JoinResult — исход присоединения к викторине
type JoinResult struct {
	TriviaID            uuid.UUID `json:"trivia_id"`
	ParticipationID     uuid.UUID `json:"participation_id"`
	ParticipationStatus string    `json:"participation_status"`
	TriviaStatus        string    `json:"trivia_status"`
}

// ReadyResult — исход отметки готовности
type ReadyResult struct {
	ParticipationID     uuid.UUID `json:"participation_id"`
	ParticipationStatus string    `json:"participation_status"`
}

// StartResult — исход запуска викторины
type StartResult struct {
	TriviaID             uuid.UUID `json:"trivia_id"`
	TriviaStatus         string    `json:"trivia_status"`
	StartedAt            time.Time `json:"started_at"`
	CurrentQuestionIndex int       `json:"current_question_index"`
}

// AdvanceResult — исход перехода к следующему вопросу
type AdvanceResult struct {
	TriviaID             uuid.UUID `json:"trivia_id"`
	Status               string    `json:"status"`
	CurrentQuestionIndex int       `json:"current_question_index"`
	TotalQuestions       int       `json:"total_questions"`
}

// GameService владеет жизненным циклом викторины: join/ready/start/advance/reset.
// Каждая команда выполняется в одной транзакции с блокировкой строки викторины,
// поэтому конкурирующие переходы линеаризуются хранилищем. События публикуются
// только после коммита.
type GameService struct {
	tx        repository.TxManager
	repos     *repository.Repositories
	lobby     *LobbyService
	play      *PlayService
	ranking   *RankingService
	publisher EventPublisher
	cfg       *config.GameConfig

	// подменяется в тестах
	now func() time.Time
}

// NewGameService создает новый сервис игровых сессий
func NewGameService(
	tx repository.TxManager,
	repos *repository.Repositories,
	lobby *LobbyService,
	play *PlayService,
	ranking *RankingService,
	publisher EventPublisher,
	cfg *config.GameConfig,
) *GameService {
	return &GameService{
		tx:        tx,
		repos:     repos,
		lobby:     lobby,
		play:      play,
		ranking:   ranking,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// JoinTrivia присоединяет пользователя к викторине. Первый join переводит
// DRAFT в LOBBY. Повторный join идемпотентен: возвращается то же участие,
// статус никогда не откатывается с READY.
func (s *GameService) JoinTrivia(ctx context.Context, triviaID, userID uuid.UUID) (*JoinResult, error) {
	var result *JoinResult
	var becameLobby bool

	err := s.tx.WithinTx(ctx, func(r *repository.Repositories) error {
		trivia, err := r.Trivias.GetByIDForUpdate(ctx, triviaID)
		if err != nil {
			return err
		}
		if !trivia.IsJoinable() {
			return fmt.Errorf("%w: trivia %s is %s, joining is closed", apperrors.ErrInvalidState, triviaID, trivia.Status)
		}

		now := s.now().UTC()
		if trivia.Status == entity.TriviaStatusDraft {
			trivia.Status = entity.TriviaStatusLobby
			if err := r.Trivias.Update(ctx, trivia); err != nil {
				return err
			}
			becameLobby = true
		}

		joinStatus := entity.ParticipationStatusJoined
		if s.cfg.JoinAsReady {
			joinStatus = entity.ParticipationStatusReady
		}

		participation, err := r.Participations.GetByTriviaAndUser(ctx, triviaID, userID)
		switch {
		case err == nil:
			// Повторный join: обновляем метки, готовность не регрессирует
			participation.JoinedAt = &now
			participation.LastSeenAt = &now
			if s.cfg.JoinAsReady || participation.IsReady() {
				if !participation.IsReady() {
					participation.ReadyAt = &now
				}
				participation.Status = entity.ParticipationStatusReady
			} else if participation.Status == entity.ParticipationStatusInvited {
				participation.Status = entity.ParticipationStatusJoined
			}
			if err := r.Participations.Update(ctx, participation); err != nil {
				return err
			}
		case errors.Is(err, apperrors.ErrNotFound):
			participation = &entity.Participation{
				ID:         uuid.New(),
				TriviaID:   triviaID,
				UserID:     userID,
				Status:     joinStatus,
				JoinedAt:   &now,
				LastSeenAt: &now,
			}
			if joinStatus == entity.ParticipationStatusReady {
				participation.ReadyAt = &now
			}
			if err := r.Participations.Create(ctx, participation); err != nil {
				return err
			}
		default:
			return err
		}

		result = &JoinResult{
			TriviaID:            triviaID,
			ParticipationID:     participation.ID,
			ParticipationStatus: participation.Status,
			TriviaStatus:        trivia.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if becameLobby {
		s.publishStatus(ctx, triviaID)
	}
	s.publishLobby(ctx, triviaID)
	return result, nil
}

// SetReady отмечает участника готовым. Оставлен для обратной совместимости:
// при join_as_ready join уже делает то же самое.
func (s *GameService) SetReady(ctx context.Context, triviaID, userID uuid.UUID) (*ReadyResult, error) {
	var result *ReadyResult

	err := s.tx.WithinTx(ctx, func(r *repository.Repositories) error {
		// Блокировка строки викторины: полная перезапись участия ниже
		// линеаризуется с остальными командами, как в Join и Submit
		trivia, err := r.Trivias.GetByIDForUpdate(ctx, triviaID)
		if err != nil {
			return err
		}
		if !trivia.IsJoinable() {
			return fmt.Errorf("%w: trivia %s is %s", apperrors.ErrInvalidState, triviaID, trivia.Status)
		}

		participation, err := r.Participations.GetByTriviaAndUser(ctx, triviaID, userID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if !participation.IsReady() {
			participation.Status = entity.ParticipationStatusReady
			participation.ReadyAt = &now
		}
		participation.LastSeenAt = &now
		if err := r.Participations.Update(ctx, participation); err != nil {
			return err
		}

		result = &ReadyResult{
			ParticipationID:     participation.ID,
			ParticipationStatus: participation.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishLobby(ctx, triviaID)
	return result, nil
}

// StartTrivia запускает игру. Только создатель; статус LOBBY; участники есть
// и все присутствуют (heartbeat в пределах TTL) и готовы.
func (s *GameService) StartTrivia(ctx context.Context, triviaID, adminUserID uuid.UUID) (*StartResult, error) {
	var result *StartResult

	err := s.tx.WithinTx(ctx, func(r *repository.Repositories) error {
		trivia, err := r.Trivias.GetByIDForUpdate(ctx, triviaID)
		if err != nil {
			return err
		}
		if trivia.CreatedByUserID != adminUserID {
			return fmt.Errorf("%w: only the creator can start the trivia", apperrors.ErrForbidden)
		}
		if trivia.Status != entity.TriviaStatusLobby {
			return fmt.Errorf("%w: trivia %s is %s, expected LOBBY", apperrors.ErrInvalidState, triviaID, trivia.Status)
		}

		participations, err := r.Participations.ListByTrivia(ctx, triviaID)
		if err != nil {
			return err
		}
		if len(participations) == 0 {
			return fmt.Errorf("%w: no players assigned to the trivia", apperrors.ErrConflict)
		}

		now := s.now().UTC()
		ttl := s.cfg.PresenceTTL()
		presentCount, readyCount := 0, 0
		for _, p := range participations {
			if p.IsPresent(now, ttl) {
				presentCount++
			}
			if p.IsReady() {
				readyCount++
			}
		}
		if presentCount != len(participations) || readyCount != len(participations) {
			return fmt.Errorf("%w: cannot start: %d of %d players ready, %d of %d present",
				apperrors.ErrConflict, readyCount, len(participations), presentCount, len(participations))
		}

		trivia.Status = entity.TriviaStatusInProgress
		trivia.StartedAt = &now
		trivia.CurrentQuestionIndex = 0
		trivia.QuestionStartedAt = &now
		if err := r.Trivias.Update(ctx, trivia); err != nil {
			return err
		}

		result = &StartResult{
			TriviaID:             triviaID,
			TriviaStatus:         trivia.Status,
			StartedAt:            now,
			CurrentQuestionIndex: 0,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[GameService] Викторина %s запущена пользователем %s", triviaID, adminUserID)
	s.publishStatus(ctx, triviaID)
	s.publishQuestion(ctx, triviaID)
	s.publishRanking(ctx, triviaID)
	return result, nil
}

// AdvanceQuestion переводит игру к следующему вопросу или завершает её,
// когда вопросы закончились
func (s *GameService) AdvanceQuestion(ctx context.Context, triviaID, adminUserID uuid.UUID) (*AdvanceResult, error) {
	var result *AdvanceResult
	var finished bool

	err := s.tx.WithinTx(ctx, func(r *repository.Repositories) error {
		trivia, err := r.Trivias.GetByIDForUpdate(ctx, triviaID)
		if err != nil {
			return err
		}
		if trivia.CreatedByUserID != adminUserID {
			return fmt.Errorf("%w: only the creator can advance the trivia", apperrors.ErrForbidden)
		}
		if !trivia.IsInProgress() {
			return fmt.Errorf("%w: trivia %s is %s, expected IN_PROGRESS", apperrors.ErrInvalidState, triviaID, trivia.Status)
		}

		total, err := r.TriviaQuestions.CountByTrivia(ctx, triviaID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if trivia.CurrentQuestionIndex+1 < total {
			trivia.CurrentQuestionIndex++
			trivia.QuestionStartedAt = &now
		} else {
			trivia.Status = entity.TriviaStatusFinished
			trivia.QuestionStartedAt = nil
			trivia.FinishedAt = &now
			finished = true
		}
		if err := r.Trivias.Update(ctx, trivia); err != nil {
			return err
		}

		result = &AdvanceResult{
			TriviaID:             triviaID,
			Status:               trivia.Status,
			CurrentQuestionIndex: trivia.CurrentQuestionIndex,
			TotalQuestions:       total,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishStatus(ctx, triviaID)
	if !finished {
		s.publishQuestion(ctx, triviaID)
	}
	s.publishRanking(ctx, triviaID)
	return result, nil
}

// ResetTrivia возвращает викторину в LOBBY: ответы удаляются, счета и флаги
// подсказки обнуляются, тайминги очищаются. Единственная операция,
// уничтожающая ответы.
func (s *GameService) ResetTrivia(ctx context.Context, triviaID uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(r *repository.Repositories) error {
		trivia, err := r.Trivias.GetByIDForUpdate(ctx, triviaID)
		if err != nil {
			return err
		}

		if err := r.Answers.DeleteByTrivia(ctx, triviaID); err != nil {
			return err
		}
		if err := r.Participations.ResetForTrivia(ctx, triviaID); err != nil {
			return err
		}

		trivia.Status = entity.TriviaStatusLobby
		trivia.CurrentQuestionIndex = 0
		trivia.QuestionStartedAt = nil
		trivia.StartedAt = nil
		trivia.FinishedAt = nil
		return r.Trivias.Update(ctx, trivia)
	})
	if err != nil {
		return err
	}

	log.Printf("[GameService] Викторина %s сброшена в LOBBY", triviaID)
	s.publishStatus(ctx, triviaID)
	s.publishLobby(ctx, triviaID)
	return nil
}

// --- публикация событий (после коммита) ---

func (s *GameService) publishStatus(ctx context.Context, triviaID uuid.UUID) {
	trivia, err := s.repos.Trivias.GetByID(ctx, triviaID)
	if err != nil {
		log.Printf("[GameService] Не удалось прочитать викторину для события статуса: %v", err)
		return
	}
	s.publisher.Publish(triviaID, sse.Event{
		Type: sse.EventStatusUpdated,
		Data: map[string]interface{}{
			"state":                  trivia.PublicState(),
			"current_question_index": trivia.CurrentQuestionIndex,
		},
	})
}

func (s *GameService) publishLobby(ctx context.Context, triviaID uuid.UUID) {
	snapshot, err := s.lobby.GetLobby(ctx, triviaID)
	if err != nil {
		log.Printf("[GameService] Не удалось построить лобби для события: %v", err)
		return
	}
	s.publisher.Publish(triviaID, sse.Event{Type: sse.EventLobbyUpdated, Data: snapshot})

	adminSnapshot, err := s.lobby.GetAdminLobby(ctx, triviaID)
	if err != nil {
		log.Printf("[GameService] Не удалось построить админ-лобби для события: %v", err)
		return
	}
	s.publisher.Publish(triviaID, sse.Event{Type: sse.EventAdminLobbyUpdated, Data: adminSnapshot})
}

func (s *GameService) publishQuestion(ctx context.Context, triviaID uuid.UUID) {
	view, err := s.play.QuestionView(ctx, triviaID)
	if err != nil {
		log.Printf("[GameService] Не удалось построить текущий вопрос для события: %v", err)
		return
	}
	s.publisher.Publish(triviaID, sse.Event{Type: sse.EventCurrentQuestionUpdated, Data: view})
}

func (s *GameService) publishRanking(ctx context.Context, triviaID uuid.UUID) {
	ranking, err := s.ranking.GetRanking(ctx, triviaID)
	if err != nil {
		log.Printf("[GameService] Не удалось построить рейтинг для события: %v", err)
		return
	}
	s.publisher.Publish(triviaID, sse.Event{Type: sse.EventRankingUpdated, Data: ranking})
}
