package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/trivia-live/internal/config"
	"github.com/yourusername/trivia-live/internal/domain/repository"
)

// LobbyRow — строка лобби для одного участника
type LobbyRow struct {
	UserID  uuid.UUID `json:"user_id"`
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Present bool      `json:"present"`
	Ready   bool      `json:"ready"`
}

// LobbySnapshot — публичная проекция лобби (для игроков)
type LobbySnapshot struct {
	TriviaID uuid.UUID  `json:"trivia_id"`
	Players  []LobbyRow `json:"players"`
}

// AdminLobbySnapshot — проекция лобби для создателя, с агрегатами
type AdminLobbySnapshot struct {
	TriviaID      uuid.UUID  `json:"trivia_id"`
	Players       []LobbyRow `json:"players"`
	AssignedCount int        `json:"assigned_count"`
	PresentCount  int        `json:"present_count"`
	ReadyCount    int        `json:"ready_count"`
}

// LobbyService строит проекции лобби и принимает heartbeat-ы.
// Присутствие выводится из last_seen_at по TTL-правилу; сервер не следит
// за соединениями, клиенты обязаны периодически слать heartbeat.
type LobbyService struct {
	repos *repository.Repositories
	cfg   *config.GameConfig

	now func() time.Time
}

// NewLobbyService создает новый сервис лобби
func NewLobbyService(repos *repository.Repositories, cfg *config.GameConfig) *LobbyService {
	return &LobbyService{
		repos: repos,
		cfg:   cfg,
		now:   time.Now,
	}
}

// GetLobby возвращает публичную проекцию лобби
func (s *LobbyService) GetLobby(ctx context.Context, triviaID uuid.UUID) (*LobbySnapshot, error) {
	rows, err := s.buildRows(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	return &LobbySnapshot{TriviaID: triviaID, Players: rows}, nil
}

// GetAdminLobby возвращает проекцию лобби с агрегатами для создателя
func (s *LobbyService) GetAdminLobby(ctx context.Context, triviaID uuid.UUID) (*AdminLobbySnapshot, error) {
	rows, err := s.buildRows(ctx, triviaID)
	if err != nil {
		return nil, err
	}
	snapshot := &AdminLobbySnapshot{
		TriviaID:      triviaID,
		Players:       rows,
		AssignedCount: len(rows),
	}
	for _, row := range rows {
		if row.Present {
			snapshot.PresentCount++
		}
		if row.Ready {
			snapshot.ReadyCount++
		}
	}
	return snapshot, nil
}

// buildRows собирает строки лобби: имена подтягиваются одним запросом,
// список детерминирован — сортировка по имени, при равенстве по user id.
func (s *LobbyService) buildRows(ctx context.Context, triviaID uuid.UUID) ([]LobbyRow, error) {
	if _, err := s.repos.Trivias.GetByID(ctx, triviaID); err != nil {
		return nil, err
	}

	participations, err := s.repos.Participations.ListByTrivia(ctx, triviaID)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uuid.UUID, 0, len(participations))
	for _, p := range participations {
		userIDs = append(userIDs, p.UserID)
	}
	users, err := s.repos.Users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	now := s.now().UTC()
	ttl := s.cfg.PresenceTTL()
	rows := make([]LobbyRow, 0, len(participations))
	for _, p := range participations {
		rows = append(rows, LobbyRow{
			UserID:  p.UserID,
			Name:    names[p.UserID],
			Status:  p.Status,
			Present: p.IsPresent(now, ttl),
			Ready:   p.IsReady(),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].UserID.String() < rows[j].UserID.String()
	})
	return rows, nil
}

// Heartbeat обновляет last_seen_at участия. NotFound, если участия нет.
// Пишется ровно одна колонка: heartbeat — самая частая запись в системе
// и идет вне блокировки викторины, полная перезапись строки здесь затирала бы
// конкурентно закоммиченные статус и флаги подсказки.
func (s *LobbyService) Heartbeat(ctx context.Context, triviaID, userID uuid.UUID) error {
	return s.repos.Participations.UpdateLastSeen(ctx, triviaID, userID, s.now().UTC())
}
