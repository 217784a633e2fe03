package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/yourusername/trivia-live/internal/domain/repository"
)

// RankingEntry — одна позиция финального рейтинга
type RankingEntry struct {
	Position int       `json:"position"`
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
	Score    int       `json:"score"`
}

// RankingResult — рейтинг викторины с её текущим статусом
type RankingResult struct {
	TriviaID uuid.UUID      `json:"trivia_id"`
	State    string         `json:"state"`
	Entries  []RankingEntry `json:"entries"`
}

// RankingService строит рейтинг. Перед чтением счета всегда пересчитываются
// из журнала ответов, поэтому рейтинг не зависит от порядка ретраев.
type RankingService struct {
	repos *repository.Repositories
}

// NewRankingService создает новый сервис рейтинга
func NewRankingService(repos *repository.Repositories) *RankingService {
	return &RankingService{repos: repos}
}

// GetRanking пересчитывает счета всех участий и возвращает рейтинг.
// Позиции 1..M без пропусков; равные счета упорядочены по user id,
// чтобы результат был стабилен между адаптерами хранилища.
func (s *RankingService) GetRanking(ctx context.Context, triviaID uuid.UUID) (*RankingResult, error) {
	trivia, err := s.repos.Trivias.GetByID(ctx, triviaID)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Participations.RecomputeScoresForTrivia(ctx, triviaID); err != nil {
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

	entries := make([]RankingEntry, 0, len(participations))
	for _, p := range participations {
		entries = append(entries, RankingEntry{
			UserID:   p.UserID,
			UserName: names[p.UserID],
			Score:    p.Score,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID.String() < entries[j].UserID.String()
	})
	for i := range entries {
		entries[i].Position = i + 1
	}

	return &RankingResult{
		TriviaID: triviaID,
		State:    trivia.PublicState(),
		Entries:  entries,
	}, nil
}
