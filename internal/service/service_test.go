package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/trivia-live/internal/config"
	"github.com/yourusername/trivia-live/internal/domain/entity"
	"github.com/yourusername/trivia-live/internal/domain/repository"
	"github.com/yourusername/trivia-live/internal/repository/memory"
	"github.com/yourusername/trivia-live/internal/sse"
)

// ============================================================================
// Общая тестовая обвязка: in-memory хранилище + записывающий издатель событий
// ============================================================================

// recordingPublisher записывает публикуемые события вместо доставки в хаб
type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	TriviaID uuid.UUID
	Event    sse.Event
}

func (p *recordingPublisher) Publish(triviaID uuid.UUID, event sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{TriviaID: triviaID, Event: event})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event.Type)
	}
	return out
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

func (p *recordingPublisher) contains(eventType string) bool {
	for _, t := range p.types() {
		if t == eventType {
			return true
		}
	}
	return false
}

// testEnv собирает сервисы поверх in-memory хранилища с управляемыми часами
type testEnv struct {
	store  *memory.Store
	repos  *repository.Repositories
	pub    *recordingPublisher
	cfg    *config.GameConfig
	lobby  *LobbyService
	rank   *RankingService
	play   *PlayService
	game   *GameService
	roster *RosterService

	clock time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	repos := memory.NewRepositories(store)
	tx := memory.NewTxManager(store)
	pub := &recordingPublisher{}
	cfg := &config.GameConfig{
		PresenceTTLSeconds:       15,
		TicketTTLSeconds:         60,
		DefaultQuestionTimeLimit: 30,
		PointsFor:                map[string]int{"EASY": 1, "MEDIUM": 2, "HARD": 3},
		JoinAsReady:              true,
		EventBufferSize:          64,
	}

	env := &testEnv{
		store: store,
		repos: repos,
		pub:   pub,
		cfg:   cfg,
		clock: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	env.lobby = NewLobbyService(repos, cfg)
	env.lobby.now = env.now
	env.rank = NewRankingService(repos)
	env.play = NewPlayService(tx, repos, env.rank, pub, cfg)
	env.play.now = env.now
	env.play.rnd = rand.New(rand.NewSource(1)) // детерминированный источник для 50/50
	env.game = NewGameService(tx, repos, env.lobby, env.play, env.rank, pub, cfg)
	env.game.now = env.now
	env.roster = NewRosterService(tx, repos, &NoopEmailService{}, cfg)

	return env
}

func (e *testEnv) now() time.Time { return e.clock }

func (e *testEnv) advanceClock(d time.Duration) { e.clock = e.clock.Add(d) }

// createUser создает пользователя напрямую в хранилище
func createUser(t *testing.T, env *testEnv, name, role string) *entity.User {
	t.Helper()
	user := &entity.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    env.clock,
	}
	require.NoError(t, env.repos.Users.Create(context.Background(), user))
	return user
}

// createTrivia создает викторину через ростер-сервис (статус DRAFT)
func createTrivia(t *testing.T, env *testEnv, admin *entity.User) *entity.Trivia {
	t.Helper()
	trivia, err := env.roster.CreateTrivia(context.Background(), admin.ID, "Тестовая викторина", "")
	require.NoError(t, err)
	return trivia
}

// addQuestion добавляет вопрос и возвращает привязку вместе с вариантами
// (первый вариант правильный)
func addQuestion(t *testing.T, env *testEnv, trivia *entity.Trivia, admin *entity.User, difficulty string, optionCount, timeLimit int) (*entity.TriviaQuestion, []entity.Option) {
	t.Helper()
	options := make([]OptionInput, 0, optionCount)
	for i := 0; i < optionCount; i++ {
		options = append(options, OptionInput{Text: "Вариант " + string(rune('A'+i)), IsCorrect: i == 0})
	}
	binding, err := env.roster.AddQuestion(context.Background(), trivia.ID, admin.ID, "Вопрос "+difficulty, difficulty, options, timeLimit)
	require.NoError(t, err)

	stored, err := env.repos.Options.ListByQuestionID(context.Background(), binding.QuestionID)
	require.NoError(t, err)
	return binding, stored
}

// correctOf возвращает правильный вариант из списка
func correctOf(t *testing.T, options []entity.Option) entity.Option {
	t.Helper()
	for _, opt := range options {
		if opt.IsCorrect {
			return opt
		}
	}
	t.Fatal("нет правильного варианта")
	return entity.Option{}
}

// wrongOf возвращает первый неправильный вариант из списка
func wrongOf(t *testing.T, options []entity.Option) entity.Option {
	t.Helper()
	for _, opt := range options {
		if !opt.IsCorrect {
			return opt
		}
	}
	t.Fatal("нет неправильного варианта")
	return entity.Option{}
}

// startedTrivia — готовая запущенная игра: вопросы добавлены, игроки в лобби,
// викторина IN_PROGRESS на вопросе 0
func startedTrivia(t *testing.T, env *testEnv, admin *entity.User, players []*entity.User, questions []struct {
	Difficulty string
	Options    int
	TimeLimit  int
}) (*entity.Trivia, []*entity.TriviaQuestion, [][]entity.Option) {
	t.Helper()
	ctx := context.Background()

	trivia := createTrivia(t, env, admin)
	bindings := make([]*entity.TriviaQuestion, 0, len(questions))
	allOptions := make([][]entity.Option, 0, len(questions))
	for _, q := range questions {
		binding, options := addQuestion(t, env, trivia, admin, q.Difficulty, q.Options, q.TimeLimit)
		bindings = append(bindings, binding)
		allOptions = append(allOptions, options)
	}

	for _, player := range players {
		_, err := env.game.JoinTrivia(ctx, trivia.ID, player.ID)
		require.NoError(t, err)
	}

	_, err := env.game.StartTrivia(ctx, trivia.ID, admin.ID)
	require.NoError(t, err)
	env.pub.reset()

	return trivia, bindings, allOptions
}
