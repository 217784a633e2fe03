// Package memory содержит in-memory реализацию репозиториев.
// Используется сервисными тестами вместо Postgres: та же семантика
// уникальных ограничений и пересчёта счёта, но без внешних зависимостей.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/trivia-live/internal/domain/entity"
	"github.com/yourusername/trivia-live/internal/domain/repository"
	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
)

// Store хранит все сущности в памяти. Сущности хранятся по значению,
// поэтому снапшот для отката транзакции — это копия map-ов.
type Store struct {
	mu sync.RWMutex

	users           map[uuid.UUID]entity.User
	trivias         map[uuid.UUID]entity.Trivia
	questions       map[uuid.UUID]entity.Question
	options         map[uuid.UUID]entity.Option
	triviaQuestions map[uuid.UUID]entity.TriviaQuestion
	participations  map[uuid.UUID]entity.Participation
	answers         map[uuid.UUID]entity.Answer

	// Порядок создания участий — для детерминированных tie-break-ов рейтинга
	participationOrder []uuid.UUID
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		users:           make(map[uuid.UUID]entity.User),
		trivias:         make(map[uuid.UUID]entity.Trivia),
		questions:       make(map[uuid.UUID]entity.Question),
		options:         make(map[uuid.UUID]entity.Option),
		triviaQuestions: make(map[uuid.UUID]entity.TriviaQuestion),
		participations:  make(map[uuid.UUID]entity.Participation),
		answers:         make(map[uuid.UUID]entity.Answer),
	}
}

// NewRepositories собирает набор репозиториев поверх хранилища
func NewRepositories(s *Store) *repository.Repositories {
	return &repository.Repositories{
		Users:           &UserRepo{s: s},
		Trivias:         &TriviaRepo{s: s},
		Questions:       &QuestionRepo{s: s},
		Options:         &OptionRepo{s: s},
		TriviaQuestions: &TriviaQuestionRepo{s: s},
		Participations:  &ParticipationRepo{s: s},
		Answers:         &AnswerRepo{s: s},
	}
}

func (s *Store) snapshot() *Store {
	snap := NewStore()
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.trivias {
		snap.trivias[k] = v
	}
	for k, v := range s.questions {
		snap.questions[k] = v
	}
	for k, v := range s.options {
		snap.options[k] = v
	}
	for k, v := range s.triviaQuestions {
		snap.triviaQuestions[k] = v
	}
	for k, v := range s.participations {
		snap.participations[k] = v
	}
	for k, v := range s.answers {
		snap.answers[k] = v
	}
	snap.participationOrder = append([]uuid.UUID(nil), s.participationOrder...)
	return snap
}

func (s *Store) restore(snap *Store) {
	s.users = snap.users
	s.trivias = snap.trivias
	s.questions = snap.questions
	s.options = snap.options
	s.triviaQuestions = snap.triviaQuestions
	s.participations = snap.participations
	s.answers = snap.answers
	s.participationOrder = snap.participationOrder
}

// TxManager реализует repository.TxManager. Транзакции сериализуются
// отдельным мьютексом (линеаризация как у SELECT ... FOR UPDATE в Postgres);
// ошибка fn откатывает хранилище к снапшоту.
type TxManager struct {
	s    *Store
	txMu sync.Mutex
}

// NewTxManager создает менеджер транзакций поверх хранилища
func NewTxManager(s *Store) *TxManager {
	return &TxManager{s: s}
}

// WithinTx выполняет fn атомарно относительно других транзакций
func (m *TxManager) WithinTx(ctx context.Context, fn func(r *repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.s.mu.Lock()
	snap := m.s.snapshot()
	m.s.mu.Unlock()

	if err := fn(NewRepositories(m.s)); err != nil {
		m.s.mu.Lock()
		m.s.restore(snap)
		m.s.mu.Unlock()
		return err
	}
	return nil
}

// --- UserRepo ---

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: email %s is already registered", apperrors.ErrConflict, user.Email)
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *UserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []entity.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// --- TriviaRepo ---

type TriviaRepo struct{ s *Store }

func (r *TriviaRepo) Create(ctx context.Context, trivia *entity.Trivia) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.trivias[trivia.ID] = *trivia
	return nil
}

func (r *TriviaRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Trivia, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.trivias[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

// GetByIDForUpdate в памяти эквивалентен GetByID: транзакции уже
// сериализованы менеджером.
func (r *TriviaRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Trivia, error) {
	return r.GetByID(ctx, id)
}

func (r *TriviaRepo) Update(ctx context.Context, trivia *entity.Trivia) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.trivias[trivia.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.s.trivias[trivia.ID] = *trivia
	return nil
}

func (r *TriviaRepo) ListByCreator(ctx context.Context, userID uuid.UUID) ([]entity.Trivia, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []entity.Trivia
	for _, t := range r.s.trivias {
		if t.CreatedByUserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *TriviaRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Trivia, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []entity.Trivia
	for _, id := range ids {
		if t, ok := r.s.trivias[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// --- QuestionRepo / OptionRepo ---

type QuestionRepo struct{ s *Store }

func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q := *question
	q.Options = nil // варианты хранятся отдельно, как в SQL-схеме
	r.s.questions[q.ID] = q
	return nil
}

func (r *QuestionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q, ok := r.s.questions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &q, nil
}

type OptionRepo struct{ s *Store }

func (r *OptionRepo) CreateBatch(ctx context.Context, options []entity.Option) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range options {
		r.s.options[o.ID] = o
	}
	return nil
}

func (r *OptionRepo) ListByQuestionID(ctx context.Context, questionID uuid.UUID) ([]entity.Option, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []entity.Option
	for _, o := range r.s.options {
		if o.QuestionID == questionID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *OptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Option, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.options[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &o, nil
}

// --- TriviaQuestionRepo ---

type TriviaQuestionRepo struct{ s *Store }

func (r *TriviaQuestionRepo) Create(ctx context.Context, binding *entity.TriviaQuestion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.triviaQuestions {
		if b.TriviaID == binding.TriviaID && (b.Position == binding.Position || b.QuestionID == binding.QuestionID) {
			return fmt.Errorf("%w: question already bound to trivia %s", apperrors.ErrConflict, binding.TriviaID)
		}
	}
	r.s.triviaQuestions[binding.ID] = *binding
	return nil
}

func (r *TriviaQuestionRepo) CountByTrivia(ctx context.Context, triviaID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, b := range r.s.triviaQuestions {
		if b.TriviaID == triviaID {
			count++
		}
	}
	return count, nil
}

func (r *TriviaQuestionRepo) GetByTriviaAndOrder(ctx context.Context, triviaID uuid.UUID, position int) (*entity.TriviaQuestion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.triviaQuestions {
		if b.TriviaID == triviaID && b.Position == position {
			out := b
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *TriviaQuestionRepo) ListByTrivia(ctx context.Context, triviaID uuid.UUID) ([]entity.TriviaQuestion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []entity.TriviaQuestion
	for _, b := range r.s.triviaQuestions {
		if b.TriviaID == triviaID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// --- ParticipationRepo ---

type ParticipationRepo struct{ s *Store }

func (r *ParticipationRepo) Create(ctx context.Context, participation *entity.Participation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.participations {
		if p.TriviaID == participation.TriviaID && p.UserID == participation.UserID {
			return fmt.Errorf("%w: user %s already participates in trivia %s",
				apperrors.ErrConflict, participation.UserID, participation.TriviaID)
		}
	}
	r.s.participations[participation.ID] = *participation
	r.s.participationOrder = append(r.s.participationOrder, participation.ID)
	return nil
}

func (r *ParticipationRepo) Update(ctx context.Context, participation *entity.Participation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.participations[participation.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.s.participations[participation.ID] = *participation
	return nil
}

// UpdateLastSeen пишет только last_seen_at, остальные поля не трогаются
func (r *ParticipationRepo) UpdateLastSeen(ctx context.Context, triviaID, userID uuid.UUID, seenAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.participations {
		if p.TriviaID == triviaID && p.UserID == userID {
			p.LastSeenAt = &seenAt
			r.s.participations[id] = p
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *ParticipationRepo) GetByTriviaAndUser(ctx context.Context, triviaID, userID uuid.UUID) (*entity.Participation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.participations {
		if p.TriviaID == triviaID && p.UserID == userID {
			out := p
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ListByTrivia возвращает участия по score DESC; равные счета идут
// в порядке создания участий (стабильный storage order).
func (r *ParticipationRepo) ListByTrivia(ctx context.Context, triviaID uuid.UUID) ([]entity.Participation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []entity.Participation
	for _, id := range r.s.participationOrder {
		if p, ok := r.s.participations[id]; ok && p.TriviaID == triviaID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (r *ParticipationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Participation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []entity.Participation
	for _, id := range r.s.participationOrder {
		if p, ok := r.s.participations[id]; ok && p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ParticipationRepo) RecomputeScore(ctx context.Context, triviaID, userID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.participations {
		if p.TriviaID == triviaID && p.UserID == userID {
			p.Score = r.sumPointsLocked(id)
			r.s.participations[id] = p
			return p.Score, nil
		}
	}
	return 0, apperrors.ErrNotFound
}

func (r *ParticipationRepo) RecomputeScoresForTrivia(ctx context.Context, triviaID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.participations {
		if p.TriviaID == triviaID {
			p.Score = r.sumPointsLocked(id)
			r.s.participations[id] = p
		}
	}
	return nil
}

func (r *ParticipationRepo) ResetForTrivia(ctx context.Context, triviaID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.participations {
		if p.TriviaID == triviaID {
			p.Score = 0
			p.FiftyFiftyUsed = false
			p.FiftyFiftyQuestionID = nil
			p.FinishedAt = nil
			r.s.participations[id] = p
		}
	}
	return nil
}

func (r *ParticipationRepo) sumPointsLocked(participationID uuid.UUID) int {
	sum := 0
	for _, a := range r.s.answers {
		if a.ParticipationID == participationID {
			sum += a.EarnedPoints
		}
	}
	return sum
}

// --- AnswerRepo ---

type AnswerRepo struct{ s *Store }

func (r *AnswerRepo) Create(ctx context.Context, answer *entity.Answer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.answers {
		if a.ParticipationID == answer.ParticipationID && a.TriviaQuestionID == answer.TriviaQuestionID {
			return fmt.Errorf("%w: answer already submitted for this question", apperrors.ErrConflict)
		}
	}
	r.s.answers[answer.ID] = *answer
	return nil
}

func (r *AnswerRepo) GetByParticipationAndTriviaQuestion(ctx context.Context, participationID, triviaQuestionID uuid.UUID) (*entity.Answer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.answers {
		if a.ParticipationID == participationID && a.TriviaQuestionID == triviaQuestionID {
			out := a
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *AnswerRepo) ListByParticipation(ctx context.Context, participationID uuid.UUID) ([]entity.Answer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []entity.Answer
	for _, a := range r.s.answers {
		if a.ParticipationID == participationID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AnsweredAt.Before(out[j].AnsweredAt) })
	return out, nil
}

func (r *AnswerRepo) DeleteByTrivia(ctx context.Context, triviaID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	participationIDs := make(map[uuid.UUID]bool)
	for id, p := range r.s.participations {
		if p.TriviaID == triviaID {
			participationIDs[id] = true
		}
	}
	for id, a := range r.s.answers {
		if participationIDs[a.ParticipationID] {
			delete(r.s.answers, id)
		}
	}
	return nil
}

// AnswerCount возвращает общее число ответов в хранилище (для проверок в тестах)
func (s *Store) AnswerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers)
}

// TouchLastSeen выставляет last_seen_at участия напрямую (хелпер для тестов присутствия)
func (s *Store) TouchLastSeen(participationID uuid.UUID, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.participations[participationID]; ok {
		p.LastSeenAt = &t
		s.participations[participationID] = p
	}
}
