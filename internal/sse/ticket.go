package sse

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yourusername/trivia-live/internal/pkg/errors"
)

// DefaultTicketTTL — срок жизни билета на подписку
const DefaultTicketTTL = 60 * time.Second

// Ticket связывает одноразовый токен с пользователем и викториной
type Ticket struct {
	Token     string
	TriviaID  uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
}

// TicketStore выдает и погашает одноразовые билеты на подписку.
// Билет нужен потому, что EventSource не умеет передавать Authorization-заголовок:
// клиент сначала берет билет через авторизованный POST, затем открывает поток.
type TicketStore struct {
	mu      sync.Mutex
	tickets map[string]Ticket
	ttl     time.Duration

	// подменяется в тестах
	now func() time.Time
}

// NewTicketStore создает хранилище билетов. ttl <= 0 означает DefaultTicketTTL.
func NewTicketStore(ttl time.Duration) *TicketStore {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &TicketStore{
		tickets: make(map[string]Ticket),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue выдает новый билет для пары (викторина, пользователь).
// Токен — 32 случайных байта в base64url, без паддинга.
func (s *TicketStore) Issue(triviaID, userID uuid.UUID) (Ticket, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return Ticket{}, err
	}
	ticket := Ticket{
		Token:     base64.RawURLEncoding.EncodeToString(raw),
		TriviaID:  triviaID,
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.tickets[ticket.Token] = ticket
	s.mu.Unlock()
	return ticket, nil
}

// Consume погашает билет: валидный токен возвращается ровно один раз,
// после чего перестает существовать. Просроченный или неизвестный токен,
// а также несовпадение викторины → ErrUnauthorized.
func (s *TicketStore) Consume(token string, triviaID uuid.UUID) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[token]
	if !ok {
		return Ticket{}, apperrors.ErrUnauthorized
	}
	delete(s.tickets, token)

	if s.now().After(ticket.ExpiresAt) {
		return Ticket{}, apperrors.ErrUnauthorized
	}
	if ticket.TriviaID != triviaID {
		return Ticket{}, apperrors.ErrUnauthorized
	}
	return ticket, nil
}

// RunSweeper периодически удаляет просроченные билеты до отмены контекста
func (s *TicketStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.sweep()
			if removed > 0 {
				log.Printf("[TicketStore] Удалено просроченных билетов: %d", removed)
			}
		}
	}
}

func (s *TicketStore) sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, ticket := range s.tickets {
		if now.After(ticket.ExpiresAt) {
			delete(s.tickets, token)
			removed++
		}
	}
	return removed
}
