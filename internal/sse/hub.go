// Package sse реализует хаб рассылки событий викторины и билеты
// на подписку. Транспорт (SSE или WebSocket) живет в handler-ах;
// хаб отвечает только за доставку в каналы подписчиков.
package sse

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// DefaultBufferSize — ёмкость канала подписчика по умолчанию
const DefaultBufferSize = 64

// Subscriber — один подписанный поток событий. События читаются из Events();
// при переполнении буфера выбрасываются самые старые, порядок остальных сохраняется.
type Subscriber struct {
	TriviaID uuid.UUID
	UserID   uuid.UUID

	mu     sync.Mutex
	closed bool
	ch     chan Event
}

// Events возвращает канал событий подписчика. Канал закрывается при Unsubscribe.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// deliver кладет событие в канал без блокировки. Если буфер полон,
// выбрасывает самое старое событие и повторяет попытку.
func (s *Subscriber) deliver(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- event:
			return
		default:
			select {
			case <-s.ch:
				log.Printf("[SSEHub] Переполнен буфер подписчика user=%s trivia=%s, событие выброшено", s.UserID, s.TriviaID)
			default:
			}
		}
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Hub ведет подписчиков по викторинам и рассылает им события.
// Broadcast никогда не блокируется на медленном подписчике.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[*Subscriber]struct{}
	bufferSize  int
}

// NewHub создает хаб с заданной ёмкостью буфера подписчика.
// bufferSize <= 0 означает DefaultBufferSize.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		subscribers: make(map[uuid.UUID]map[*Subscriber]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe регистрирует нового подписчика на события викторины
func (h *Hub) Subscribe(triviaID, userID uuid.UUID) *Subscriber {
	sub := &Subscriber{
		TriviaID: triviaID,
		UserID:   userID,
		ch:       make(chan Event, h.bufferSize),
	}

	h.mu.Lock()
	set, ok := h.subscribers[triviaID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subscribers[triviaID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	log.Printf("[SSEHub] Подписка: user=%s trivia=%s (всего по викторине: %d)", userID, triviaID, h.SubscriberCount(triviaID))
	return sub
}

// Unsubscribe снимает подписчика и закрывает его канал. Повторный вызов безопасен.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	if set, ok := h.subscribers[sub.TriviaID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subscribers, sub.TriviaID)
		}
	}
	h.mu.Unlock()

	sub.close()
}

// Broadcast доставляет событие всем текущим подписчикам викторины.
// Состав подписчиков фиксируется на момент вызова; подписавшиеся позже
// событие не получают.
func (h *Hub) Broadcast(triviaID uuid.UUID, event Event) {
	h.mu.RLock()
	set := h.subscribers[triviaID]
	snapshot := make([]*Subscriber, 0, len(set))
	for sub := range set {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	for _, sub := range snapshot {
		sub.deliver(event)
	}
}

// SubscriberCount возвращает число подписчиков викторины
func (h *Hub) SubscriberCount(triviaID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[triviaID])
}

// CloseTrivia снимает всех подписчиков викторины (например, при её сбросе)
func (h *Hub) CloseTrivia(triviaID uuid.UUID) {
	h.mu.Lock()
	set := h.subscribers[triviaID]
	delete(h.subscribers, triviaID)
	h.mu.Unlock()

	for sub := range set {
		sub.close()
	}
}
