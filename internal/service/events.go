package service

import (
	"github.com/google/uuid"

	"github.com/yourusername/trivia-live/internal/sse"
)

// EventPublisher доставляет события подписчикам викторины.
// Вызывается строго после коммита транзакции: подписчики никогда
// не видят откаченное состояние.
type EventPublisher interface {
	Publish(triviaID uuid.UUID, event sse.Event)
}

// HubPublisher публикует события в in-process хаб
type HubPublisher struct {
	hub *sse.Hub
}

// NewHubPublisher создает издателя поверх хаба
func NewHubPublisher(hub *sse.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

// Publish рассылает событие всем подписчикам викторины
func (p *HubPublisher) Publish(triviaID uuid.UUID, event sse.Event) {
	p.hub.Broadcast(triviaID, event)
}
