package sse

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Тесты хаба событий
// ============================================================================

// drain вычитывает все накопленные события подписчика
func drain(sub *Subscriber) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestHub_BroadcastPreservesOrder(t *testing.T) {
	hub := NewHub(8)
	triviaID := uuid.New()
	sub := hub.Subscribe(triviaID, uuid.New())
	defer hub.Unsubscribe(sub)

	for i := 0; i < 5; i++ {
		hub.Broadcast(triviaID, Event{Type: EventRankingUpdated, Data: i})
	}

	events := drain(sub)
	require.Len(t, events, 5)
	for i, ev := range events {
		assert.Equal(t, i, ev.Data, "порядок доставки совпадает с порядком Broadcast")
	}
}

func TestHub_BroadcastIsScopedToTrivia(t *testing.T) {
	hub := NewHub(8)
	triviaA, triviaB := uuid.New(), uuid.New()
	subA := hub.Subscribe(triviaA, uuid.New())
	subB := hub.Subscribe(triviaB, uuid.New())
	defer hub.Unsubscribe(subA)
	defer hub.Unsubscribe(subB)

	hub.Broadcast(triviaA, Event{Type: EventLobbyUpdated})

	assert.Len(t, drain(subA), 1)
	assert.Empty(t, drain(subB), "событие чужой викторины не доставляется")
}

func TestHub_LateSubscriberMissesEvent(t *testing.T) {
	hub := NewHub(8)
	triviaID := uuid.New()

	hub.Broadcast(triviaID, Event{Type: EventStatusUpdated})

	// Состав подписчиков фиксируется на момент Broadcast
	sub := hub.Subscribe(triviaID, uuid.New())
	defer hub.Unsubscribe(sub)
	assert.Empty(t, drain(sub))
}

func TestHub_OverflowDropsOldest(t *testing.T) {
	hub := NewHub(3)
	triviaID := uuid.New()
	sub := hub.Subscribe(triviaID, uuid.New())
	defer hub.Unsubscribe(sub)

	for i := 0; i < 5; i++ {
		hub.Broadcast(triviaID, Event{Type: EventRankingUpdated, Data: i})
	}

	// Буфер на 3: события 0 и 1 выброшены, 2..4 сохранили порядок
	events := drain(sub)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, i+2, ev.Data)
	}
}

func TestHub_UnsubscribeClosesChannelAndIsIdempotent(t *testing.T) {
	hub := NewHub(8)
	triviaID := uuid.New()
	sub := hub.Subscribe(triviaID, uuid.New())
	require.Equal(t, 1, hub.SubscriberCount(triviaID))

	hub.Unsubscribe(sub)
	assert.Zero(t, hub.SubscriberCount(triviaID))

	_, ok := <-sub.Events()
	assert.False(t, ok, "канал закрыт")

	// Повторный вызов и Broadcast после отписки безопасны
	hub.Unsubscribe(sub)
	hub.Broadcast(triviaID, Event{Type: EventLobbyUpdated})
}

func TestHub_CloseTrivia(t *testing.T) {
	hub := NewHub(8)
	triviaID := uuid.New()
	subs := make([]*Subscriber, 0, 3)
	for i := 0; i < 3; i++ {
		subs = append(subs, hub.Subscribe(triviaID, uuid.New()))
	}
	require.Equal(t, 3, hub.SubscriberCount(triviaID))

	hub.CloseTrivia(triviaID)

	assert.Zero(t, hub.SubscriberCount(triviaID))
	for _, sub := range subs {
		_, ok := <-sub.Events()
		assert.False(t, ok)
	}
}

func TestHub_ConcurrentBroadcast(t *testing.T) {
	hub := NewHub(256)
	triviaID := uuid.New()
	sub := hub.Subscribe(triviaID, uuid.New())
	defer hub.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Broadcast(triviaID, Event{Type: EventRankingUpdated, Data: fmt.Sprintf("ev-%d", i)})
		}
	}()

	received := 0
	for range sub.Events() {
		received++
		if received == 100 {
			break
		}
	}
	<-done
	assert.Equal(t, 100, received)
}
