package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/trivia-live/internal/handler/dto"
	"github.com/yourusername/trivia-live/internal/middleware"
	"github.com/yourusername/trivia-live/internal/sse"
)

// defaultKeepaliveInterval — период синтетических keepalive-кадров, чтобы
// промежуточные прокси не резали тихие соединения
const defaultKeepaliveInterval = 30 * time.Second

// EventHandler выдает билеты и обслуживает потоки событий.
// EventSource не умеет Authorization-заголовок, поэтому подписка двухшаговая:
// авторизованный POST выдает одноразовый билет, затем GET открывает поток
// с билетом в query-параметре.
type EventHandler struct {
	hub     *sse.Hub
	tickets *sse.TicketStore
	ttl     time.Duration

	// подменяется в тестах
	keepalive time.Duration
}

// NewEventHandler создает новый обработчик потоков событий
func NewEventHandler(hub *sse.Hub, tickets *sse.TicketStore, ttl time.Duration) *EventHandler {
	if ttl <= 0 {
		ttl = sse.DefaultTicketTTL
	}
	return &EventHandler{hub: hub, tickets: tickets, ttl: ttl, keepalive: defaultKeepaliveInterval}
}

// CreateTicket выдает одноразовый билет на подписку (требует аутентификации)
func (h *EventHandler) CreateTicket(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	ticket, err := h.tickets.Issue(triviaID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.TicketResponse{
		Ticket:           ticket.Token,
		ExpiresInSeconds: int(h.ttl.Seconds()),
	})
}

// StreamSSE открывает SSE-поток событий викторины (?ticket=...).
// Формат кадра: "event: <type>\ndata: <json>\n\n"; keepalive — комментарий ": keepalive".
func (h *EventHandler) StreamSSE(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	ticket, err := h.tickets.Consume(c.Query("ticket"), triviaID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired ticket", "error_type": "unauthorized"})
		return
	}

	sub := h.hub.Subscribe(triviaID, ticket.UserID)
	defer h.hub.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, open := <-sub.Events():
			if !open {
				return false
			}
			payload, err := json.Marshal(event.Data)
			if err != nil {
				log.Printf("[EventHandler] Ошибка сериализации события %s: %v", event.Type, err)
				return true
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			return true
		case <-time.After(h.keepalive):
			fmt.Fprint(w, ": keepalive\n\n")
			return true
		}
	})
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Подключение уже авторизовано одноразовым билетом,
		// поэтому ограничения по Origin не накладываем
		return true
	},
}

// StreamWS — тот же поток событий поверх WebSocket, для клиентов без EventSource
func (h *EventHandler) StreamWS(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	ticket, err := h.tickets.Consume(c.Query("ticket"), triviaID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired ticket", "error_type": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[EventHandler] Ошибка апгрейда WebSocket: %v", err)
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(triviaID, ticket.UserID)
	defer h.hub.Unsubscribe(sub)

	// Читатель нужен только для обнаружения закрытия соединения клиентом
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case event, open := <-sub.Events():
			if !open {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("[EventHandler] Ошибка отправки события в WebSocket: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(gorillaws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
