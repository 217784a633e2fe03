package sse

// Типы событий, рассылаемых подписчикам викторины
const (
	// EventLobbyUpdated — изменился состав или готовность лобби (публичная проекция)
	EventLobbyUpdated = "lobby_updated"

	// EventAdminLobbyUpdated — расширенная проекция лобби для создателя
	EventAdminLobbyUpdated = "admin_lobby_updated"

	// EventStatusUpdated — изменился статус жизненного цикла викторины
	EventStatusUpdated = "status_updated"

	// EventCurrentQuestionUpdated — открыт новый текущий вопрос
	EventCurrentQuestionUpdated = "current_question_updated"

	// EventRankingUpdated — финальный рейтинг готов (после завершения)
	EventRankingUpdated = "ranking_updated"
)

// Event представляет одно событие, доставляемое подписчику.
// Data сериализуется в JSON на границе транспорта (SSE или WebSocket).
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
