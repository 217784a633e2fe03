package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/trivia-live/internal/handler/dto"
	"github.com/yourusername/trivia-live/internal/middleware"
	"github.com/yourusername/trivia-live/internal/service"
)

// GameHandler обрабатывает игровые запросы игроков: лобби, ответы, подсказка
type GameHandler struct {
	gameService   *service.GameService
	playService   *service.PlayService
	lobbyService  *service.LobbyService
	rosterService *service.RosterService
}

// NewGameHandler создает новый игровой обработчик
func NewGameHandler(
	gameService *service.GameService,
	playService *service.PlayService,
	lobbyService *service.LobbyService,
	rosterService *service.RosterService,
) *GameHandler {
	return &GameHandler{
		gameService:   gameService,
		playService:   playService,
		lobbyService:  lobbyService,
		rosterService: rosterService,
	}
}

// Join присоединяет игрока к викторине
func (h *GameHandler) Join(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	result, err := h.gameService.JoinTrivia(c.Request.Context(), triviaID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Ready отмечает игрока готовым
func (h *GameHandler) Ready(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	result, err := h.gameService.SetReady(c.Request.Context(), triviaID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Heartbeat обновляет отметку присутствия игрока
func (h *GameHandler) Heartbeat(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	if err := h.lobbyService.Heartbeat(c.Request.Context(), triviaID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLobby возвращает публичную проекцию лобби
func (h *GameHandler) GetLobby(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	snapshot, err := h.lobbyService.GetLobby(c.Request.Context(), triviaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetAdminLobby возвращает проекцию лобби с агрегатами
func (h *GameHandler) GetAdminLobby(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	snapshot, err := h.lobbyService.GetAdminLobby(c.Request.Context(), triviaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// ListAssigned возвращает викторины, в которые назначен игрок
func (h *GameHandler) ListAssigned(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	trivias, err := h.rosterService.ListAssignedTrivias(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trivias": dto.NewTriviaListResponse(trivias)})
}

// GetCurrentQuestion возвращает текущий вопрос для игрока
func (h *GameHandler) GetCurrentQuestion(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	result, err := h.playService.CurrentQuestion(c.Request.Context(), triviaID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SubmitAnswer принимает ответ игрока на текущий вопрос
func (h *GameHandler) SubmitAnswer(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	result, err := h.playService.SubmitAnswer(c.Request.Context(), triviaID, userID, req.SelectedOptionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UseFiftyFifty выдает игроку суженный набор вариантов
func (h *GameHandler) UseFiftyFifty(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	var req dto.FiftyFiftyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	result, err := h.playService.UseFiftyFifty(c.Request.Context(), triviaID, req.QuestionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
