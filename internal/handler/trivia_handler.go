package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/trivia-live/internal/handler/dto"
	"github.com/yourusername/trivia-live/internal/middleware"
	"github.com/yourusername/trivia-live/internal/service"
)

// TriviaHandler обрабатывает административные запросы: сборка викторины,
// управление жизненным циклом, рейтинг и его экспорт
type TriviaHandler struct {
	rosterService  *service.RosterService
	gameService    *service.GameService
	rankingService *service.RankingService
}

// NewTriviaHandler создает новый обработчик викторин
func NewTriviaHandler(
	rosterService *service.RosterService,
	gameService *service.GameService,
	rankingService *service.RankingService,
) *TriviaHandler {
	return &TriviaHandler{
		rosterService:  rosterService,
		gameService:    gameService,
		rankingService: rankingService,
	}
}

// parseTriviaID извлекает UUID викторины из path-параметра
func parseTriviaID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("trivia_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trivia id", "error_type": "validation_error"})
		return uuid.Nil, false
	}
	return id, true
}

// CreateTrivia обрабатывает запрос на создание викторины
func (h *TriviaHandler) CreateTrivia(c *gin.Context) {
	var req dto.CreateTriviaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	trivia, err := h.rosterService.CreateTrivia(c.Request.Context(), userID, req.Title, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewTriviaResponse(trivia))
}

// GetTrivia возвращает викторину по ID
func (h *TriviaHandler) GetTrivia(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	trivia, err := h.rosterService.GetTrivia(c.Request.Context(), triviaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTriviaResponse(trivia))
}

// ListMyTrivias возвращает викторины, созданные пользователем
func (h *TriviaHandler) ListMyTrivias(c *gin.Context) {
	userID, _ := middleware.UserIDFromContext(c)
	trivias, err := h.rosterService.ListTriviasByCreator(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trivias": dto.NewTriviaListResponse(trivias)})
}

// AddQuestion добавляет вопрос к викторине
func (h *TriviaHandler) AddQuestion(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	var req dto.AddQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	options := make([]service.OptionInput, 0, len(req.Options))
	for _, opt := range req.Options {
		options = append(options, service.OptionInput{Text: opt.Text, IsCorrect: opt.IsCorrect})
	}

	binding, err := h.rosterService.AddQuestion(c.Request.Context(), triviaID, userID, req.Text, req.Difficulty, options, req.TimeLimitSeconds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, binding)
}

// AssignPlayer назначает игрока в викторину
func (h *TriviaHandler) AssignPlayer(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	var req dto.AssignPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	participation, err := h.rosterService.AssignPlayer(c.Request.Context(), triviaID, userID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, participation)
}

// StartTrivia запускает игру
func (h *TriviaHandler) StartTrivia(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	result, err := h.gameService.StartTrivia(c.Request.Context(), triviaID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AdvanceQuestion переводит игру к следующему вопросу
func (h *TriviaHandler) AdvanceQuestion(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	result, err := h.gameService.AdvanceQuestion(c.Request.Context(), triviaID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ResetTrivia возвращает викторину в LOBBY, уничтожая ответы
func (h *TriviaHandler) ResetTrivia(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	if err := h.gameService.ResetTrivia(c.Request.Context(), triviaID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trivia reset to lobby"})
}

// GetRanking возвращает рейтинг викторины
func (h *TriviaHandler) GetRanking(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	ranking, err := h.rankingService.GetRanking(c.Request.Context(), triviaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}

// ExportRanking выгружает рейтинг в XLSX или CSV (?format=xlsx|csv, по умолчанию xlsx)
func (h *TriviaHandler) ExportRanking(c *gin.Context) {
	triviaID, ok := parseTriviaID(c)
	if !ok {
		return
	}
	ranking, err := h.rankingService.GetRanking(c.Request.Context(), triviaID)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("ranking_%s", triviaID)
	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		h.exportCSV(c, ranking, filename)
	case "xlsx":
		h.exportXLSX(c, ranking, filename)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported format, use xlsx or csv", "error_type": "validation_error"})
	}
}

// exportXLSX пишет рейтинг в Excel через StreamWriter
func (h *TriviaHandler) exportXLSX(c *gin.Context, ranking *service.RankingResult, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Рейтинг"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[TriviaHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Место", "Пользователь", "Очки"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[TriviaHandler] Ошибка записи заголовков: %v", err)
	}

	for i, entry := range ranking.Entries {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{entry.Position, entry.UserName, entry.Score}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[TriviaHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[TriviaHandler] Ошибка завершения StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finalize Excel file"})
		return
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[TriviaHandler] Ошибка отправки XLSX: %v", err)
	}
}

// exportCSV пишет рейтинг в CSV
func (h *TriviaHandler) exportCSV(c *gin.Context, ranking *service.RankingResult, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	w := csv.NewWriter(c.Writer)
	defer w.Flush()

	if err := w.Write([]string{"position", "user_name", "score"}); err != nil {
		log.Printf("[TriviaHandler] Ошибка записи CSV-заголовка: %v", err)
		return
	}
	for _, entry := range ranking.Entries {
		record := []string{strconv.Itoa(entry.Position), entry.UserName, strconv.Itoa(entry.Score)}
		if err := w.Write(record); err != nil {
			log.Printf("[TriviaHandler] Ошибка записи CSV-строки: %v", err)
			return
		}
	}
}
