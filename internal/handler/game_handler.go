package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/school-quiz-api/internal/handler/dto"
	"github.com/yourusername/school-quiz-api/internal/service"
)

// GameHandler обрабатывает прохождение комнат учениками
type GameHandler struct {
	sessionService *service.SessionService
	roomService    *service.RoomService
}

// NewGameHandler создает новый обработчик игровых сессий
func NewGameHandler(sessionService *service.SessionService, roomService *service.RoomService) *GameHandler {
	return &GameHandler{
		sessionService: sessionService,
		roomService:    roomService,
	}
}

// SubmitAnswerRequest представляет отправку ответа на задание
type SubmitAnswerRequest struct {
	SessionID        uint            `json:"session_id" binding:"required"`
	PuzzleID         uint            `json:"puzzle_id" binding:"required"`
	AnswerData       json.RawMessage `json:"answer_data" binding:"required"`
	TimeTakenSeconds int             `json:"time_taken_seconds"`
}

// AvailableRooms возвращает комнаты, доступные пользователю, включая файловые
// GET /api/game/available-rooms
func (h *GameHandler) AvailableRooms(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	rooms, err := h.roomService.GetAvailableRooms(user)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListRoomResponse(rooms))
}

// StartSession начинает или продолжает сессию в комнате
// POST /api/game/start-session/:room_id
func (h *GameHandler) StartSession(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	res, err := h.sessionService.StartSession(c.Request.Context(), c.GetUint("roomID"), user)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewStartSessionResponse(res))
}

// SessionPuzzles возвращает задания сессии по порядку
// GET /api/game/session/:id/puzzles
func (h *GameHandler) SessionPuzzles(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	puzzles, err := h.sessionService.GetSessionPuzzles(c.Request.Context(), c.GetUint("sessionID"), user.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListSessionPuzzleResponse(puzzles))
}

// SubmitAnswer оценивает ответ. Повторный ответ - 409 с исходным результатом.
// POST /api/game/submit-answer
func (h *GameHandler) SubmitAnswer(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	res, err := h.sessionService.SubmitAnswer(c.Request.Context(), user.ID, service.SubmitInput{
		SessionID:        req.SessionID,
		PuzzleID:         req.PuzzleID,
		Answer:           req.AnswerData,
		TimeTakenSeconds: req.TimeTakenSeconds,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubmitAnswerResponse(res))
}

// Progress возвращает прогресс сессии
// GET /api/game/session/:id/progress
func (h *GameHandler) Progress(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	progress, err := h.sessionService.GetProgress(c.Request.Context(), c.GetUint("sessionID"), user.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// CompleteSession завершает сессию
// POST /api/game/session/:id/complete
func (h *GameHandler) CompleteSession(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	res, err := h.sessionService.CompleteSession(c.Request.Context(), c.GetUint("sessionID"), user.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCompleteSessionResponse(res))
}
