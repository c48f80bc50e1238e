package handler

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	"github.com/yourusername/school-quiz-api/internal/handler/dto"
	"github.com/yourusername/school-quiz-api/internal/handler/helper"
	"github.com/yourusername/school-quiz-api/internal/service"
)

// RoomHandler обрабатывает управление комнатами и заданиями для учителей и администраторов
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler создает новый обработчик комнат
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// RoomRequest представляет создание или изменение комнаты. Отсутствующие поля не меняются.
type RoomRequest struct {
	Name             *string `json:"name" binding:"omitempty,max=100"`
	Description      *string `json:"description" binding:"omitempty,max=2000"`
	TimeLimitMinutes *int    `json:"time_limit_minutes"`
	IsActive         *bool   `json:"is_active"`
}

// PuzzleRequest представляет создание или изменение задания
type PuzzleRequest struct {
	Title            *string         `json:"title" binding:"omitempty,max=200"`
	PuzzleType       *string         `json:"puzzle_type" binding:"omitempty,max=50"`
	Content          json.RawMessage `json:"content"`
	OrderIndex       *int            `json:"order_index"`
	Points           *int            `json:"points"`
	TimeLimitSeconds *int            `json:"time_limit_seconds"`
}

func (r RoomRequest) toInput() service.RoomInput {
	return service.RoomInput{
		Name:             r.Name,
		Description:      r.Description,
		TimeLimitMinutes: r.TimeLimitMinutes,
		IsActive:         r.IsActive,
	}
}

func (r PuzzleRequest) toInput() service.PuzzleInput {
	return service.PuzzleInput{
		Title:            r.Title,
		PuzzleType:       r.PuzzleType,
		Content:          r.Content,
		OrderIndex:       r.OrderIndex,
		Points:           r.Points,
		TimeLimitSeconds: r.TimeLimitSeconds,
	}
}

// ListRooms возвращает свои комнаты учителя или все комнаты для администратора
// GET /api/admin/rooms
func (h *RoomHandler) ListRooms(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	rooms, err := h.roomService.ListManagedRooms(user)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListRoomResponse(rooms))
}

// CreateRoom создает комнату
// POST /api/admin/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}
	room, err := h.roomService.CreateRoom(user, req.toInput())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewRoomResponse(room))
}

// GetRoom возвращает комнату вместе с заданиями
// GET /api/admin/rooms/:id
func (h *RoomHandler) GetRoom(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	roomID := c.GetUint("roomID")
	room, err := h.roomService.GetManagedRoom(user, roomID)
	if err != nil {
		handleError(c, err)
		return
	}
	puzzles, err := h.roomService.ListPuzzles(user, roomID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoomDetailsResponse(room, puzzles))
}

// UpdateRoom меняет переданные поля комнаты
// PUT /api/admin/rooms/:id
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}
	room, err := h.roomService.UpdateRoom(user, c.GetUint("roomID"), req.toInput())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoomResponse(room))
}

// DeleteRoom удаляет комнату
// DELETE /api/admin/rooms/:id
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if err := h.roomService.DeleteRoom(user, c.GetUint("roomID")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleActive переключает активность комнаты
// POST /api/admin/rooms/:id/activate
func (h *RoomHandler) ToggleActive(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	room, err := h.roomService.ToggleActive(user, c.GetUint("roomID"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRoomResponse(room))
}

// ListPuzzles возвращает задания комнаты
// GET /api/admin/rooms/:id/puzzles
func (h *RoomHandler) ListPuzzles(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	puzzles, err := h.roomService.ListPuzzles(user, c.GetUint("roomID"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListPuzzleResponse(puzzles))
}

// CreatePuzzle добавляет задание в комнату
// POST /api/admin/rooms/:id/puzzles
func (h *RoomHandler) CreatePuzzle(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req PuzzleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}
	puzzle, err := h.roomService.CreatePuzzle(user, c.GetUint("roomID"), req.toInput())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewPuzzleResponse(puzzle))
}

// UpdatePuzzle меняет переданные поля задания
// PUT /api/admin/puzzles/:id
func (h *RoomHandler) UpdatePuzzle(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	var req PuzzleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}
	puzzle, err := h.roomService.UpdatePuzzle(user, c.GetUint("puzzleID"), req.toInput())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPuzzleResponse(puzzle))
}

// DeletePuzzle удаляет задание
// DELETE /api/admin/puzzles/:id
func (h *RoomHandler) DeletePuzzle(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if err := h.roomService.DeletePuzzle(user, c.GetUint("puzzleID")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportRoomResults выгружает отчет по сессиям комнаты в CSV или Excel
// GET /api/admin/rooms/:id/results/export?format=csv|xlsx
func (h *RoomHandler) ExportRoomResults(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	roomID := c.GetUint("roomID")
	room, rows, err := h.roomService.RoomReport(user, roomID)
	if err != nil {
		handleError(c, err)
		return
	}

	filename := helper.ExportFilename(room.ID, time.Now())
	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		h.exportXLSX(c, rows, filename)
	case "csv":
		h.exportCSV(c, rows, filename)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx", "error_type": "bad_request"})
	}
}

var reportHeaders = []string{"Сессия", "Ученик", "ФИО", "Статус", "Баллы", "Правильных", "Отвечено", "Начало", "Завершение"}

func reportRow(r entity.SessionReportRow) []string {
	completed := ""
	if r.CompletedAt != nil {
		completed = r.CompletedAt.Format(time.RFC3339)
	}
	return []string{
		strconv.FormatUint(uint64(r.SessionID), 10),
		helper.SanitizeForExcel(r.Username),
		helper.SanitizeForExcel(r.FullName),
		translateSessionStatus(r.Status),
		strconv.Itoa(r.TotalScore),
		strconv.FormatInt(r.CorrectAnswers, 10),
		strconv.FormatInt(r.AnsweredCount, 10),
		r.StartedAt.Format(time.RFC3339),
		completed,
	}
}

// exportCSV выгружает отчет в CSV с BOM для корректного UTF-8 в Excel
func (h *RoomHandler) exportCSV(c *gin.Context, rows []entity.SessionReportRow, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
	c.Status(http.StatusOK)

	_, _ = c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})
	writer := csv.NewWriter(c.Writer)
	_ = writer.Write(reportHeaders)
	for _, r := range rows {
		_ = writer.Write(reportRow(r))
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("[RoomHandler] Ошибка записи CSV: %v", err)
	}
}

// exportXLSX выгружает отчет в Excel через StreamWriter
func (h *RoomHandler) exportXLSX(c *gin.Context, rows []entity.SessionReportRow, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Результаты"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		log.Printf("[RoomHandler] Ошибка переименования листа: %v", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[RoomHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file", "error_type": "internal"})
		return
	}

	headers := make([]interface{}, len(reportHeaders))
	for i, title := range reportHeaders {
		headers[i] = title
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[RoomHandler] Ошибка записи заголовков: %v", err)
	}
	for i, r := range rows {
		values := reportRow(r)
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		// Числовые колонки пишем числами
		row[4], row[5], row[6] = r.TotalScore, r.CorrectAnswers, r.AnsweredCount
		if err := sw.SetRow(fmt.Sprintf("A%d", i+2), row); err != nil {
			log.Printf("[RoomHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		log.Printf("[RoomHandler] Ошибка при Flush: %v", err)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[RoomHandler] Ошибка записи Excel в response: %v", err)
	}
}

// translateSessionStatus переводит статус сессии на русский
func translateSessionStatus(status string) string {
	switch status {
	case entity.SessionStatusInProgress:
		return "В процессе"
	case entity.SessionStatusCompleted:
		return "Завершена"
	case entity.SessionStatusAbandoned:
		return "Прервана"
	default:
		return status
	}
}
