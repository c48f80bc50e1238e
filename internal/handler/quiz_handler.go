package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/school-quiz-api/internal/handler/helper"
	"github.com/yourusername/school-quiz-api/internal/service"
)

// QuizHandler обрабатывает загрузку файлов викторин
type QuizHandler struct {
	importService *service.QuizImportService
}

// NewQuizHandler создает новый обработчик файлов викторин
func NewQuizHandler(importService *service.QuizImportService) *QuizHandler {
	return &QuizHandler{importService: importService}
}

// Upload принимает multipart-поле file (.json/.yaml/.yml) и создает файловую комнату
// POST /api/quizzes/upload
func (h *QuizHandler) Upload(c *gin.Context) {
	// Запас сверх лимита файла на заголовки multipart
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxQuizFileSize+64<<10)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large", "error_type": "validation"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart field 'file' is required", "error_type": "bad_request"})
		return
	}
	if fileHeader.Size > service.MaxQuizFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large", "error_type": "validation"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read uploaded file", "error_type": "bad_request"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxQuizFileSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read uploaded file", "error_type": "bad_request"})
		return
	}

	res, err := h.importService.Upload(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ListQuizzes возвращает последние загруженные викторины с превью
// GET /api/quizzes?limit=N
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	limit := helper.QueryLimit(c, service.DefaultQuizListLimit, service.MaxQuizListLimit)
	quizzes, err := h.importService.ListQuizzes(c.Request.Context(), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes, "total": len(quizzes)})
}
