package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/school-quiz-api/internal/service"
)

// H5PHandler обрабатывает загрузку H5P-пакетов
type H5PHandler struct {
	h5pService *service.H5PService
}

// NewH5PHandler создает новый обработчик H5P
func NewH5PHandler(h5pService *service.H5PService) *H5PHandler {
	return &H5PHandler{h5pService: h5pService}
}

// Upload принимает multipart-поле file (.h5p) и создает задание в комнате room_id
// POST /api/admin/h5p/upload?room_id=N
func (h *H5PHandler) Upload(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	roomID, err := strconv.ParseUint(c.Query("room_id"), 10, 32)
	if err != nil || roomID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter room_id is required", "error_type": "validation"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxH5PPackageSize+64<<10)
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
	if fileHeader.Size > service.MaxH5PPackageSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large", "error_type": "validation"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read uploaded file", "error_type": "bad_request"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxH5PPackageSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read uploaded file", "error_type": "bad_request"})
		return
	}

	res, err := h.h5pService.Import(user, uint(roomID), fileHeader.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GetContent возвращает h5p.json и привязку H5P-задания по content_id
// GET /api/admin/h5p/content/:id
func (h *H5PHandler) GetContent(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	content, err := h.h5pService.GetContent(user, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

// DeleteContent удаляет H5P-задание по ID задания
// DELETE /api/admin/h5p/content/:id
func (h *H5PHandler) DeleteContent(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if err := h.h5pService.DeleteContent(user, c.GetUint("puzzleID")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "H5P content deleted"})
}
