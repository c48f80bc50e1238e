package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	"github.com/yourusername/school-quiz-api/internal/handler/dto"
	"github.com/yourusername/school-quiz-api/internal/middleware"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
	"github.com/yourusername/school-quiz-api/internal/service"
)

// handleError переводит ошибки сервисов в HTTP ответ {"error", "error_type"}
func handleError(c *gin.Context, err error) {
	if dup, ok := service.AsDuplicateAnswer(err); ok {
		c.JSON(http.StatusConflict, gin.H{
			"error":      err.Error(),
			"error_type": "already_submitted",
			"result":     dto.NewSubmitAnswerResponse(&dup.Result),
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "error_type": "forbidden"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "validation"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "error_type": "unauthorized"})
	case errors.Is(err, apperrors.ErrTransient):
		log.Printf("[Handler] Временная ошибка %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporary failure, retry later", "error_type": "transient"})
	default:
		log.Printf("ERROR: Internal server error %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal"})
	}
}

// handleBindError отвечает 400 на неразбираемое тело запроса
func handleBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "error_type": "bad_request", "details": err.Error()})
}

// currentUser возвращает пользователя из контекста. Маршрут без RequireAuth - ошибка конфигурации.
func currentUser(c *gin.Context) *entity.User {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "unauthorized"})
		return nil
	}
	return user
}
