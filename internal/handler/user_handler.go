package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	"github.com/yourusername/school-quiz-api/internal/handler/dto"
	"github.com/yourusername/school-quiz-api/internal/service"
)

// UserHandler обрабатывает запросы, связанные с пользователями
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListStudents возвращает всех учеников
// GET /api/admin/students
func (h *UserHandler) ListStudents(c *gin.Context) {
	h.listByRole(c, entity.RoleStudent)
}

// ListTeachers возвращает всех учителей
// GET /api/admin/teachers
func (h *UserHandler) ListTeachers(c *gin.Context) {
	h.listByRole(c, entity.RoleTeacher)
}

func (h *UserHandler) listByRole(c *gin.Context, role string) {
	user := currentUser(c)
	if user == nil {
		return
	}
	users, err := h.userService.ListByRole(user, role)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListUserResponse(users))
}
