package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/school-quiz-api/internal/service"
)

// AssignmentHandler обрабатывает закрепление учеников за комнатами
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

// NewAssignmentHandler создает новый обработчик назначений
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// AssignStudentRequest - тело запроса назначения, если student_id не передан в query
type AssignStudentRequest struct {
	StudentID uint `json:"student_id" binding:"required"`
}

// AssignStudent закрепляет ученика за комнатой. student_id берется из query или из JSON тела.
// POST /api/admin/rooms/:id/assign-student
func (h *AssignmentHandler) AssignStudent(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var studentID uint
	if raw := c.Query("student_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student_id", "error_type": "validation"})
			return
		}
		studentID = uint(id)
	} else {
		var req AssignStudentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			handleBindError(c, err)
			return
		}
		studentID = req.StudentID
	}

	res, err := h.assignmentService.AssignStudent(user, c.GetUint("roomID"), studentID)
	if err != nil {
		handleError(c, err)
		return
	}

	status, message := http.StatusCreated, "Student assigned"
	if !res.Created {
		status, message = http.StatusOK, "Student already assigned"
	}
	c.JSON(status, gin.H{"message": message, "assignment": res})
}

// ListAssigned возвращает учеников, закрепленных за комнатой
// GET /api/admin/rooms/:id/assignments
func (h *AssignmentHandler) ListAssigned(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	students, err := h.assignmentService.ListAssigned(user, c.GetUint("roomID"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students, "total": len(students)})
}
