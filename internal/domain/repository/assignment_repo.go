package repository

import (
	"time"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

// AssignmentRepository определяет методы для закрепления учеников за комнатами
type AssignmentRepository interface {
	// Assign создает назначение и возвращает false, если оно уже существовало
	Assign(roomID, studentID uint, assignedAt time.Time) (bool, error)
	// ListByRoom возвращает закрепленных учеников в порядке назначения
	ListByRoom(roomID uint) ([]entity.AssignedStudent, error)
}
