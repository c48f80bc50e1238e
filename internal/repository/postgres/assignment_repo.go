package postgres

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

// AssignmentRepo реализует repository.AssignmentRepository
type AssignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo создает новый репозиторий назначений
func NewAssignmentRepo(db *gorm.DB) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

// Assign вставляет назначение через ON CONFLICT DO NOTHING, повторный вызов ничего не меняет
func (r *AssignmentRepo) Assign(roomID, studentID uint, assignedAt time.Time) (bool, error) {
	assignment := &entity.RoomAssignment{RoomID: roomID, StudentID: studentID, AssignedAt: assignedAt}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(assignment)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *AssignmentRepo) ListByRoom(roomID uint) ([]entity.AssignedStudent, error) {
	var students []entity.AssignedStudent
	err := r.db.Table("room_assignments").
		Select("room_assignments.student_id, users.username, users.full_name, room_assignments.assigned_at").
		Joins("JOIN users ON users.id = room_assignments.student_id").
		Where("room_assignments.room_id = ?", roomID).
		Order("room_assignments.assigned_at, room_assignments.id").
		Scan(&students).Error
	return students, err
}
