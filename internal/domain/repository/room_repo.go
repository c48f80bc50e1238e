package repository

import (
	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

// RoomRepository определяет методы для работы с комнатами
type RoomRepository interface {
	Create(room *entity.Room) error
	GetByID(id uint) (*entity.Room, error)
	Update(room *entity.Room) error
	Delete(id uint) error
	// SetActive меняет флаг активности и возвращает обновленную комнату
	SetActive(id uint, active bool) (*entity.Room, error)
	// ListSummaries возвращает комнаты с количеством заданий.
	// teacherID == nil - без фильтра по владельцу; activeOnly - только активные.
	ListSummaries(teacherID *uint, activeOnly bool) ([]entity.RoomSummary, error)
}
