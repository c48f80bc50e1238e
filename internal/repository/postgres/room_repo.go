package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
)

// RoomRepo реализует repository.RoomRepository
type RoomRepo struct {
	db *gorm.DB
}

// NewRoomRepo создает новый репозиторий комнат
func NewRoomRepo(db *gorm.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// Create создает новую комнату
func (r *RoomRepo) Create(room *entity.Room) error {
	return r.db.Omit("Puzzles").Create(room).Error
}

// GetByID возвращает комнату по ID
func (r *RoomRepo) GetByID(id uint) (*entity.Room, error) {
	var room entity.Room
	if err := r.db.First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// Update сохраняет изменяемые поля комнаты
func (r *RoomRepo) Update(room *entity.Room) error {
	result := r.db.Model(&entity.Room{}).Where("id = ?", room.ID).Updates(map[string]interface{}{
		"name":               room.Name,
		"description":        room.Description,
		"time_limit_minutes": room.TimeLimitMinutes,
		"is_active":          room.IsActive,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete удаляет комнату вместе с ее заданиями, сессиями, результатами и назначениями
func (r *RoomRepo) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		sessionIDs := tx.Model(&entity.Session{}).Select("id").Where("room_id = ?", id)
		if err := tx.Where("session_id IN (?)", sessionIDs).Delete(&entity.Result{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", id).Delete(&entity.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", id).Delete(&entity.Puzzle{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", id).Delete(&entity.RoomAssignment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.Room{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// SetActive меняет флаг активности комнаты
func (r *RoomRepo) SetActive(id uint, active bool) (*entity.Room, error) {
	result := r.db.Model(&entity.Room{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrNotFound
	}
	return r.GetByID(id)
}

// ListSummaries возвращает комнаты с количеством заданий
func (r *RoomRepo) ListSummaries(teacherID *uint, activeOnly bool) ([]entity.RoomSummary, error) {
	var summaries []entity.RoomSummary
	query := r.db.Model(&entity.Room{}).
		Select("rooms.*, COUNT(puzzles.id) AS puzzle_count").
		Joins("LEFT JOIN puzzles ON puzzles.room_id = rooms.id").
		Group("rooms.id")
	if teacherID != nil {
		query = query.Where("rooms.teacher_id = ?", *teacherID)
	}
	if activeOnly {
		query = query.Where("rooms.is_active = ?", true)
	}
	if err := query.Order("rooms.created_at DESC, rooms.id DESC").Scan(&summaries).Error; err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i].Mode = entity.SessionModeCatalog
	}
	return summaries, nil
}
