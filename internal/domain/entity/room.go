package entity

import (
	"time"
)

// DefaultRoomTimeLimitMinutes используется, если лимит времени комнаты не задан
const DefaultRoomTimeLimitMinutes = 60

// Room представляет комнату с упорядоченным набором заданий
type Room struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:100;not null" json:"name"`
	Description      string    `gorm:"type:text;not null;default:''" json:"description"`
	TeacherID        uint      `gorm:"not null;index" json:"teacher_id"`
	TimeLimitMinutes int       `gorm:"not null;default:60" json:"time_limit_minutes"`
	IsActive         bool      `gorm:"not null;default:false;index" json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Puzzles []Puzzle `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"puzzles,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Room) TableName() string {
	return "rooms"
}

// IsOwnedBy проверяет, принадлежит ли комната пользователю
func (r *Room) IsOwnedBy(userID uint) bool {
	return r.TeacherID == userID
}

// VisibleTo определяет, видит ли пользователь комнату:
// администратор видит все комнаты, учитель только свои, ученик только активные.
func (r *Room) VisibleTo(user *User) bool {
	switch user.Role {
	case RoleAdmin:
		return true
	case RoleTeacher:
		return r.IsOwnedBy(user.ID)
	default:
		return r.IsActive
	}
}

// RoomSummary - комната вместе с количеством заданий для списков
type RoomSummary struct {
	Room
	PuzzleCount int64  `json:"puzzle_count"`
	Mode        string `json:"mode"`
}
