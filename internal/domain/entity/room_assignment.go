package entity

import (
	"time"
)

// RoomAssignment закрепляет ученика за комнатой. Пара (комната, ученик) уникальна.
type RoomAssignment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RoomID     uint      `gorm:"not null;uniqueIndex:idx_room_assignments_room_student" json:"room_id"`
	StudentID  uint      `gorm:"not null;uniqueIndex:idx_room_assignments_room_student;index" json:"student_id"`
	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`
}

// TableName определяет имя таблицы для GORM
func (RoomAssignment) TableName() string {
	return "room_assignments"
}

// AssignedStudent - строка списка учеников, закрепленных за комнатой
type AssignedStudent struct {
	StudentID  uint      `json:"student_id"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	AssignedAt time.Time `json:"assigned_at"`
}
