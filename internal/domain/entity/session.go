package entity

import (
	"time"
)

// Статусы игровой сессии
const (
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusAbandoned  = "abandoned"
)

// Режимы сессии: сессия по комнате из каталога или по комнате из загруженного файла
const (
	SessionModeCatalog = "catalog"
	SessionModeOffline = "offline"
)

// OfflineSessionIDBase - начало диапазона идентификаторов сессий файловых комнат.
// Диапазон не пересекается с идентификаторами сессий из БД.
const OfflineSessionIDBase uint = 1_000_000_000

// Session - попытка одного ученика пройти одну комнату
type Session struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RoomID      uint       `gorm:"not null;index;uniqueIndex:idx_sessions_in_progress,where:status = 'in_progress'" json:"room_id"`
	StudentID   uint       `gorm:"not null;index;uniqueIndex:idx_sessions_in_progress,where:status = 'in_progress'" json:"student_id"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	TotalScore  int        `gorm:"not null;default:0" json:"total_score"`
	Status      string     `gorm:"size:20;not null;default:'in_progress';index" json:"status"`
}

// TableName определяет имя таблицы для GORM
func (Session) TableName() string {
	return "game_sessions"
}

// IsInProgress возвращает true, если сессия еще принимает ответы
func (s *Session) IsInProgress() bool {
	return s.Status == SessionStatusInProgress
}

// IsOfflineSessionID проверяет, относится ли идентификатор к диапазону файловых комнат
func IsOfflineSessionID(id uint) bool {
	return id >= OfflineSessionIDBase
}

// SessionProgress - производное представление прогресса сессии
type SessionProgress struct {
	SessionID      uint   `json:"session_id"`
	CompletedCount int64  `json:"completed_count"`
	TotalCount     int64  `json:"total_count"`
	Score          int    `json:"score"`
	Status         string `json:"status"`
}

// ProgressUpdate рассылается наблюдающим за комнатой после каждого принятого ответа
type ProgressUpdate struct {
	RoomID    uint `json:"room_id"`
	StudentID uint `json:"student_id"`
	SessionProgress
}
