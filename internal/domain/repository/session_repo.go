package repository

import (
	"time"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	"gorm.io/gorm"
)

// SessionRepository определяет методы для работы с игровыми сессиями.
// Методы с параметром tx выполняются внутри транзакции вызывающего.
type SessionRepository interface {
	GetByID(id uint) (*entity.Session, error)
	// FindInProgress ищет незавершенную сессию пары (комната, ученик)
	FindInProgress(tx *gorm.DB, roomID, studentID uint) (*entity.Session, error)
	Create(tx *gorm.DB, session *entity.Session) error
	// LockByID читает сессию с блокировкой строки (SELECT ... FOR UPDATE)
	LockByID(tx *gorm.DB, id uint) (*entity.Session, error)
	// AddScore атомарно прибавляет delta к total_score
	AddScore(tx *gorm.DB, id uint, delta int) error
	MarkCompleted(tx *gorm.DB, id uint, completedAt time.Time) error
	// AbandonExpired переводит просроченные сессии в abandoned и возвращает их количество
	AbandonExpired(now time.Time, grace time.Duration) (int64, error)
	ListByRoom(roomID uint) ([]entity.Session, error)
}
