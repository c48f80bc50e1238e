package repository

import (
	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	"gorm.io/gorm"
)

// ResultRepository определяет методы для работы с результатами ответов
type ResultRepository interface {
	Create(tx *gorm.DB, result *entity.Result) error
	// FindBySessionAndPuzzle возвращает ранее сохраненный результат или ErrNotFound
	FindBySessionAndPuzzle(tx *gorm.DB, sessionID, puzzleID uint) (*entity.Result, error)
	CountBySession(sessionID uint) (int64, error)
	ListBySession(sessionID uint) ([]entity.Result, error)
	// RoomReport собирает строки отчета по всем сессиям комнаты
	RoomReport(roomID uint) ([]entity.SessionReportRow, error)
}
