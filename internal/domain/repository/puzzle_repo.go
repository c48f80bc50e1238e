package repository

import (
	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

// PuzzleRepository определяет методы для работы с заданиями
type PuzzleRepository interface {
	Create(puzzle *entity.Puzzle) error
	GetByID(id uint) (*entity.Puzzle, error)
	GetByH5PContentID(contentID string) (*entity.Puzzle, error)
	// ListByRoom возвращает задания комнаты в порядке (order_index, id)
	ListByRoom(roomID uint) ([]entity.Puzzle, error)
	CountByRoom(roomID uint) (int64, error)
	Update(puzzle *entity.Puzzle) error
	Delete(id uint) error
	// NextOrderIndex возвращает индекс для нового задания в конце комнаты
	NextOrderIndex(roomID uint) (int, error)
}
