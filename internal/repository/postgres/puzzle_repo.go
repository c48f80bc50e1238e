package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
)

// PuzzleRepo реализует repository.PuzzleRepository
type PuzzleRepo struct {
	db *gorm.DB
}

// NewPuzzleRepo создает новый репозиторий заданий
func NewPuzzleRepo(db *gorm.DB) *PuzzleRepo {
	return &PuzzleRepo{db: db}
}

func (r *PuzzleRepo) Create(puzzle *entity.Puzzle) error {
	return r.db.Create(puzzle).Error
}

func (r *PuzzleRepo) GetByID(id uint) (*entity.Puzzle, error) {
	var puzzle entity.Puzzle
	if err := r.db.First(&puzzle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &puzzle, nil
}

// GetByH5PContentID ищет задание, созданное из H5P-пакета
func (r *PuzzleRepo) GetByH5PContentID(contentID string) (*entity.Puzzle, error) {
	var puzzle entity.Puzzle
	if err := r.db.Where("h5p_content_id = ?", contentID).First(&puzzle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &puzzle, nil
}

func (r *PuzzleRepo) ListByRoom(roomID uint) ([]entity.Puzzle, error) {
	var puzzles []entity.Puzzle
	err := r.db.Where("room_id = ?", roomID).Order("order_index, id").Find(&puzzles).Error
	return puzzles, err
}

func (r *PuzzleRepo) CountByRoom(roomID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Puzzle{}).Where("room_id = ?", roomID).Count(&count).Error
	return count, err
}

func (r *PuzzleRepo) Update(puzzle *entity.Puzzle) error {
	result := r.db.Model(&entity.Puzzle{}).Where("id = ?", puzzle.ID).Updates(map[string]interface{}{
		"title":              puzzle.Title,
		"puzzle_type":        puzzle.PuzzleType,
		"content":            puzzle.Content,
		"order_index":        puzzle.OrderIndex,
		"points":             puzzle.Points,
		"time_limit_seconds": puzzle.TimeLimitSeconds,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete удаляет задание вместе с ответами на него
func (r *PuzzleRepo) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("puzzle_id = ?", id).Delete(&entity.Result{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.Puzzle{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

func (r *PuzzleRepo) NextOrderIndex(roomID uint) (int, error) {
	var maxIndex *int
	err := r.db.Model(&entity.Puzzle{}).Where("room_id = ?", roomID).
		Select("MAX(order_index)").Scan(&maxIndex).Error
	if err != nil {
		return 0, err
	}
	if maxIndex == nil {
		return 0, nil
	}
	return *maxIndex + 1, nil
}
