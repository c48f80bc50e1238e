package postgres

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
)

// ResultRepo реализует repository.ResultRepository
type ResultRepo struct {
	db *gorm.DB
}

// NewResultRepo создает новый репозиторий результатов
func NewResultRepo(db *gorm.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

func (r *ResultRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create сохраняет результат. Повторный ответ на то же задание возвращает ErrConflict.
func (r *ResultRepo) Create(tx *gorm.DB, result *entity.Result) error {
	if err := r.conn(tx).Create(result).Error; err != nil {
		if isUniqueViolation(err) {
			log.Printf("[ResultRepo] Повторный ответ: session=%d puzzle=%d", result.SessionID, result.PuzzleID)
			return fmt.Errorf("puzzle %d already answered: %w", result.PuzzleID, apperrors.ErrConflict)
		}
		return err
	}
	return nil
}

// FindBySessionAndPuzzle возвращает ранее сохраненный результат
func (r *ResultRepo) FindBySessionAndPuzzle(tx *gorm.DB, sessionID, puzzleID uint) (*entity.Result, error) {
	var result entity.Result
	err := r.conn(tx).Where("session_id = ? AND puzzle_id = ?", sessionID, puzzleID).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

// CountBySession возвращает количество сохраненных результатов сессии
func (r *ResultRepo) CountBySession(sessionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Result{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}

// ListBySession возвращает результаты сессии в порядке ответа
func (r *ResultRepo) ListBySession(sessionID uint) ([]entity.Result, error) {
	var results []entity.Result
	err := r.db.Where("session_id = ?", sessionID).Order("answered_at, id").Find(&results).Error
	return results, err
}

// RoomReport собирает итоги всех сессий комнаты
func (r *ResultRepo) RoomReport(roomID uint) ([]entity.SessionReportRow, error) {
	var rows []entity.SessionReportRow
	err := r.db.Table("game_sessions AS s").
		Select(`s.id AS session_id, s.student_id, u.username, u.full_name, s.status, s.total_score,
			s.started_at, s.completed_at,
			COUNT(pr.id) AS answered_count,
			COALESCE(SUM(CASE WHEN pr.is_correct THEN 1 ELSE 0 END), 0) AS correct_answers`).
		Joins("JOIN users AS u ON u.id = s.student_id").
		Joins("LEFT JOIN puzzle_results AS pr ON pr.session_id = s.id").
		Where("s.room_id = ?", roomID).
		Group("s.id, s.student_id, u.username, u.full_name, s.status, s.total_score, s.started_at, s.completed_at").
		Order("s.total_score DESC, s.id").
		Scan(&rows).Error
	return rows, err
}
