package postgres

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
)

// SessionRepo реализует repository.SessionRepository
type SessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo создает новый репозиторий сессий
func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// GetByID возвращает сессию по ID
func (r *SessionRepo) GetByID(id uint) (*entity.Session, error) {
	var session entity.Session
	if err := r.db.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// FindInProgress ищет незавершенную сессию пары (комната, ученик)
func (r *SessionRepo) FindInProgress(tx *gorm.DB, roomID, studentID uint) (*entity.Session, error) {
	var session entity.Session
	err := r.conn(tx).
		Where("room_id = ? AND student_id = ? AND status = ?", roomID, studentID, entity.SessionStatusInProgress).
		Order("id").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Create сохраняет новую сессию. Нарушение уникальности незавершенной сессии возвращает ErrConflict.
func (r *SessionRepo) Create(tx *gorm.DB, session *entity.Session) error {
	if err := r.conn(tx).Create(session).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return err
	}
	return nil
}

// LockByID читает сессию с блокировкой строки до конца транзакции
func (r *SessionRepo) LockByID(tx *gorm.DB, id uint) (*entity.Session, error) {
	var session entity.Session
	err := r.conn(tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// AddScore прибавляет delta к счету сессии одним UPDATE
func (r *SessionRepo) AddScore(tx *gorm.DB, id uint, delta int) error {
	result := r.conn(tx).Model(&entity.Session{}).Where("id = ?", id).
		UpdateColumn("total_score", gorm.Expr("total_score + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkCompleted переводит незавершенную сессию в completed
func (r *SessionRepo) MarkCompleted(tx *gorm.DB, id uint, completedAt time.Time) error {
	result := r.conn(tx).Model(&entity.Session{}).
		Where("id = ? AND status = ?", id, entity.SessionStatusInProgress).
		Updates(map[string]interface{}{
			"status":       entity.SessionStatusCompleted,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// AbandonExpired помечает как abandoned сессии, превысившие лимит времени комнаты плюс grace
func (r *SessionRepo) AbandonExpired(now time.Time, grace time.Duration) (int64, error) {
	var candidates []struct {
		ID               uint
		StartedAt        time.Time
		TimeLimitMinutes int
	}
	err := r.db.Table("game_sessions").
		Select("game_sessions.id, game_sessions.started_at, rooms.time_limit_minutes").
		Joins("JOIN rooms ON rooms.id = game_sessions.room_id").
		Where("game_sessions.status = ?", entity.SessionStatusInProgress).
		Scan(&candidates).Error
	if err != nil {
		return 0, err
	}

	var expired []uint
	for _, c := range candidates {
		deadline := c.StartedAt.Add(time.Duration(c.TimeLimitMinutes)*time.Minute + grace)
		if now.After(deadline) {
			expired = append(expired, c.ID)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	result := r.db.Model(&entity.Session{}).
		Where("id IN ? AND status = ?", expired, entity.SessionStatusInProgress).
		Update("status", entity.SessionStatusAbandoned)
	if result.Error != nil {
		return 0, result.Error
	}
	log.Printf("[SessionRepo] Помечено как abandoned: %d сессий", result.RowsAffected)
	return result.RowsAffected, nil
}

// ListByRoom возвращает все сессии комнаты
func (r *SessionRepo) ListByRoom(roomID uint) ([]entity.Session, error) {
	var sessions []entity.Session
	err := r.db.Where("room_id = ?", roomID).Order("id").Find(&sessions).Error
	return sessions, err
}
