package service

import (
	"encoding/json"
	"time"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

// StartResult - сессия и режим комнаты (catalog или offline)
type StartResult struct {
	Session *entity.Session
	Mode    string
}

// SessionPuzzle - задание в том виде, в каком его получает ученик
type SessionPuzzle struct {
	PuzzleID         uint            `json:"puzzle_id"`
	Title            string          `json:"title"`
	PuzzleType       string          `json:"puzzle_type"`
	Content          json.RawMessage `json:"content"`
	Points           int             `json:"points"`
	TimeLimitSeconds int             `json:"time_limit_seconds"`
	OrderIndex       int             `json:"order_index"`
}

// SubmitInput - отправка ответа на задание
type SubmitInput struct {
	SessionID        uint
	PuzzleID         uint
	Answer           json.RawMessage
	TimeTakenSeconds int
}

// SubmitResult - исход отправки ответа
type SubmitResult struct {
	IsCorrect    bool `json:"is_correct"`
	PointsEarned int  `json:"points_earned"`
	TotalScore   int  `json:"total_score"`
}

// CompleteResult - итог завершения сессии
type CompleteResult struct {
	SessionID   uint       `json:"session_id"`
	Status      string     `json:"status"`
	TotalScore  int        `json:"total_score"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toSessionPuzzle(p entity.Puzzle) SessionPuzzle {
	return SessionPuzzle{
		PuzzleID:         p.ID,
		Title:            p.Title,
		PuzzleType:       p.PuzzleType,
		Content:          p.Content,
		Points:           p.Points,
		TimeLimitSeconds: p.TimeLimitSeconds,
		OrderIndex:       p.OrderIndex,
	}
}

func toCompleteResult(s *entity.Session) *CompleteResult {
	return &CompleteResult{
		SessionID:   s.ID,
		Status:      s.Status,
		TotalScore:  s.TotalScore,
		CompletedAt: s.CompletedAt,
	}
}
