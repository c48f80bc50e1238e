package dto

import (
	"encoding/json"
	"time"

	"github.com/yourusername/school-quiz-api/internal/service"
)

// StartSessionResponse - ответ на старт сессии
type StartSessionResponse struct {
	SessionID  uint      `json:"session_id"`
	RoomID     uint      `json:"room_id"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	TotalScore int       `json:"total_score"`
	StartedAt  time.Time `json:"started_at"`
}

// SessionPuzzleResponse - задание сессии вместе с сериализованным вопросом
type SessionPuzzleResponse struct {
	PuzzleID         uint            `json:"puzzle_id"`
	Title            string          `json:"title"`
	PuzzleType       string          `json:"puzzle_type"`
	Content          json.RawMessage `json:"content"`
	Points           int             `json:"points"`
	TimeLimitSeconds int             `json:"time_limit_seconds"`
	OrderIndex       int             `json:"order_index"`
}

// SubmitAnswerResponse - итог оценки ответа
type SubmitAnswerResponse struct {
	IsCorrect    bool `json:"is_correct"`
	PointsEarned int  `json:"points_earned"`
	TotalScore   int  `json:"total_score"`
}

// CompleteSessionResponse - итог завершенной сессии
type CompleteSessionResponse struct {
	SessionID   uint       `json:"session_id"`
	Status      string     `json:"status"`
	TotalScore  int        `json:"total_score"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewStartSessionResponse создает DTO старта сессии
func NewStartSessionResponse(res *service.StartResult) *StartSessionResponse {
	return &StartSessionResponse{
		SessionID:  res.Session.ID,
		RoomID:     res.Session.RoomID,
		Mode:       res.Mode,
		Status:     res.Session.Status,
		TotalScore: res.Session.TotalScore,
		StartedAt:  res.Session.StartedAt,
	}
}

// NewListSessionPuzzleResponse создает слайс DTO заданий сессии
func NewListSessionPuzzleResponse(puzzles []service.SessionPuzzle) []SessionPuzzleResponse {
	list := make([]SessionPuzzleResponse, len(puzzles))
	for i, p := range puzzles {
		list[i] = SessionPuzzleResponse{
			PuzzleID:         p.PuzzleID,
			Title:            p.Title,
			PuzzleType:       p.PuzzleType,
			Content:          p.Content,
			Points:           p.Points,
			TimeLimitSeconds: p.TimeLimitSeconds,
			OrderIndex:       p.OrderIndex,
		}
	}
	return list
}

// NewSubmitAnswerResponse создает DTO результата ответа
func NewSubmitAnswerResponse(res *service.SubmitResult) *SubmitAnswerResponse {
	if res == nil {
		return nil
	}
	return &SubmitAnswerResponse{
		IsCorrect:    res.IsCorrect,
		PointsEarned: res.PointsEarned,
		TotalScore:   res.TotalScore,
	}
}

// NewCompleteSessionResponse создает DTO завершения сессии
func NewCompleteSessionResponse(res *service.CompleteResult) *CompleteSessionResponse {
	return &CompleteSessionResponse{
		SessionID:   res.SessionID,
		Status:      res.Status,
		TotalScore:  res.TotalScore,
		CompletedAt: res.CompletedAt,
	}
}
