package client

import (
	"encoding/json"
	"time"
)

// User - пользователь, как его возвращает API
type User struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse - ответ на вход
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        User   `json:"user"`
}

// Room - элемент списка доступных комнат
type Room struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	TimeLimitMinutes int    `json:"time_limit_minutes"`
	IsActive         bool   `json:"is_active"`
	PuzzleCount      int64  `json:"puzzle_count"`
	Mode             string `json:"mode"`
}

// Session - начатая сессия
type Session struct {
	SessionID  uint      `json:"session_id"`
	RoomID     uint      `json:"room_id"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	TotalScore int       `json:"total_score"`
	StartedAt  time.Time `json:"started_at"`
}

// Puzzle - задание сессии
type Puzzle struct {
	PuzzleID         uint            `json:"puzzle_id"`
	Title            string          `json:"title"`
	PuzzleType       string          `json:"puzzle_type"`
	Content          json.RawMessage `json:"content"`
	Points           int             `json:"points"`
	TimeLimitSeconds int             `json:"time_limit_seconds"`
	OrderIndex       int             `json:"order_index"`
}

// SubmitResult - итог оценки ответа
type SubmitResult struct {
	IsCorrect    bool `json:"is_correct"`
	PointsEarned int  `json:"points_earned"`
	TotalScore   int  `json:"total_score"`
}

// Progress - прогресс сессии
type Progress struct {
	SessionID      uint   `json:"session_id"`
	CompletedCount int64  `json:"completed_count"`
	TotalCount     int64  `json:"total_count"`
	Score          int    `json:"score"`
	Status         string `json:"status"`
}

// CompletedSession - итог завершения сессии
type CompletedSession struct {
	SessionID   uint       `json:"session_id"`
	Status      string     `json:"status"`
	TotalScore  int        `json:"total_score"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
