package entity

import (
	"encoding/json"
	"time"
)

// Result хранит исход одной отправки ответа на задание.
// На пару (сессия, задание) допускается только один результат.
type Result struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	SessionID        uint            `gorm:"not null;uniqueIndex:idx_results_session_puzzle" json:"session_id"`
	PuzzleID         uint            `gorm:"not null;uniqueIndex:idx_results_session_puzzle;index" json:"puzzle_id"`
	Answer           json.RawMessage `gorm:"column:answer_json;type:text;not null" json:"answer"`
	IsCorrect        bool            `gorm:"not null;default:false" json:"is_correct"`
	PointsEarned     int             `gorm:"not null;default:0" json:"points_earned"`
	TimeTakenSeconds int             `gorm:"not null;default:0" json:"time_taken_seconds"`
	AnsweredAt       time.Time       `gorm:"not null" json:"answered_at"`
}

// TableName определяет имя таблицы для GORM
func (Result) TableName() string {
	return "puzzle_results"
}

// SessionReportRow - строка отчета по сессиям комнаты для экспорта
type SessionReportRow struct {
	SessionID      uint       `json:"session_id"`
	StudentID      uint       `json:"student_id"`
	Username       string     `json:"username"`
	FullName       string     `json:"full_name"`
	Status         string     `json:"status"`
	TotalScore     int        `json:"total_score"`
	CorrectAnswers int64      `json:"correct_answers"`
	AnsweredCount  int64      `json:"answered_count"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}
