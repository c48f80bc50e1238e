package entity

import (
	"encoding/json"
)

// Типы заданий
const (
	PuzzleTypeMultipleChoice = "multiple_choice"
	PuzzleTypeH5PMultiChoice = "h5p_multichoice"
	PuzzleTypeH5PQuestionSet = "h5p_questionset"
	PuzzleTypeH5PDrag        = "h5p_drag"
	PuzzleTypeH5PInteractive = "h5p_interactive"
)

// Значения по умолчанию для заданий
const (
	DefaultPuzzlePoints           = 10
	DefaultPuzzleTimeLimitSeconds = 300
)

// Puzzle представляет одно задание внутри комнаты.
// Content хранит сериализованный вопрос: текст, варианты и индекс правильного ответа.
// Для заданий из H5P-пакета Content - это content.json, а H5PMetadata - h5p.json пакета.
type Puzzle struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	RoomID           uint            `gorm:"not null;index:idx_puzzles_room_order,priority:1" json:"room_id"`
	Title            string          `gorm:"size:200;not null" json:"title"`
	PuzzleType       string          `gorm:"size:50;not null;default:'multiple_choice'" json:"puzzle_type"`
	Content          json.RawMessage `gorm:"type:text;not null" json:"content"`
	OrderIndex       int             `gorm:"not null;default:0;index:idx_puzzles_room_order,priority:2" json:"order_index"`
	Points           int             `gorm:"not null;default:10" json:"points"`
	TimeLimitSeconds int             `gorm:"not null;default:300" json:"time_limit_seconds"`
	H5PContentID     *string         `gorm:"column:h5p_content_id;size:36;uniqueIndex" json:"h5p_content_id,omitempty"`
	H5PMetadata      json.RawMessage `gorm:"column:h5p_metadata;type:text" json:"h5p_metadata,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (Puzzle) TableName() string {
	return "puzzles"
}

// ApplyDefaults заполняет незаданные поля значениями по умолчанию
func (p *Puzzle) ApplyDefaults() {
	if p.PuzzleType == "" {
		p.PuzzleType = PuzzleTypeMultipleChoice
	}
	if p.Points <= 0 {
		p.Points = DefaultPuzzlePoints
	}
	if p.TimeLimitSeconds <= 0 {
		p.TimeLimitSeconds = DefaultPuzzleTimeLimitSeconds
	}
}
