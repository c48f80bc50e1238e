package dto

import (
	"encoding/json"
	"time"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

// RoomResponse представляет комнату в списках и карточке комнаты
type RoomResponse struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	TeacherID        uint      `json:"teacher_id,omitempty"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	IsActive         bool      `json:"is_active"`
	PuzzleCount      int64     `json:"puzzle_count"`
	Mode             string    `json:"mode"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// RoomDetailsResponse - карточка комнаты вместе с заданиями
type RoomDetailsResponse struct {
	RoomResponse
	Puzzles []PuzzleResponse `json:"puzzles"`
}

// PuzzleResponse представляет задание для учителя
type PuzzleResponse struct {
	ID               uint            `json:"id"`
	RoomID           uint            `json:"room_id"`
	Title            string          `json:"title"`
	PuzzleType       string          `json:"puzzle_type"`
	Content          json.RawMessage `json:"content"`
	OrderIndex       int             `json:"order_index"`
	Points           int             `json:"points"`
	TimeLimitSeconds int             `json:"time_limit_seconds"`
}

// NewRoomResponse создает DTO комнаты без количества заданий
func NewRoomResponse(room *entity.Room) *RoomResponse {
	if room == nil {
		return nil
	}
	return &RoomResponse{
		ID:               room.ID,
		Name:             room.Name,
		Description:      room.Description,
		TeacherID:        room.TeacherID,
		TimeLimitMinutes: room.TimeLimitMinutes,
		IsActive:         room.IsActive,
		Mode:             entity.SessionModeCatalog,
		CreatedAt:        room.CreatedAt,
		UpdatedAt:        room.UpdatedAt,
	}
}

// NewListRoomResponse создает слайс DTO для списка комнат
func NewListRoomResponse(rooms []entity.RoomSummary) []RoomResponse {
	list := make([]RoomResponse, len(rooms))
	for i := range rooms {
		r := NewRoomResponse(&rooms[i].Room)
		r.PuzzleCount = rooms[i].PuzzleCount
		if rooms[i].Mode != "" {
			r.Mode = rooms[i].Mode
		}
		list[i] = *r
	}
	return list
}

// NewRoomDetailsResponse создает DTO карточки комнаты
func NewRoomDetailsResponse(room *entity.Room, puzzles []entity.Puzzle) *RoomDetailsResponse {
	details := &RoomDetailsResponse{
		RoomResponse: *NewRoomResponse(room),
		Puzzles:      NewListPuzzleResponse(puzzles),
	}
	details.PuzzleCount = int64(len(puzzles))
	return details
}

// NewPuzzleResponse создает DTO задания
func NewPuzzleResponse(p *entity.Puzzle) *PuzzleResponse {
	if p == nil {
		return nil
	}
	return &PuzzleResponse{
		ID:               p.ID,
		RoomID:           p.RoomID,
		Title:            p.Title,
		PuzzleType:       p.PuzzleType,
		Content:          p.Content,
		OrderIndex:       p.OrderIndex,
		Points:           p.Points,
		TimeLimitSeconds: p.TimeLimitSeconds,
	}
}

// NewListPuzzleResponse создает слайс DTO для списка заданий
func NewListPuzzleResponse(puzzles []entity.Puzzle) []PuzzleResponse {
	list := make([]PuzzleResponse, len(puzzles))
	for i := range puzzles {
		list[i] = *NewPuzzleResponse(&puzzles[i])
	}
	return list
}
