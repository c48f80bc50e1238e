package client

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/yourusername/school-quiz-api/pkg/quizfile"
	"github.com/yourusername/school-quiz-api/pkg/scoring"
)

// OfflineSessionIDBase - начало диапазона идентификаторов локальных сессий
const OfflineSessionIDBase uint = 1_000_000_000

// Ошибки локальной игры
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrPuzzleNotFound    = errors.New("puzzle not found")
	ErrSessionClosed     = errors.New("session is not in progress")
	ErrAlreadySubmitted  = errors.New("answer already submitted")
	ErrInvalidAnswerData = errors.New("invalid answer data")
)

const (
	statusInProgress = "in_progress"
	statusCompleted  = "completed"
	modeOffline      = "offline"
)

type localSession struct {
	session     Session
	answers     map[uint]SubmitResult
	completedAt *time.Time
}

// LocalPlayer проводит игру по файлу викторины полностью на клиенте.
// Ответы оцениваются тем же оценщиком, что и на сервере.
type LocalPlayer struct {
	mu        sync.Mutex
	quiz      *quizfile.Quiz
	evaluator *scoring.Registry
	nextID    uint
	sessions  map[uint]*localSession
	now       func() time.Time
}

// LoadLocalPlayer читает файл викторины с диска
func LoadLocalPlayer(path string) (*LocalPlayer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quiz file: %w", err)
	}
	return NewLocalPlayer(path, data)
}

// NewLocalPlayer разбирает содержимое файла викторины. path задает ID комнаты.
func NewLocalPlayer(path string, data []byte) (*LocalPlayer, error) {
	quiz, err := quizfile.Parse(path, data)
	if err != nil {
		return nil, err
	}
	return &LocalPlayer{
		quiz:      quiz,
		evaluator: scoring.DefaultRegistry(),
		nextID:    OfflineSessionIDBase,
		sessions:  make(map[uint]*localSession),
		now:       time.Now,
	}, nil
}

// Room возвращает комнату, построенную из файла
func (p *LocalPlayer) Room() Room {
	return Room{
		ID:               p.quiz.RoomID,
		Name:             p.quiz.Name,
		Description:      p.quiz.Description,
		TimeLimitMinutes: p.quiz.TimeLimitMinutes,
		IsActive:         true,
		PuzzleCount:      int64(len(p.quiz.Puzzles)),
		Mode:             modeOffline,
	}
}

// Start возвращает незавершенную сессию или начинает новую
func (p *LocalPlayer) Start() Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.sessions {
		if s.session.Status == statusInProgress {
			return s.session
		}
	}
	id := p.nextID
	p.nextID++
	s := &localSession{
		session: Session{
			SessionID: id,
			RoomID:    p.quiz.RoomID,
			Mode:      modeOffline,
			Status:    statusInProgress,
			StartedAt: p.now(),
		},
		answers: make(map[uint]SubmitResult),
	}
	p.sessions[id] = s
	return s.session
}

// Puzzles возвращает задания в порядке прохождения
func (p *LocalPlayer) Puzzles() []Puzzle {
	puzzles := make([]Puzzle, len(p.quiz.Puzzles))
	for i, q := range p.quiz.Puzzles {
		puzzles[i] = Puzzle{
			PuzzleID:         q.ID,
			Title:            q.Title,
			PuzzleType:       q.PuzzleType,
			Content:          q.Content,
			Points:           q.Points,
			TimeLimitSeconds: q.TimeLimitSeconds,
			OrderIndex:       q.OrderIndex,
		}
	}
	return puzzles
}

// Submit оценивает ответ. Повторный ответ на то же задание возвращает
// исходный результат вместе с ErrAlreadySubmitted.
func (p *LocalPlayer) Submit(sessionID, puzzleID uint, answer scoring.Answer) (SubmitResult, error) {
	if answer.Selected < 0 {
		return SubmitResult{}, ErrInvalidAnswerData
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return SubmitResult{}, ErrSessionNotFound
	}
	if s.session.Status != statusInProgress {
		return SubmitResult{}, ErrSessionClosed
	}
	puzzle, ok := p.puzzle(puzzleID)
	if !ok {
		return SubmitResult{}, ErrPuzzleNotFound
	}
	if prev, ok := s.answers[puzzleID]; ok {
		return prev, ErrAlreadySubmitted
	}

	outcome := p.evaluator.Evaluate(puzzle.PuzzleType, puzzle.Points, puzzle.Content, answer)
	s.session.TotalScore += outcome.PointsEarned
	res := SubmitResult{
		IsCorrect:    outcome.IsCorrect,
		PointsEarned: outcome.PointsEarned,
		TotalScore:   s.session.TotalScore,
	}
	s.answers[puzzleID] = res
	return res, nil
}

// Progress возвращает прогресс локальной сессии
func (p *LocalPlayer) Progress(sessionID uint) (Progress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return Progress{}, ErrSessionNotFound
	}
	return Progress{
		SessionID:      sessionID,
		CompletedCount: int64(len(s.answers)),
		TotalCount:     int64(len(p.quiz.Puzzles)),
		Score:          s.session.TotalScore,
		Status:         s.session.Status,
	}, nil
}

// Complete завершает сессию. Повторный вызов возвращает сохраненный итог.
func (p *LocalPlayer) Complete(sessionID uint) (CompletedSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return CompletedSession{}, ErrSessionNotFound
	}
	if s.session.Status == statusInProgress {
		now := p.now()
		s.session.Status = statusCompleted
		s.completedAt = &now
	}
	return CompletedSession{
		SessionID:   sessionID,
		Status:      s.session.Status,
		TotalScore:  s.session.TotalScore,
		CompletedAt: s.completedAt,
	}, nil
}

func (p *LocalPlayer) puzzle(id uint) (quizfile.Puzzle, bool) {
	for _, q := range p.quiz.Puzzles {
		if q.ID == id {
			return q, true
		}
	}
	return quizfile.Puzzle{}, false
}
