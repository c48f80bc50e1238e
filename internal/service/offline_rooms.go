package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
	"github.com/yourusername/school-quiz-api/pkg/quizfile"
	"github.com/yourusername/school-quiz-api/pkg/scoring"
)

type offlineKey struct {
	roomID    uint
	studentID uint
}

type offlineSession struct {
	session entity.Session
	results map[uint]entity.Result
}

// OfflineRooms - реестр файловых комнат и их сессий в памяти процесса.
// Все операции сериализуются одним мьютексом.
type OfflineRooms struct {
	mu       sync.Mutex
	rooms    map[uint]*quizfile.Quiz
	sessions map[uint]*offlineSession
	active   map[offlineKey]uint
	nextID   uint
	now      func() time.Time
}

// NewOfflineRooms создает пустой реестр
func NewOfflineRooms() *OfflineRooms {
	return &OfflineRooms{
		rooms:    make(map[uint]*quizfile.Quiz),
		sessions: make(map[uint]*offlineSession),
		active:   make(map[offlineKey]uint),
		nextID:   entity.OfflineSessionIDBase,
		now:      time.Now,
	}
}

// Put добавляет или заменяет комнату с тем же ID
func (o *OfflineRooms) Put(quiz *quizfile.Quiz) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rooms[quiz.RoomID] = quiz
}

// Has проверяет наличие файловой комнаты
func (o *OfflineRooms) Has(roomID uint) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.rooms[roomID]
	return ok
}

// Len возвращает количество комнат
func (o *OfflineRooms) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.rooms)
}

// Summaries возвращает комнаты в виде элементов списка, по имени
func (o *OfflineRooms) Summaries() []entity.RoomSummary {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]entity.RoomSummary, 0, len(o.rooms))
	for _, quiz := range o.rooms {
		out = append(out, entity.RoomSummary{
			Room: entity.Room{
				ID:               quiz.RoomID,
				Name:             quiz.Name,
				Description:      quiz.Description,
				TimeLimitMinutes: quiz.TimeLimitMinutes,
				IsActive:         true,
			},
			PuzzleCount: int64(len(quiz.Puzzles)),
			Mode:        entity.SessionModeOffline,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Start возвращает незавершенную сессию ученика или создает новую
func (o *OfflineRooms) Start(roomID, studentID uint) (*entity.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.rooms[roomID]; !ok {
		return nil, fmt.Errorf("%w: room %d", apperrors.ErrNotFound, roomID)
	}
	key := offlineKey{roomID: roomID, studentID: studentID}
	if id, ok := o.active[key]; ok {
		s := o.sessions[id].session
		return &s, nil
	}

	id := o.nextID
	o.nextID++
	sess := &offlineSession{
		session: entity.Session{
			ID:        id,
			RoomID:    roomID,
			StudentID: studentID,
			StartedAt: o.now(),
			Status:    entity.SessionStatusInProgress,
		},
		results: make(map[uint]entity.Result),
	}
	o.sessions[id] = sess
	o.active[key] = id
	s := sess.session
	return &s, nil
}

// owned возвращает сессию пользователя. Чужая или отсутствующая сессия - ErrNotFound.
func (o *OfflineRooms) owned(sessionID, userID uint) (*offlineSession, error) {
	sess, ok := o.sessions[sessionID]
	if !ok || sess.session.StudentID != userID {
		return nil, fmt.Errorf("%w: session %d", apperrors.ErrNotFound, sessionID)
	}
	return sess, nil
}

// Puzzles возвращает задания комнаты сессии по порядку
func (o *OfflineRooms) Puzzles(sessionID, userID uint) ([]SessionPuzzle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess, err := o.owned(sessionID, userID)
	if err != nil {
		return nil, err
	}
	quiz, ok := o.rooms[sess.session.RoomID]
	if !ok {
		return nil, fmt.Errorf("%w: room %d", apperrors.ErrNotFound, sess.session.RoomID)
	}
	out := make([]SessionPuzzle, 0, len(quiz.Puzzles))
	for _, p := range quiz.Puzzles {
		out = append(out, SessionPuzzle{
			PuzzleID:         p.ID,
			Title:            p.Title,
			PuzzleType:       p.PuzzleType,
			Content:          p.Content,
			Points:           p.Points,
			TimeLimitSeconds: p.TimeLimitSeconds,
			OrderIndex:       p.OrderIndex,
		})
	}
	return out, nil
}

// Submit оценивает ответ по тем же правилам, что и для комнат из БД
func (o *OfflineRooms) Submit(userID uint, in SubmitInput, answer scoring.Answer, evaluator *scoring.Registry) (*SubmitResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess, err := o.owned(in.SessionID, userID)
	if err != nil {
		return nil, err
	}
	if !sess.session.IsInProgress() {
		return nil, fmt.Errorf("%w: session %d is %s", apperrors.ErrConflict, sess.session.ID, sess.session.Status)
	}
	quiz, ok := o.rooms[sess.session.RoomID]
	if !ok {
		return nil, fmt.Errorf("%w: room %d", apperrors.ErrNotFound, sess.session.RoomID)
	}
	var puzzle *quizfile.Puzzle
	for i := range quiz.Puzzles {
		if quiz.Puzzles[i].ID == in.PuzzleID {
			puzzle = &quiz.Puzzles[i]
			break
		}
	}
	if puzzle == nil {
		return nil, fmt.Errorf("%w: puzzle %d", apperrors.ErrNotFound, in.PuzzleID)
	}

	if prev, ok := sess.results[puzzle.ID]; ok {
		return nil, &DuplicateAnswerError{Result: SubmitResult{
			IsCorrect:    prev.IsCorrect,
			PointsEarned: prev.PointsEarned,
			TotalScore:   sess.session.TotalScore,
		}}
	}

	outcome := evaluator.Evaluate(puzzle.PuzzleType, puzzle.Points, puzzle.Content, answer)
	sess.results[puzzle.ID] = entity.Result{
		SessionID:        sess.session.ID,
		PuzzleID:         puzzle.ID,
		Answer:           json.RawMessage(append([]byte(nil), in.Answer...)),
		IsCorrect:        outcome.IsCorrect,
		PointsEarned:     outcome.PointsEarned,
		TimeTakenSeconds: in.TimeTakenSeconds,
		AnsweredAt:       o.now(),
	}
	sess.session.TotalScore += outcome.PointsEarned

	return &SubmitResult{
		IsCorrect:    outcome.IsCorrect,
		PointsEarned: outcome.PointsEarned,
		TotalScore:   sess.session.TotalScore,
	}, nil
}

// Progress пересчитывает прогресс сессии
func (o *OfflineRooms) Progress(sessionID, userID uint) (*entity.SessionProgress, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess, err := o.owned(sessionID, userID)
	if err != nil {
		return nil, err
	}
	total := 0
	if quiz, ok := o.rooms[sess.session.RoomID]; ok {
		total = len(quiz.Puzzles)
	}
	return &entity.SessionProgress{
		SessionID:      sess.session.ID,
		CompletedCount: int64(len(sess.results)),
		TotalCount:     int64(total),
		Score:          sess.session.TotalScore,
		Status:         sess.session.Status,
	}, nil
}

// Complete завершает сессию. Второй вызов возвращает сохраненный итог и changed=false.
func (o *OfflineRooms) Complete(sessionID, userID uint) (*entity.Session, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess, err := o.owned(sessionID, userID)
	if err != nil {
		return nil, false, err
	}
	switch sess.session.Status {
	case entity.SessionStatusCompleted:
		s := sess.session
		return &s, false, nil
	case entity.SessionStatusAbandoned:
		return nil, false, fmt.Errorf("%w: session %d is abandoned", apperrors.ErrConflict, sessionID)
	}

	now := o.now()
	sess.session.Status = entity.SessionStatusCompleted
	sess.session.CompletedAt = &now
	delete(o.active, offlineKey{roomID: sess.session.RoomID, studentID: sess.session.StudentID})
	s := sess.session
	return &s, true, nil
}

// AbandonExpired переводит просроченные сессии в abandoned
func (o *OfflineRooms) AbandonExpired(now time.Time, grace time.Duration) int64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	var count int64
	for key, id := range o.active {
		sess := o.sessions[id]
		limit := quizfile.DefaultTimeLimitMinutes
		if quiz, ok := o.rooms[key.roomID]; ok {
			limit = quiz.TimeLimitMinutes
		}
		deadline := sess.session.StartedAt.Add(time.Duration(limit)*time.Minute + grace)
		if now.After(deadline) {
			sess.session.Status = entity.SessionStatusAbandoned
			delete(o.active, key)
			count++
		}
	}
	return count
}
