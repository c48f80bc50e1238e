package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(username string) (*entity.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) ListByRole(role string) ([]entity.User, error) {
	args := m.Called(role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

// MockRoomRepository реализует repository.RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) Create(room *entity.Room) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockRoomRepository) GetByID(id uint) (*entity.Room, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Room), args.Error(1)
}

func (m *MockRoomRepository) Update(room *entity.Room) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockRoomRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockRoomRepository) SetActive(id uint, active bool) (*entity.Room, error) {
	args := m.Called(id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Room), args.Error(1)
}

func (m *MockRoomRepository) ListSummaries(teacherID *uint, activeOnly bool) ([]entity.RoomSummary, error) {
	args := m.Called(teacherID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.RoomSummary), args.Error(1)
}

// MockPuzzleRepository реализует repository.PuzzleRepository
type MockPuzzleRepository struct {
	mock.Mock
}

func (m *MockPuzzleRepository) Create(puzzle *entity.Puzzle) error {
	args := m.Called(puzzle)
	return args.Error(0)
}

func (m *MockPuzzleRepository) GetByID(id uint) (*entity.Puzzle, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Puzzle), args.Error(1)
}

func (m *MockPuzzleRepository) GetByH5PContentID(contentID string) (*entity.Puzzle, error) {
	args := m.Called(contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Puzzle), args.Error(1)
}

func (m *MockPuzzleRepository) ListByRoom(roomID uint) ([]entity.Puzzle, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Puzzle), args.Error(1)
}

func (m *MockPuzzleRepository) CountByRoom(roomID uint) (int64, error) {
	args := m.Called(roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPuzzleRepository) Update(puzzle *entity.Puzzle) error {
	args := m.Called(puzzle)
	return args.Error(0)
}

func (m *MockPuzzleRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockPuzzleRepository) NextOrderIndex(roomID uint) (int, error) {
	args := m.Called(roomID)
	return args.Int(0), args.Error(1)
}

// MockResultRepository реализует repository.ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Create(tx *gorm.DB, result *entity.Result) error {
	args := m.Called(tx, result)
	return args.Error(0)
}

func (m *MockResultRepository) FindBySessionAndPuzzle(tx *gorm.DB, sessionID, puzzleID uint) (*entity.Result, error) {
	args := m.Called(tx, sessionID, puzzleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Result), args.Error(1)
}

func (m *MockResultRepository) CountBySession(sessionID uint) (int64, error) {
	args := m.Called(sessionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResultRepository) ListBySession(sessionID uint) ([]entity.Result, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Result), args.Error(1)
}

func (m *MockResultRepository) RoomReport(roomID uint) ([]entity.SessionReportRow, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SessionReportRow), args.Error(1)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Delete(keys ...string) error {
	args := m.Called(keys)
	return args.Error(0)
}

func (m *MockCacheRepository) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepository) Incr(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepository) GetInt(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

// recordingNotifier считает рассылки rooms_updated и фиксирует порядок относительно кеша
type recordingNotifier struct {
	mu     sync.Mutex
	calls  int
	onCall func()
}

func (n *recordingNotifier) NotifyRoomsUpdated() {
	n.mu.Lock()
	n.calls++
	hook := n.onCall
	n.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

// recordingPublisher запоминает опубликованные события сессий
type recordingPublisher struct {
	mu     sync.Mutex
	events []SessionCompletedEvent
}

func (p *recordingPublisher) PublishSessionCompleted(_ context.Context, event SessionCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []SessionCompletedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SessionCompletedEvent(nil), p.events...)
}

// recordingProgress запоминает разосланные обновления прогресса
type recordingProgress struct {
	mu   sync.Mutex
	sent []entity.ProgressUpdate
}

func (p *recordingProgress) NotifyProgress(update entity.ProgressUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, update)
}

func (p *recordingProgress) updates() []entity.ProgressUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.ProgressUpdate(nil), p.sent...)
}
