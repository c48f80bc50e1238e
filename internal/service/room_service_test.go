package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
	"github.com/yourusername/school-quiz-api/pkg/quizfile"
)

var (
	teacher      = &entity.User{ID: 1, Role: entity.RoleTeacher}
	otherTeacher = &entity.User{ID: 2, Role: entity.RoleTeacher}
	student      = &entity.User{ID: 3, Role: entity.RoleStudent}
	admin        = &entity.User{ID: 4, Role: entity.RoleAdmin}
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

type roomServiceFixture struct {
	rooms    *MockRoomRepository
	puzzles  *MockPuzzleRepository
	results  *MockResultRepository
	cache    *MockCacheRepository
	notifier *recordingNotifier
	offline  *OfflineRooms
	service  *RoomService
}

func newRoomServiceFixture() *roomServiceFixture {
	f := &roomServiceFixture{
		rooms:    new(MockRoomRepository),
		puzzles:  new(MockPuzzleRepository),
		results:  new(MockResultRepository),
		cache:    new(MockCacheRepository),
		notifier: &recordingNotifier{},
		offline:  NewOfflineRooms(),
	}
	f.cache.On("Incr", studentRoomsGenerationKey).Return(int64(1), nil).Maybe()
	f.service = NewRoomService(f.rooms, f.puzzles, f.results, f.cache, f.offline, f.notifier, 30*time.Second)
	return f
}

func TestRoomService_CreateRoomBroadcastsAfterCommit(t *testing.T) {
	f := newRoomServiceFixture()

	invalidated := false
	f.cache.On("Delete", []string{studentRoomsCacheKey}).Run(func(mock.Arguments) {
		invalidated = true
	}).Return(nil).Once()
	f.notifier.onCall = func() {
		assert.True(t, invalidated, "cache must be invalidated before broadcast")
	}
	f.rooms.On("Create", mock.AnythingOfType("*entity.Room")).Run(func(args mock.Arguments) {
		assert.Equal(t, 0, f.notifier.count(), "no broadcast before commit")
		args.Get(0).(*entity.Room).ID = 10
	}).Return(nil).Once()

	room, err := f.service.CreateRoom(teacher, RoomInput{Name: strPtr("Математика")})

	require.NoError(t, err)
	assert.Equal(t, uint(10), room.ID)
	assert.Equal(t, teacher.ID, room.TeacherID)
	assert.Equal(t, entity.DefaultRoomTimeLimitMinutes, room.TimeLimitMinutes)
	assert.False(t, room.IsActive)
	assert.Equal(t, 1, f.notifier.count())
	f.rooms.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestRoomService_FailedWriteDoesNotBroadcast(t *testing.T) {
	f := newRoomServiceFixture()
	f.rooms.On("Create", mock.Anything).Return(errors.New("connection reset")).Once()

	_, err := f.service.CreateRoom(teacher, RoomInput{Name: strPtr("Физика")})

	assert.ErrorIs(t, err, apperrors.ErrTransient)
	assert.Equal(t, 0, f.notifier.count())
	f.cache.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestRoomService_CreateRoomValidation(t *testing.T) {
	f := newRoomServiceFixture()

	_, err := f.service.CreateRoom(teacher, RoomInput{Name: strPtr("  ")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.service.CreateRoom(teacher, RoomInput{Name: strPtr("ok"), TimeLimitMinutes: intPtr(0)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.service.CreateRoom(student, RoomInput{Name: strPtr("ok")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRoomService_TeacherCannotManageForeignRoom(t *testing.T) {
	f := newRoomServiceFixture()
	f.rooms.On("GetByID", uint(5)).Return(&entity.Room{ID: 5, TeacherID: teacher.ID}, nil)

	_, err := f.service.ToggleActive(otherTeacher, 5)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	err = f.service.DeleteRoom(otherTeacher, 5)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	assert.Equal(t, 0, f.notifier.count())
	f.rooms.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestRoomService_ToggleActive(t *testing.T) {
	f := newRoomServiceFixture()
	f.rooms.On("GetByID", uint(5)).Return(&entity.Room{ID: 5, TeacherID: teacher.ID, IsActive: false}, nil)
	f.rooms.On("SetActive", uint(5), true).Return(&entity.Room{ID: 5, TeacherID: teacher.ID, IsActive: true}, nil).Once()
	f.cache.On("Delete", []string{studentRoomsCacheKey}).Return(nil)

	room, err := f.service.ToggleActive(admin, 5)

	require.NoError(t, err)
	assert.True(t, room.IsActive)
	assert.Equal(t, 1, f.notifier.count())
}

func TestRoomService_AvailableRoomsByRole(t *testing.T) {
	f := newRoomServiceFixture()
	f.offline.Put(&quizfile.Quiz{RoomID: 900, Name: "Файл", Puzzles: []quizfile.Puzzle{{ID: 1}}})

	teacherID := teacher.ID
	f.rooms.On("ListSummaries", &teacherID, false).Return([]entity.RoomSummary{{Room: entity.Room{ID: 1}}}, nil).Once()
	f.rooms.On("ListSummaries", (*uint)(nil), false).Return([]entity.RoomSummary{{Room: entity.Room{ID: 1}}, {Room: entity.Room{ID: 2}}}, nil).Once()

	rooms, err := f.service.GetAvailableRooms(teacher)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, uint(900), rooms[1].ID)
	assert.Equal(t, entity.SessionModeOffline, rooms[1].Mode)
	assert.Equal(t, int64(1), rooms[1].PuzzleCount)

	rooms, err = f.service.GetAvailableRooms(admin)
	require.NoError(t, err)
	assert.Len(t, rooms, 3)
}

func TestRoomService_StudentRoomsUseCache(t *testing.T) {
	f := newRoomServiceFixture()
	f.cache.On("GetInt", studentRoomsGenerationKey).Return(int64(0), apperrors.ErrNotFound)

	f.cache.On("GetJSON", studentRoomsCacheKey, mock.Anything).Return(apperrors.ErrNotFound).Once()
	f.rooms.On("ListSummaries", (*uint)(nil), true).Return([]entity.RoomSummary{{Room: entity.Room{ID: 7, IsActive: true}}}, nil).Once()
	f.cache.On("SetJSON", studentRoomsCacheKey, mock.Anything, 30*time.Second).Return(nil).Once()

	rooms, err := f.service.GetAvailableRooms(student)
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	f.cache.On("GetJSON", studentRoomsCacheKey, mock.Anything).Run(func(args mock.Arguments) {
		dest := args.Get(1).(*studentRoomsEntry)
		*dest = studentRoomsEntry{Rooms: []entity.RoomSummary{{Room: entity.Room{ID: 7, IsActive: true}}}}
	}).Return(nil).Once()

	rooms, err = f.service.GetAvailableRooms(student)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, uint(7), rooms[0].ID)

	f.rooms.AssertNumberOfCalls(t, "ListSummaries", 1)
}

func TestRoomService_CreatePuzzleAppendsAndValidates(t *testing.T) {
	f := newRoomServiceFixture()
	f.rooms.On("GetByID", uint(5)).Return(&entity.Room{ID: 5, TeacherID: teacher.ID}, nil)
	f.puzzles.On("NextOrderIndex", uint(5)).Return(3, nil)
	f.puzzles.On("Create", mock.AnythingOfType("*entity.Puzzle")).Return(nil).Once()
	f.cache.On("Delete", []string{studentRoomsCacheKey}).Return(nil)

	content := json.RawMessage(`{"question":"2+2?","options":["3","4"],"correct_index":1}`)
	puzzle, err := f.service.CreatePuzzle(teacher, 5, PuzzleInput{Title: strPtr("Сложение"), Content: content})

	require.NoError(t, err)
	assert.Equal(t, 3, puzzle.OrderIndex)
	assert.Equal(t, entity.PuzzleTypeMultipleChoice, puzzle.PuzzleType)
	assert.Equal(t, entity.DefaultPuzzlePoints, puzzle.Points)
	assert.Equal(t, entity.DefaultPuzzleTimeLimitSeconds, puzzle.TimeLimitSeconds)

	_, err = f.service.CreatePuzzle(teacher, 5, PuzzleInput{
		Title:   strPtr("Без ответа"),
		Content: json.RawMessage(`{"question":"?","options":["a"]}`),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.service.CreatePuzzle(teacher, 5, PuzzleInput{
		Title:   strPtr("Вне диапазона"),
		Content: json.RawMessage(`{"question":"?","options":["a"],"correct_index":4}`),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.service.CreatePuzzle(teacher, 5, PuzzleInput{
		Title:      strPtr("Неизвестный тип"),
		PuzzleType: strPtr("essay"),
		Content:    content,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	f.puzzles.AssertNumberOfCalls(t, "Create", 1)
	assert.Equal(t, 1, f.notifier.count(), "puzzle_count in the room list changed")
}

func TestRoomService_DeletePuzzleBroadcasts(t *testing.T) {
	f := newRoomServiceFixture()
	f.puzzles.On("GetByID", uint(40)).Return(&entity.Puzzle{ID: 40, RoomID: 5}, nil)
	f.rooms.On("GetByID", uint(5)).Return(&entity.Room{ID: 5, TeacherID: teacher.ID}, nil)
	f.puzzles.On("Delete", uint(40)).Return(nil).Once()

	invalidated := false
	f.cache.On("Delete", []string{studentRoomsCacheKey}).Run(func(mock.Arguments) {
		invalidated = true
	}).Return(nil).Once()
	f.notifier.onCall = func() {
		assert.True(t, invalidated, "cache must be invalidated before broadcast")
	}

	require.NoError(t, f.service.DeletePuzzle(teacher, 40))

	assert.Equal(t, 1, f.notifier.count())
	f.cache.AssertCalled(t, "Incr", studentRoomsGenerationKey)
	f.cache.AssertExpectations(t)
}

func TestRoomService_StaleCacheEntryIsIgnored(t *testing.T) {
	f := newRoomServiceFixture()
	f.cache.On("GetInt", studentRoomsGenerationKey).Return(int64(2), nil)
	f.cache.On("GetJSON", studentRoomsCacheKey, mock.Anything).Run(func(args mock.Arguments) {
		dest := args.Get(1).(*studentRoomsEntry)
		*dest = studentRoomsEntry{Generation: 1}
	}).Return(nil).Once()
	f.rooms.On("ListSummaries", (*uint)(nil), true).Return([]entity.RoomSummary{{Room: entity.Room{ID: 7, IsActive: true}}}, nil).Once()
	f.cache.On("SetJSON", studentRoomsCacheKey, studentRoomsEntry{
		Generation: 2,
		Rooms:      []entity.RoomSummary{{Room: entity.Room{ID: 7, IsActive: true}}},
	}, 30*time.Second).Return(nil).Once()

	rooms, err := f.service.GetAvailableRooms(student)

	require.NoError(t, err)
	require.Len(t, rooms, 1)
	f.cache.AssertExpectations(t)
}
