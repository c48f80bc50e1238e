package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	"github.com/yourusername/school-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
	"github.com/yourusername/school-quiz-api/pkg/scoring"
)

// Ключ кеша списка активных комнат для учеников
const (
	studentRoomsCacheKey      = "rooms:available:student"
	studentRoomsGenerationKey = "rooms:available:gen"
)

// studentRoomsEntry хранит список вместе с поколением, при котором он был прочитан из БД
type studentRoomsEntry struct {
	Generation int64                `json:"generation"`
	Rooms      []entity.RoomSummary `json:"rooms"`
}

// RoomInput содержит поля комнаты для создания и обновления.
// nil означает "не менять" при обновлении.
type RoomInput struct {
	Name             *string
	Description      *string
	TimeLimitMinutes *int
	IsActive         *bool
}

// PuzzleInput содержит поля задания для создания и обновления
type PuzzleInput struct {
	Title            *string
	PuzzleType       *string
	Content          json.RawMessage
	OrderIndex       *int
	Points           *int
	TimeLimitSeconds *int
	// Заполняются только импортом H5P-пакета
	H5PContentID *string
	H5PMetadata  json.RawMessage
}

// RoomService управляет каталогом комнат и заданий.
// После каждого успешного изменения списка комнат сбрасывается кеш и рассылается rooms_updated.
type RoomService struct {
	roomRepo   repository.RoomRepository
	puzzleRepo repository.PuzzleRepository
	resultRepo repository.ResultRepository
	cacheRepo  repository.CacheRepository
	offline    *OfflineRooms
	notifier   RoomNotifier
	cacheTTL   time.Duration
}

// NewRoomService создает новый сервис комнат. cacheRepo может быть nil (Redis отключен).
func NewRoomService(
	roomRepo repository.RoomRepository,
	puzzleRepo repository.PuzzleRepository,
	resultRepo repository.ResultRepository,
	cacheRepo repository.CacheRepository,
	offline *OfflineRooms,
	notifier RoomNotifier,
	cacheTTL time.Duration,
) *RoomService {
	if offline == nil {
		offline = NewOfflineRooms()
	}
	if notifier == nil {
		notifier = NoOpNotifier{}
	}
	return &RoomService{
		roomRepo:   roomRepo,
		puzzleRepo: puzzleRepo,
		resultRepo: resultRepo,
		cacheRepo:  cacheRepo,
		offline:    offline,
		notifier:   notifier,
		cacheTTL:   cacheTTL,
	}
}

// GetAvailableRooms возвращает комнаты из БД с учетом роли и все файловые комнаты
func (s *RoomService) GetAvailableRooms(user *entity.User) ([]entity.RoomSummary, error) {
	var (
		rooms []entity.RoomSummary
		err   error
	)
	switch user.Role {
	case entity.RoleAdmin:
		rooms, err = s.roomRepo.ListSummaries(nil, false)
	case entity.RoleTeacher:
		teacherID := user.ID
		rooms, err = s.roomRepo.ListSummaries(&teacherID, false)
	default:
		rooms, err = s.studentRooms()
	}
	if err != nil {
		return nil, transient("list rooms", err)
	}
	if rooms == nil {
		rooms = []entity.RoomSummary{}
	}
	return append(rooms, s.offline.Summaries()...), nil
}

// studentRooms читает список активных комнат через кеш. Запись, прочитанная до изменения
// каталога, помечена старым поколением и при чтении считается промахом.
func (s *RoomService) studentRooms() ([]entity.RoomSummary, error) {
	useCache := s.cacheRepo != nil && s.cacheTTL > 0
	var generation int64
	if useCache {
		var err error
		if generation, err = s.cacheGeneration(); err != nil {
			log.Printf("[RoomService] Ошибка чтения поколения кеша комнат: %v", err)
			useCache = false
		}
	}
	if useCache {
		var cached studentRoomsEntry
		err := s.cacheRepo.GetJSON(studentRoomsCacheKey, &cached)
		switch {
		case err == nil && cached.Generation == generation:
			return cached.Rooms, nil
		case err != nil && !errors.Is(err, apperrors.ErrNotFound):
			log.Printf("[RoomService] Ошибка чтения кеша комнат: %v", err)
		}
	}

	rooms, err := s.roomRepo.ListSummaries(nil, true)
	if err != nil {
		return nil, err
	}
	if useCache {
		entry := studentRoomsEntry{Generation: generation, Rooms: rooms}
		if err := s.cacheRepo.SetJSON(studentRoomsCacheKey, entry, s.cacheTTL); err != nil {
			log.Printf("[RoomService] Ошибка записи кеша комнат: %v", err)
		}
	}
	return rooms, nil
}

func (s *RoomService) cacheGeneration() (int64, error) {
	generation, err := s.cacheRepo.GetInt(studentRoomsGenerationKey)
	if errors.Is(err, apperrors.ErrNotFound) {
		return 0, nil
	}
	return generation, err
}

// roomsChanged сбрасывает кеш и уведомляет подписчиков. Вызывается только после успешной записи.
func (s *RoomService) roomsChanged() {
	s.invalidateCache()
	s.notifier.NotifyRoomsUpdated()
}

// invalidateCache сдвигает поколение до удаления списка
func (s *RoomService) invalidateCache() {
	if s.cacheRepo == nil {
		return
	}
	if _, err := s.cacheRepo.Incr(studentRoomsGenerationKey); err != nil {
		log.Printf("[RoomService] Ошибка смены поколения кеша комнат: %v", err)
	}
	if err := s.cacheRepo.Delete(studentRoomsCacheKey); err != nil {
		log.Printf("[RoomService] Ошибка сброса кеша комнат: %v", err)
	}
}

// ListManagedRooms возвращает комнаты, которыми управляет пользователь
func (s *RoomService) ListManagedRooms(user *entity.User) ([]entity.RoomSummary, error) {
	if !user.IsStaff() {
		return nil, apperrors.ErrForbidden
	}
	var teacherID *uint
	if user.Role == entity.RoleTeacher {
		id := user.ID
		teacherID = &id
	}
	rooms, err := s.roomRepo.ListSummaries(teacherID, false)
	if err != nil {
		return nil, transient("list rooms", err)
	}
	if rooms == nil {
		rooms = []entity.RoomSummary{}
	}
	return rooms, nil
}

// GetManagedRoom возвращает комнату, если пользователь - ее владелец или администратор
func (s *RoomService) GetManagedRoom(user *entity.User, roomID uint) (*entity.Room, error) {
	if !user.IsStaff() {
		return nil, apperrors.ErrForbidden
	}
	room, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		return nil, transient("get room", err)
	}
	if user.Role != entity.RoleAdmin && !room.IsOwnedBy(user.ID) {
		return nil, fmt.Errorf("%w: room %d belongs to another teacher", apperrors.ErrForbidden, roomID)
	}
	return room, nil
}

// CreateRoom создает комнату, владельцем становится текущий пользователь
func (s *RoomService) CreateRoom(user *entity.User, input RoomInput) (*entity.Room, error) {
	if !user.IsStaff() {
		return nil, apperrors.ErrForbidden
	}
	room := &entity.Room{
		TeacherID:        user.ID,
		TimeLimitMinutes: entity.DefaultRoomTimeLimitMinutes,
	}
	if err := applyRoomInput(room, input); err != nil {
		return nil, err
	}
	if room.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	if err := s.roomRepo.Create(room); err != nil {
		return nil, transient("create room", err)
	}

	log.Printf("[RoomService] Комната %d создана пользователем %d", room.ID, user.ID)
	s.roomsChanged()
	return room, nil
}

// UpdateRoom меняет переданные поля комнаты
func (s *RoomService) UpdateRoom(user *entity.User, roomID uint, input RoomInput) (*entity.Room, error) {
	room, err := s.GetManagedRoom(user, roomID)
	if err != nil {
		return nil, err
	}
	if err := applyRoomInput(room, input); err != nil {
		return nil, err
	}
	if room.Name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", apperrors.ErrValidation)
	}
	if err := s.roomRepo.Update(room); err != nil {
		return nil, transient("update room", err)
	}

	s.roomsChanged()
	return room, nil
}

// DeleteRoom удаляет комнату со всеми заданиями, сессиями и результатами
func (s *RoomService) DeleteRoom(user *entity.User, roomID uint) error {
	if _, err := s.GetManagedRoom(user, roomID); err != nil {
		return err
	}
	if err := s.roomRepo.Delete(roomID); err != nil {
		return transient("delete room", err)
	}

	log.Printf("[RoomService] Комната %d удалена пользователем %d", roomID, user.ID)
	s.roomsChanged()
	return nil
}

// ToggleActive переключает флаг активности комнаты
func (s *RoomService) ToggleActive(user *entity.User, roomID uint) (*entity.Room, error) {
	room, err := s.GetManagedRoom(user, roomID)
	if err != nil {
		return nil, err
	}
	updated, err := s.roomRepo.SetActive(roomID, !room.IsActive)
	if err != nil {
		return nil, transient("toggle room", err)
	}

	s.roomsChanged()
	return updated, nil
}

// ListPuzzles возвращает задания комнаты по порядку
func (s *RoomService) ListPuzzles(user *entity.User, roomID uint) ([]entity.Puzzle, error) {
	if _, err := s.GetManagedRoom(user, roomID); err != nil {
		return nil, err
	}
	puzzles, err := s.puzzleRepo.ListByRoom(roomID)
	if err != nil {
		return nil, transient("list puzzles", err)
	}
	if puzzles == nil {
		puzzles = []entity.Puzzle{}
	}
	return puzzles, nil
}

// CreatePuzzle добавляет задание в конец комнаты, если порядок не задан явно
func (s *RoomService) CreatePuzzle(user *entity.User, roomID uint, input PuzzleInput) (*entity.Puzzle, error) {
	if _, err := s.GetManagedRoom(user, roomID); err != nil {
		return nil, err
	}
	puzzle := &entity.Puzzle{RoomID: roomID}
	if input.OrderIndex == nil {
		next, err := s.puzzleRepo.NextOrderIndex(roomID)
		if err != nil {
			return nil, transient("next order index", err)
		}
		puzzle.OrderIndex = next
	}
	if err := applyPuzzleInput(puzzle, input); err != nil {
		return nil, err
	}
	if len(puzzle.Content) == 0 {
		return nil, fmt.Errorf("%w: content is required", apperrors.ErrValidation)
	}
	if err := s.puzzleRepo.Create(puzzle); err != nil {
		return nil, transient("create puzzle", err)
	}

	// Количество заданий входит в список комнат
	s.roomsChanged()
	return puzzle, nil
}

// managedPuzzle загружает задание и проверяет права на его комнату
func (s *RoomService) managedPuzzle(user *entity.User, puzzleID uint) (*entity.Puzzle, error) {
	puzzle, err := s.puzzleRepo.GetByID(puzzleID)
	if err != nil {
		return nil, transient("get puzzle", err)
	}
	if _, err := s.GetManagedRoom(user, puzzle.RoomID); err != nil {
		return nil, err
	}
	return puzzle, nil
}

// UpdatePuzzle меняет переданные поля задания
func (s *RoomService) UpdatePuzzle(user *entity.User, puzzleID uint, input PuzzleInput) (*entity.Puzzle, error) {
	puzzle, err := s.managedPuzzle(user, puzzleID)
	if err != nil {
		return nil, err
	}
	if err := applyPuzzleInput(puzzle, input); err != nil {
		return nil, err
	}
	if err := s.puzzleRepo.Update(puzzle); err != nil {
		return nil, transient("update puzzle", err)
	}
	return puzzle, nil
}

// DeletePuzzle удаляет задание вместе с его результатами
func (s *RoomService) DeletePuzzle(user *entity.User, puzzleID uint) error {
	if _, err := s.managedPuzzle(user, puzzleID); err != nil {
		return err
	}
	if err := s.puzzleRepo.Delete(puzzleID); err != nil {
		return transient("delete puzzle", err)
	}
	s.roomsChanged()
	return nil
}

// RoomReport возвращает строки отчета по сессиям комнаты для экспорта
func (s *RoomService) RoomReport(user *entity.User, roomID uint) (*entity.Room, []entity.SessionReportRow, error) {
	room, err := s.GetManagedRoom(user, roomID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.resultRepo.RoomReport(roomID)
	if err != nil {
		return nil, nil, transient("room report", err)
	}
	return room, rows, nil
}

// NotifyRoomsChanged используется импортом файлов после изменения файловых комнат
func (s *RoomService) NotifyRoomsChanged() {
	s.roomsChanged()
}

func applyRoomInput(room *entity.Room, input RoomInput) error {
	if input.Name != nil {
		room.Name = strings.TrimSpace(*input.Name)
		if len(room.Name) > 100 {
			return fmt.Errorf("%w: name is too long", apperrors.ErrValidation)
		}
	}
	if input.Description != nil {
		room.Description = *input.Description
	}
	if input.TimeLimitMinutes != nil {
		if *input.TimeLimitMinutes <= 0 {
			return fmt.Errorf("%w: time_limit_minutes must be positive", apperrors.ErrValidation)
		}
		room.TimeLimitMinutes = *input.TimeLimitMinutes
	}
	if input.IsActive != nil {
		room.IsActive = *input.IsActive
	}
	return nil
}

func applyPuzzleInput(puzzle *entity.Puzzle, input PuzzleInput) error {
	if input.Title != nil {
		puzzle.Title = strings.TrimSpace(*input.Title)
	}
	if input.PuzzleType != nil {
		puzzle.PuzzleType = *input.PuzzleType
	}
	if input.OrderIndex != nil {
		puzzle.OrderIndex = *input.OrderIndex
	}
	if input.Points != nil {
		if *input.Points < 0 {
			return fmt.Errorf("%w: points must not be negative", apperrors.ErrValidation)
		}
		puzzle.Points = *input.Points
	}
	if input.TimeLimitSeconds != nil {
		puzzle.TimeLimitSeconds = *input.TimeLimitSeconds
	}
	if len(input.Content) > 0 {
		puzzle.Content = input.Content
	}
	if input.H5PContentID != nil {
		puzzle.H5PContentID = input.H5PContentID
		puzzle.H5PMetadata = input.H5PMetadata
	}
	puzzle.ApplyDefaults()

	if puzzle.Title == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if _, ok := scoring.DefaultRegistry().Lookup(puzzle.PuzzleType); !ok {
		return fmt.Errorf("%w: unknown puzzle_type %q", apperrors.ErrValidation, puzzle.PuzzleType)
	}
	if len(puzzle.Content) > 0 && !json.Valid(puzzle.Content) {
		return fmt.Errorf("%w: content must be valid JSON", apperrors.ErrValidation)
	}
	if puzzle.PuzzleType == scoring.TypeMultipleChoice && len(puzzle.Content) > 0 {
		q, err := scoring.ParseQuestion(puzzle.Content)
		if err != nil || q.CorrectIndex == nil {
			return fmt.Errorf("%w: multiple_choice content needs a correct_index", apperrors.ErrValidation)
		}
		if len(q.Options) > 0 && (*q.CorrectIndex < 0 || *q.CorrectIndex >= len(q.Options)) {
			return fmt.Errorf("%w: correct_index is out of range", apperrors.ErrValidation)
		}
	}
	return nil
}
