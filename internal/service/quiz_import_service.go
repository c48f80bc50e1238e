package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/yourusername/school-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
	"github.com/yourusername/school-quiz-api/pkg/quizfile"
)

// Ограничения загрузки и списка файлов викторин
const (
	MaxQuizFileSize      = 5 << 20
	DefaultQuizListLimit = 50
	MaxQuizListLimit     = 200
)

// UploadResult - итог загрузки файла викторины
type UploadResult struct {
	Filename    string `json:"filename"`
	RoomID      uint   `json:"room_id"`
	Name        string `json:"name"`
	PuzzleCount int    `json:"puzzle_count"`
}

// QuizFileInfo - элемент списка загруженных викторин
type QuizFileInfo struct {
	ID             uint              `json:"id"`
	Filename       string            `json:"filename"`
	Title          string            `json:"title"`
	QuestionsCount int               `json:"questions_count"`
	UploadedAt     time.Time         `json:"uploaded_at"`
	Preview        *quizfile.Preview `json:"preview,omitempty"`
}

// QuizImportService превращает загруженные файлы викторин в файловые комнаты
type QuizImportService struct {
	storage  repository.QuizFileStorage
	offline  *OfflineRooms
	notifier RoomNotifier
	now      func() time.Time
}

// NewQuizImportService создает сервис импорта
func NewQuizImportService(storage repository.QuizFileStorage, offline *OfflineRooms, notifier RoomNotifier) *QuizImportService {
	if notifier == nil {
		notifier = NoOpNotifier{}
	}
	return &QuizImportService{
		storage:  storage,
		offline:  offline,
		notifier: notifier,
		now:      time.Now,
	}
}

// Upload проверяет файл, сохраняет его как <unix_ts>_<имя> и регистрирует файловую комнату
func (s *QuizImportService) Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	if !quizfile.IsSupported(filename) {
		return nil, fmt.Errorf("%w: only .json, .yaml and .yml files are accepted", apperrors.ErrValidation)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", apperrors.ErrValidation)
	}
	if len(data) > MaxQuizFileSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", apperrors.ErrValidation, MaxQuizFileSize)
	}
	if err := quizfile.Validate(filename, data); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	storedName := fmt.Sprintf("%d_%s", s.now().Unix(), quizfile.SafeName(filepath.Base(filename)))
	stored, err := s.storage.Save(ctx, storedName, data)
	if err != nil {
		return nil, transient("save quiz file", err)
	}

	quiz, err := quizfile.Parse(stored.Path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	s.offline.Put(quiz)

	log.Printf("[QuizImport] Файл %s загружен: комната %d, заданий %d", stored.Name, quiz.RoomID, len(quiz.Puzzles))
	s.notifier.NotifyRoomsUpdated()

	return &UploadResult{
		Filename:    stored.Name,
		RoomID:      quiz.RoomID,
		Name:        quiz.Name,
		PuzzleCount: len(quiz.Puzzles),
	}, nil
}

// LoadAll загружает все сохраненные файлы в реестр файловых комнат.
// Поврежденные файлы пропускаются.
func (s *QuizImportService) LoadAll(ctx context.Context) (int, error) {
	files, err := s.storage.List(ctx)
	if err != nil {
		return 0, transient("list quiz files", err)
	}

	loaded := 0
	for _, f := range files {
		quiz, err := s.parseStored(ctx, f)
		if err != nil {
			log.Printf("[QuizImport] Пропущен файл %s: %v", f.Name, err)
			continue
		}
		s.offline.Put(quiz)
		loaded++
	}

	log.Printf("[QuizImport] Загружено файловых комнат: %d", loaded)
	if loaded > 0 {
		s.notifier.NotifyRoomsUpdated()
	}
	return loaded, nil
}

// ListQuizzes возвращает последние загруженные викторины с превью первого вопроса
func (s *QuizImportService) ListQuizzes(ctx context.Context, limit int) ([]QuizFileInfo, error) {
	if limit <= 0 {
		limit = DefaultQuizListLimit
	}
	if limit > MaxQuizListLimit {
		limit = MaxQuizListLimit
	}

	files, err := s.storage.List(ctx)
	if err != nil {
		return nil, transient("list quiz files", err)
	}

	out := make([]QuizFileInfo, 0, limit)
	for _, f := range files {
		if len(out) >= limit {
			break
		}
		quiz, err := s.parseStored(ctx, f)
		if err != nil {
			log.Printf("[QuizImport] Пропущен файл %s: %v", f.Name, err)
			continue
		}
		out = append(out, QuizFileInfo{
			ID:             quiz.RoomID,
			Filename:       f.Name,
			Title:          quiz.Name,
			QuestionsCount: len(quiz.Puzzles),
			UploadedAt:     f.ModifiedAt,
			Preview:        quizfile.PreviewOf(quiz),
		})
	}
	return out, nil
}

func (s *QuizImportService) parseStored(ctx context.Context, f repository.StoredQuizFile) (*quizfile.Quiz, error) {
	data, err := s.storage.Load(ctx, f.Path)
	if err != nil {
		return nil, err
	}
	return quizfile.Parse(f.Path, data)
}
