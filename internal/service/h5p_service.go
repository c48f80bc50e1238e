package service

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	"github.com/yourusername/school-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
)

// Ограничения H5P-пакета
const (
	MaxH5PPackageSize  = 20 << 20
	maxH5PManifestSize = 2 << 20
)

// Пути внутри H5P-пакета
const (
	h5pManifestPath = "h5p.json"
	h5pContentPath  = "content/content.json"
)

const defaultH5PTitle = "H5P"

// H5PImportResult - итог импорта H5P-пакета
type H5PImportResult struct {
	PuzzleID   uint   `json:"puzzle_id"`
	ContentID  string `json:"content_id"`
	Title      string `json:"title"`
	PuzzleType string `json:"type"`
}

// H5PContent - метаданные задания, созданного из H5P-пакета
type H5PContent struct {
	ContentID string          `json:"content_id"`
	PuzzleID  uint            `json:"puzzle_id"`
	RoomID    uint            `json:"room_id"`
	Metadata  json.RawMessage `json:"metadata"`
}

// h5pPackage - разобранное содержимое .h5p архива
type h5pPackage struct {
	Title      string
	PuzzleType string
	Manifest   json.RawMessage
	Content    json.RawMessage
}

// H5PService импортирует H5P-пакеты как задания комнаты
type H5PService struct {
	rooms      *RoomService
	puzzleRepo repository.PuzzleRepository
	newID      func() string
}

// NewH5PService создает сервис H5P
func NewH5PService(rooms *RoomService, puzzleRepo repository.PuzzleRepository) *H5PService {
	return &H5PService{
		rooms:      rooms,
		puzzleRepo: puzzleRepo,
		newID:      func() string { return uuid.New().String() },
	}
}

// Import разбирает .h5p архив и добавляет задание в конец комнаты
func (s *H5PService) Import(user *entity.User, roomID uint, filename string, data []byte) (*H5PImportResult, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".h5p") {
		return nil, fmt.Errorf("%w: only .h5p files are accepted", apperrors.ErrValidation)
	}
	if len(data) > MaxH5PPackageSize {
		return nil, fmt.Errorf("%w: package exceeds %d bytes", apperrors.ErrValidation, MaxH5PPackageSize)
	}
	if _, err := s.rooms.GetManagedRoom(user, roomID); err != nil {
		return nil, err
	}

	pkg, err := parseH5PPackage(data)
	if err != nil {
		return nil, err
	}

	contentID := s.newID()
	puzzle, err := s.rooms.CreatePuzzle(user, roomID, PuzzleInput{
		Title:        &pkg.Title,
		PuzzleType:   &pkg.PuzzleType,
		Content:      pkg.Content,
		H5PContentID: &contentID,
		H5PMetadata:  pkg.Manifest,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[H5PService] Пакет %s импортирован в комнату %d как задание %d (%s)", filename, roomID, puzzle.ID, pkg.PuzzleType)
	return &H5PImportResult{
		PuzzleID:   puzzle.ID,
		ContentID:  contentID,
		Title:      puzzle.Title,
		PuzzleType: puzzle.PuzzleType,
	}, nil
}

// GetContent возвращает метаданные H5P-задания по его content_id
func (s *H5PService) GetContent(user *entity.User, contentID string) (*H5PContent, error) {
	if !user.IsStaff() {
		return nil, apperrors.ErrForbidden
	}
	puzzle, err := s.puzzleRepo.GetByH5PContentID(contentID)
	if err != nil {
		return nil, transient("get h5p content", err)
	}
	if _, err := s.rooms.GetManagedRoom(user, puzzle.RoomID); err != nil {
		return nil, err
	}
	return &H5PContent{
		ContentID: contentID,
		PuzzleID:  puzzle.ID,
		RoomID:    puzzle.RoomID,
		Metadata:  puzzle.H5PMetadata,
	}, nil
}

// DeleteContent удаляет задание, созданное из H5P-пакета. Обычные задания удаляются через DeletePuzzle.
func (s *H5PService) DeleteContent(user *entity.User, puzzleID uint) error {
	if !user.IsStaff() {
		return apperrors.ErrForbidden
	}
	puzzle, err := s.puzzleRepo.GetByID(puzzleID)
	if err != nil {
		return transient("get puzzle", err)
	}
	if puzzle.H5PContentID == nil {
		return fmt.Errorf("%w: puzzle %d has no h5p content", apperrors.ErrNotFound, puzzleID)
	}
	return s.rooms.DeletePuzzle(user, puzzleID)
}

func parseH5PPackage(data []byte) (*h5pPackage, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: file is not a valid zip archive", apperrors.ErrValidation)
	}

	manifest, err := readZipJSON(archive, h5pManifestPath)
	if err != nil {
		return nil, err
	}
	content, err := readZipJSON(archive, h5pContentPath)
	if err != nil {
		return nil, err
	}

	var meta struct {
		Title       string `json:"title"`
		MainLibrary string `json:"mainLibrary"`
	}
	if err := json.Unmarshal(manifest, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s must be a JSON object", apperrors.ErrValidation, h5pManifestPath)
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = defaultH5PTitle
	}
	if runes := []rune(title); len(runes) > 200 {
		title = string(runes[:200])
	}
	return &h5pPackage{
		Title:      title,
		PuzzleType: h5pPuzzleType(meta.MainLibrary),
		Manifest:   manifest,
		Content:    content,
	}, nil
}

// h5pPuzzleType определяет тип задания по основной библиотеке пакета (H5P.MultiChoice и т.п.)
func h5pPuzzleType(mainLibrary string) string {
	switch {
	case strings.Contains(mainLibrary, "MultiChoice"):
		return entity.PuzzleTypeH5PMultiChoice
	case strings.Contains(mainLibrary, "QuestionSet"):
		return entity.PuzzleTypeH5PQuestionSet
	case strings.Contains(mainLibrary, "DragQuestion"):
		return entity.PuzzleTypeH5PDrag
	default:
		return entity.PuzzleTypeH5PInteractive
	}
}

func readZipJSON(archive *zip.Reader, name string) (json.RawMessage, error) {
	for _, f := range archive.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot open %s: %v", apperrors.ErrValidation, name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxH5PManifestSize+1))
		if err != nil {
			if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrFormat) {
				return nil, fmt.Errorf("%w: %s is corrupted", apperrors.ErrValidation, name)
			}
			return nil, fmt.Errorf("%w: cannot read %s: %v", apperrors.ErrValidation, name, err)
		}
		if len(data) > maxH5PManifestSize {
			return nil, fmt.Errorf("%w: %s is too large", apperrors.ErrValidation, name)
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("%w: %s is not valid JSON", apperrors.ErrValidation, name)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: invalid h5p package (%s is missing)", apperrors.ErrValidation, name)
}
