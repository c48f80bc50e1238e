// Package quizfile преобразует файлы викторин (H5P Question Set или простой формат,
// JSON или YAML) в нормализованный список заданий для файловой комнаты.
package quizfile

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/school-quiz-api/pkg/scoring"
)

// Параметры файловой комнаты
const (
	DefaultTimeLimitMinutes = 10
	DefaultPoints           = 10
	DefaultPuzzleSeconds    = 300
	Description             = "Викторина из файла (без базы данных)"
)

var (
	// ErrUnsupportedFormat возвращается для файлов с неподдерживаемым расширением
	ErrUnsupportedFormat = errors.New("unsupported quiz file format")
	// ErrMalformed возвращается, если файл не удается разобрать
	ErrMalformed = errors.New("malformed quiz file")
)

var timestampPrefix = regexp.MustCompile(`^\d+_`)

// Puzzle - задание файловой комнаты. ID назначаются последовательно с 1.
type Puzzle struct {
	ID               uint            `json:"id"`
	Title            string          `json:"title"`
	PuzzleType       string          `json:"puzzle_type"`
	Content          json.RawMessage `json:"content"`
	Points           int             `json:"points"`
	TimeLimitSeconds int             `json:"time_limit_seconds"`
	OrderIndex       int             `json:"order_index"`
}

// Quiz - нормализованная викторина из файла
type Quiz struct {
	RoomID           uint     `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	TimeLimitMinutes int      `json:"time_limit_minutes"`
	Source           string   `json:"source"`
	Puzzles          []Puzzle `json:"puzzles"`
}

// Preview - краткое описание файла для списка загруженных викторин
type Preview struct {
	Question     string `json:"question"`
	AnswersCount int    `json:"answers_count"`
}

type answer struct {
	Text    string `json:"text" yaml:"text"`
	Correct bool   `json:"correct" yaml:"correct"`
}

type questionBody struct {
	Question     string   `json:"question" yaml:"question"`
	Answers      []answer `json:"answers" yaml:"answers"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex *int     `json:"correct_index" yaml:"correct_index"`
	Points       int      `json:"points" yaml:"points"`
}

type questionItem struct {
	questionBody `yaml:",inline"`
	Params       *questionBody `json:"params" yaml:"params"`
}

type document struct {
	Title     string         `json:"title" yaml:"title"`
	Questions []questionItem `json:"questions" yaml:"questions"`
}

// RoomID вычисляет стабильный идентификатор комнаты по пути файла:
// первые 8 hex-символов md5 пути как беззнаковое число.
func RoomID(path string) uint {
	sum := md5.Sum([]byte(path))
	id, _ := strconv.ParseUint(hex.EncodeToString(sum[:])[:8], 16, 64)
	return uint(id)
}

// IsSupported проверяет расширение файла
func IsSupported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// SafeName убирает из имени файла разделители пути
func SafeName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return strings.TrimSpace(name)
}

// DisplayName возвращает имя комнаты: имя файла без расширения и без префикса времени загрузки
func DisplayName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return timestampPrefix.ReplaceAllString(stem, "")
}

// Validate проверяет, что данные разбираются в формате файла
func Validate(name string, data []byte) error {
	_, err := decode(name, data)
	return err
}

// Parse разбирает файл в викторину. path используется для ID и имени комнаты.
func Parse(path string, data []byte) (*Quiz, error) {
	doc, err := decode(path, data)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(doc.Title)
	if name == "" {
		name = DisplayName(path)
	}

	quiz := &Quiz{
		RoomID:           RoomID(path),
		Name:             name,
		Description:      Description,
		TimeLimitMinutes: DefaultTimeLimitMinutes,
		Source:           path,
		Puzzles:          make([]Puzzle, 0, len(doc.Questions)),
	}

	for i, item := range doc.Questions {
		puzzle, err := buildPuzzle(uint(i+1), item)
		if err != nil {
			return nil, err
		}
		quiz.Puzzles = append(quiz.Puzzles, puzzle)
	}
	return quiz, nil
}

// PreviewOf возвращает превью первого вопроса или nil для пустой викторины
func PreviewOf(quiz *Quiz) *Preview {
	if len(quiz.Puzzles) == 0 {
		return nil
	}
	q, err := scoring.ParseQuestion(quiz.Puzzles[0].Content)
	if err != nil {
		return nil
	}
	return &Preview{Question: q.Text, AnswersCount: len(q.Options)}
}

func decode(name string, data []byte) (*document, error) {
	var doc document
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
	return &doc, nil
}

func buildPuzzle(id uint, item questionItem) (Puzzle, error) {
	body := item.questionBody
	if item.Params != nil {
		body = *item.Params
	}

	text := strings.TrimSpace(body.Question)
	if text == "" {
		text = fmt.Sprintf("Вопрос %d", id)
	}

	options := body.Options
	correct := 0
	if len(body.Answers) > 0 {
		options = make([]string, len(body.Answers))
		for i, a := range body.Answers {
			options[i] = a.Text
		}
		for i, a := range body.Answers {
			if a.Correct {
				correct = i
				break
			}
		}
	} else if body.CorrectIndex != nil {
		correct = *body.CorrectIndex
	}
	if options == nil {
		options = []string{}
	}

	content, err := scoring.Question{Text: text, Options: options, CorrectIndex: &correct}.Content()
	if err != nil {
		return Puzzle{}, err
	}

	points := body.Points
	if points <= 0 {
		points = DefaultPoints
	}

	return Puzzle{
		ID:               id,
		Title:            text,
		PuzzleType:       scoring.TypeMultipleChoice,
		Content:          content,
		Points:           points,
		TimeLimitSeconds: DefaultPuzzleSeconds,
		OrderIndex:       int(id) - 1,
	}, nil
}
