// Package scoring содержит единую функцию оценки ответов на задания.
// Ее используют и сервер, и офлайн-клиент, поэтому правило сравнения и начисление баллов совпадают.
package scoring

import (
	"encoding/json"
)

// Типы заданий, для которых зарегистрированы стандартные оценщики
const (
	TypeMultipleChoice = "multiple_choice"
	TypeH5PMultiChoice = "h5p_multichoice"
	TypeH5PQuestionSet = "h5p_questionset"
	TypeH5PDrag        = "h5p_drag"
	TypeH5PInteractive = "h5p_interactive"
)

// Evaluator решает, является ли ответ правильным для сохраненного содержимого задания.
// Некорректное содержимое означает "правильный ответ не определен" и дает false.
type Evaluator interface {
	Evaluate(content []byte, answer Answer) bool
}

// EvaluatorFunc позволяет использовать обычную функцию как Evaluator
type EvaluatorFunc func(content []byte, answer Answer) bool

// Evaluate реализует Evaluator
func (f EvaluatorFunc) Evaluate(content []byte, answer Answer) bool {
	return f(content, answer)
}

// Outcome - результат оценки ответа
type Outcome struct {
	IsCorrect    bool `json:"is_correct"`
	PointsEarned int  `json:"points_earned"`
}

// Registry сопоставляет тип задания с оценщиком.
// Регистрация выполняется при инициализации; после этого реестр только читается.
type Registry struct {
	evaluators map[string]Evaluator
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{evaluators: make(map[string]Evaluator)}
}

// DefaultRegistry создает реестр со стандартными оценщиками
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeMultipleChoice, MultipleChoice{})
	r.Register(TypeH5PMultiChoice, H5PMultiChoice{})
	r.Register(TypeH5PQuestionSet, Unscored{})
	r.Register(TypeH5PDrag, Unscored{})
	r.Register(TypeH5PInteractive, Unscored{})
	return r
}

// Register добавляет или заменяет оценщик для типа задания
func (r *Registry) Register(puzzleType string, e Evaluator) {
	r.evaluators[puzzleType] = e
}

// Lookup возвращает оценщик для типа задания
func (r *Registry) Lookup(puzzleType string) (Evaluator, bool) {
	e, ok := r.evaluators[puzzleType]
	return e, ok
}

// Evaluate оценивает ответ. Неизвестный тип задания всегда дает {false, 0}.
func (r *Registry) Evaluate(puzzleType string, points int, content []byte, answer Answer) Outcome {
	e, ok := r.Lookup(puzzleType)
	if !ok {
		return Outcome{}
	}
	if !e.Evaluate(content, answer) {
		return Outcome{}
	}
	if points < 0 {
		points = 0
	}
	return Outcome{IsCorrect: true, PointsEarned: points}
}

var defaultRegistry = DefaultRegistry()

// Evaluate оценивает ответ стандартным реестром
func Evaluate(puzzleType string, points int, content []byte, answer Answer) Outcome {
	return defaultRegistry.Evaluate(puzzleType, points, content, answer)
}

// MultipleChoice оценивает вопросы {question, options, correct_index|correct}
type MultipleChoice struct{}

// Evaluate реализует Evaluator
func (MultipleChoice) Evaluate(content []byte, answer Answer) bool {
	q, err := ParseQuestion(content)
	if err != nil || q.CorrectIndex == nil {
		return false
	}
	return *q.CorrectIndex == answer.Selected
}

// H5PMultiChoice оценивает содержимое H5P MultiChoice:
// правильным считается первый вариант из answers с "correct": true.
type H5PMultiChoice struct{}

// Evaluate реализует Evaluator
func (H5PMultiChoice) Evaluate(content []byte, answer Answer) bool {
	idx, ok := h5pCorrectIndex(content)
	return ok && idx == answer.Selected
}

func h5pCorrectIndex(content []byte) (int, bool) {
	var payload struct {
		Answers []struct {
			Correct bool `json:"correct"`
		} `json:"answers"`
		Params *struct {
			Answers []struct {
				Correct bool `json:"correct"`
			} `json:"answers"`
		} `json:"params"`
	}
	if err := json.Unmarshal(content, &payload); err != nil {
		return 0, false
	}
	answers := payload.Answers
	if len(answers) == 0 && payload.Params != nil {
		answers = payload.Params.Answers
	}
	for i, a := range answers {
		if a.Correct {
			return i, true
		}
	}
	return 0, false
}

// Unscored принимает ответ, но никогда не засчитывает его.
// Используется для H5P-типов, проверка которых выполняется в самом H5P-плеере.
type Unscored struct{}

// Evaluate реализует Evaluator
func (Unscored) Evaluate([]byte, Answer) bool {
	return false
}
