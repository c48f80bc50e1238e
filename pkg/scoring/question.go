package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Ошибки разбора ответа ученика. Все они оборачивают ErrInvalidAnswer.
var (
	ErrInvalidAnswer    = errors.New("invalid answer payload")
	ErrMissingSelection = fmt.Errorf("%w: missing \"selected\"", ErrInvalidAnswer)
	ErrInvalidSelection = fmt.Errorf("%w: \"selected\" must be an integer", ErrInvalidAnswer)
)

// Ключи индекса правильного ответа. Исторически встречаются оба;
// correct_index - каноническое имя, при наличии обоих используется оно.
const (
	keyCorrectIndex  = "correct_index"
	keyCorrectLegacy = "correct"
)

// Question - нормализованный вопрос с вариантами ответа.
// CorrectIndex == nil означает, что правильный ответ не определен.
type Question struct {
	Text         string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
}

// Content сериализует вопрос в каноническом формате хранения
func (q Question) Content() (json.RawMessage, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Answer - нормализованный ответ ученика
type Answer struct {
	Selected int `json:"selected"`
}

// ParseQuestion разбирает сохраненный вопрос множественного выбора.
// Индекс правильного ответа читается из correct_index или correct.
func ParseQuestion(content []byte) (Question, error) {
	fields, err := decodeObject(content)
	if err != nil {
		return Question{}, err
	}

	var q Question
	if raw, ok := fields["question"]; ok {
		_ = json.Unmarshal(raw, &q.Text)
	}
	if raw, ok := fields["options"]; ok {
		q.Options = decodeOptions(raw)
	}

	for _, key := range []string{keyCorrectIndex, keyCorrectLegacy} {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			continue
		}
		if idx, ok := coerceInt(raw); ok {
			q.CorrectIndex = &idx
		}
		break
	}
	return q, nil
}

// ParseAnswer разбирает ответ ученика вида {"selected": N}.
// Допускаются целые числа, целые значения с плавающей точкой и числовые строки.
func ParseAnswer(payload []byte) (Answer, error) {
	fields, err := decodeObject(payload)
	if err != nil {
		return Answer{}, ErrInvalidAnswer
	}
	raw, ok := fields["selected"]
	if !ok || isNull(raw) {
		return Answer{}, ErrMissingSelection
	}
	selected, ok := coerceInt(raw)
	if !ok {
		return Answer{}, ErrInvalidSelection
	}
	return Answer{Selected: selected}, nil
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty payload")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("payload is not an object")
	}
	return fields, nil
}

// decodeOptions принимает как массив строк, так и массив объектов {"text": ...}
func decodeOptions(raw json.RawMessage) []string {
	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var objects []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &objects); err != nil {
		return nil
	}
	options := make([]string, len(objects))
	for i, o := range objects {
		options[i] = o.Text
	}
	return options
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// coerceInt приводит JSON-значение к int: 1, 1.0 и "1" дают 1; 1.5, "abc", true - ошибка
func coerceInt(raw json.RawMessage) (int, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}

	var s string
	switch val := v.(type) {
	case json.Number:
		s = val.String()
	case string:
		s = strings.TrimSpace(val)
	default:
		return 0, false
	}

	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
