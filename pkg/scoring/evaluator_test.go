package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_MultipleChoice_BothLegacyKeys(t *testing.T) {
	contents := map[string]string{
		"correct_index": `{"question":"Столица Германии?","options":["Paris","Berlin","Rome"],"correct_index":1}`,
		"correct":       `{"question":"Столица Германии?","options":["Paris","Berlin","Rome"],"correct":1}`,
	}

	for key, content := range contents {
		for selected := 0; selected < 3; selected++ {
			outcome := Evaluate(TypeMultipleChoice, 10, []byte(content), Answer{Selected: selected})
			if selected == 1 {
				assert.Equal(t, Outcome{IsCorrect: true, PointsEarned: 10}, outcome, "key=%s selected=%d", key, selected)
			} else {
				assert.Equal(t, Outcome{}, outcome, "key=%s selected=%d", key, selected)
			}
		}
	}
}

func TestEvaluate_MultipleChoice_PrefersCorrectIndex(t *testing.T) {
	content := []byte(`{"options":["a","b","c"],"correct_index":2,"correct":0}`)

	assert.True(t, Evaluate(TypeMultipleChoice, 5, content, Answer{Selected: 2}).IsCorrect)
	assert.False(t, Evaluate(TypeMultipleChoice, 5, content, Answer{Selected: 0}).IsCorrect)
}

func TestEvaluate_MultipleChoice_CoercesStoredIndex(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"строка", `{"correct":"1"}`},
		{"float", `{"correct_index":1.0}`},
		{"null у канонического ключа", `{"correct_index":null,"correct":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Evaluate(TypeMultipleChoice, 10, []byte(tt.content), Answer{Selected: 1})
			assert.True(t, outcome.IsCorrect)
			assert.Equal(t, 10, outcome.PointsEarned)
		})
	}
}

func TestEvaluate_MalformedContentIsIncorrect(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"пустое содержимое", ``},
		{"не JSON", `not json at all`},
		{"массив вместо объекта", `[1,2,3]`},
		{"нет ключа ответа", `{"question":"?","options":["a"]}`},
		{"дробный индекс", `{"correct_index":1.5}`},
		{"строка-не-число", `{"correct":"Berlin"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				outcome := Evaluate(TypeMultipleChoice, 10, []byte(tt.content), Answer{Selected: 1})
				assert.Equal(t, Outcome{}, outcome)
			})
		})
	}
}

func TestEvaluate_UnknownTypeScoresZero(t *testing.T) {
	content := []byte(`{"correct_index":0}`)

	outcome := Evaluate("drag_and_drop", 10, content, Answer{Selected: 0})

	assert.Equal(t, Outcome{}, outcome)
}

func TestEvaluate_H5PMultiChoice(t *testing.T) {
	content := []byte(`{"question":"2+2?","answers":[{"text":"3","correct":false},{"text":"4","correct":true},{"text":"5","correct":true}]}`)

	assert.Equal(t, Outcome{IsCorrect: true, PointsEarned: 3}, Evaluate(TypeH5PMultiChoice, 3, content, Answer{Selected: 1}))
	assert.False(t, Evaluate(TypeH5PMultiChoice, 3, content, Answer{Selected: 2}).IsCorrect, "Правильным считается первый отмеченный вариант")

	nested := []byte(`{"params":{"answers":[{"correct":true}]}}`)
	assert.True(t, Evaluate(TypeH5PMultiChoice, 1, nested, Answer{Selected: 0}).IsCorrect)
}

func TestEvaluate_UnscoredH5PTypes(t *testing.T) {
	content := []byte(`{"questions":[{"params":{"answers":[{"correct":true}]}}]}`)

	for _, puzzleType := range []string{TypeH5PQuestionSet, TypeH5PDrag, TypeH5PInteractive} {
		_, ok := DefaultRegistry().Lookup(puzzleType)
		assert.True(t, ok, puzzleType)
		assert.Equal(t, Outcome{}, Evaluate(puzzleType, 10, content, Answer{Selected: 0}), puzzleType)
	}
}

func TestRegistry_CustomEvaluator(t *testing.T) {
	r := NewRegistry()
	r.Register("always_right", EvaluatorFunc(func(content []byte, answer Answer) bool { return true }))

	assert.Equal(t, Outcome{IsCorrect: true, PointsEarned: 7}, r.Evaluate("always_right", 7, nil, Answer{}))
	assert.Equal(t, Outcome{}, r.Evaluate(TypeMultipleChoice, 7, []byte(`{"correct":0}`), Answer{}), "Пустой реестр не знает стандартных типов")

	_, ok := r.Lookup("always_right")
	assert.True(t, ok)
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
		wantErr error
	}{
		{"целое", `{"selected":1}`, 1, nil},
		{"целое float", `{"selected":2.0}`, 2, nil},
		{"числовая строка", `{"selected":" 0 "}`, 0, nil},
		{"нет ключа", `{"answer":1}`, 0, ErrMissingSelection},
		{"null", `{"selected":null}`, 0, ErrMissingSelection},
		{"дробное", `{"selected":1.5}`, 0, ErrInvalidSelection},
		{"текст", `{"selected":"Berlin"}`, 0, ErrInvalidSelection},
		{"bool", `{"selected":true}`, 0, ErrInvalidSelection},
		{"не объект", `[1]`, 0, ErrInvalidAnswer},
		{"пусто", ``, 0, ErrInvalidAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, err := ParseAnswer([]byte(tt.payload))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrInvalidAnswer, "Все ошибки ответа оборачивают ErrInvalidAnswer")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, answer.Selected)
		})
	}
}

func TestQuestion_ContentUsesCanonicalKey(t *testing.T) {
	idx := 2
	content, err := Question{Text: "?", Options: []string{"a", "b", "c"}, CorrectIndex: &idx}.Content()
	require.NoError(t, err)

	assert.JSONEq(t, `{"question":"?","options":["a","b","c"],"correct_index":2}`, string(content))

	parsed, err := ParseQuestion(content)
	require.NoError(t, err)
	require.NotNil(t, parsed.CorrectIndex)
	assert.Equal(t, 2, *parsed.CorrectIndex)
	assert.Equal(t, []string{"a", "b", "c"}, parsed.Options)
}
