package service

import (
	"errors"
	"fmt"

	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
)

// ErrAnswerAlreadySubmitted возвращается при повторном ответе на задание.
// Ошибка оборачивает apperrors.ErrConflict.
var ErrAnswerAlreadySubmitted = fmt.Errorf("%w: answer already submitted", apperrors.ErrConflict)

// DuplicateAnswerError несет исходный результат повторно отправленного ответа
type DuplicateAnswerError struct {
	Result SubmitResult
}

func (e *DuplicateAnswerError) Error() string {
	return ErrAnswerAlreadySubmitted.Error()
}

func (e *DuplicateAnswerError) Unwrap() error {
	return ErrAnswerAlreadySubmitted
}

// AsDuplicateAnswer извлекает DuplicateAnswerError из цепочки ошибок
func AsDuplicateAnswer(err error) (*DuplicateAnswerError, bool) {
	var dup *DuplicateAnswerError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}

// isDomainError проверяет, относится ли ошибка к известной категории
func isDomainError(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrConflict) ||
		errors.Is(err, apperrors.ErrForbidden) || errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, apperrors.ErrUnauthorized) || errors.Is(err, apperrors.ErrTransient)
}

// transient помечает ошибку хранилища как временную
func transient(op string, err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, apperrors.ErrTransient, err)
}
