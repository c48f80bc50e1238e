package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись не найдена или не принадлежит вызывающему.
	// Эти два случая намеренно не различаются.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок аутентификации (неверный токен, неверный пароль).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется при несоответствии роли или владельца.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (повторный ответ, завершенная сессия).
	ErrConflict = errors.New("resource state conflict")

	// ErrTransient используется для временных сбоев хранилища; запрос можно повторить.
	ErrTransient = errors.New("temporary failure")
)
