package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// isUniqueViolation проверяет, является ли ошибка нарушением уникальности (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	// gorm с TranslateError (postgres и sqlite)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}

// IsUniqueViolation экспортирует проверку для сервисного слоя
func IsUniqueViolation(err error) bool {
	return isUniqueViolation(err)
}
