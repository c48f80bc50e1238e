package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	Delete(keys ...string) error
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	// Incr атомарно увеличивает счетчик и возвращает новое значение
	Incr(key string) (int64, error)
	// GetInt возвращает значение счетчика или ErrNotFound, если ключа нет
	GetInt(key string) (int64, error)
}
