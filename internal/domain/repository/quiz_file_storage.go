package repository

import (
	"context"
	"time"
)

// StoredQuizFile описывает сохраненный файл викторины
type StoredQuizFile struct {
	// Path - стабильный путь/ключ файла, от которого вычисляется ID комнаты
	Path       string
	Name       string
	Size       int64
	ModifiedAt time.Time
}

// QuizFileStorage хранит загруженные файлы викторин (диск или S3-совместимое хранилище)
type QuizFileStorage interface {
	Save(ctx context.Context, name string, data []byte) (*StoredQuizFile, error)
	Load(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context) ([]StoredQuizFile, error)
}
