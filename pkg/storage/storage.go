// Package storage содержит реализации repository.QuizFileStorage.
package storage

import (
	"context"
	"fmt"
	"log"

	"github.com/yourusername/school-quiz-api/internal/config"
	"github.com/yourusername/school-quiz-api/internal/domain/repository"
)

// New выбирает драйвер хранилища по конфигурации
func New(ctx context.Context, cfg config.StorageConfig) (repository.QuizFileStorage, error) {
	switch cfg.Driver {
	case "", "disk":
		log.Printf("[Storage] Файлы викторин хранятся на диске: %s", cfg.UploadDir)
		return NewDiskStore(cfg.UploadDir)
	case "s3":
		store, err := NewS3Store(cfg.S3)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		log.Printf("[Storage] Файлы викторин хранятся в S3: %s/%s", cfg.S3.Endpoint, cfg.S3.Bucket)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
