package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yourusername/school-quiz-api/internal/config"
	"github.com/yourusername/school-quiz-api/internal/domain/repository"
	"github.com/yourusername/school-quiz-api/pkg/quizfile"
)

const quizPrefix = "quizzes/"

// S3Store хранит файлы викторин в S3-совместимом хранилище (MinIO)
type S3Store struct {
	client *minio.Client
	bucket string
}

// NewS3Store создает клиент MinIO
func NewS3Store(cfg config.S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket создает бакет, если его нет
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// Save загружает объект quizzes/<name>
func (s *S3Store) Save(ctx context.Context, name string, data []byte) (*repository.StoredQuizFile, error) {
	key := quizPrefix + path.Base(name)
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload quiz file: %w", err)
	}
	return &repository.StoredQuizFile{
		Path:       key,
		Name:       path.Base(key),
		Size:       info.Size,
		ModifiedAt: info.LastModified,
	}, nil
}

// Load скачивает объект целиком
func (s *S3Store) Load(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download quiz file: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read quiz file: %w", err)
	}
	return data, nil
}

// List перечисляет объекты с префиксом quizzes/, новые первыми
func (s *S3Store) List(ctx context.Context) ([]repository.StoredQuizFile, error) {
	var files []repository.StoredQuizFile
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: quizPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list quiz files: %w", obj.Err)
		}
		if !quizfile.IsSupported(obj.Key) {
			continue
		}
		files = append(files, repository.StoredQuizFile{
			Path:       obj.Key,
			Name:       path.Base(obj.Key),
			Size:       obj.Size,
			ModifiedAt: obj.LastModified,
		})
	}
	sortNewestFirst(files)
	return files, nil
}

func contentType(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".json") {
		return "application/json"
	}
	return "application/yaml"
}
