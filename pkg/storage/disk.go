package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/yourusername/school-quiz-api/internal/domain/repository"
	"github.com/yourusername/school-quiz-api/pkg/quizfile"
)

// DiskStore хранит файлы викторин в локальном каталоге
type DiskStore struct {
	dir string
}

// NewDiskStore создает хранилище и при необходимости каталог
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save записывает файл под заданным именем
func (s *DiskStore) Save(ctx context.Context, name string, data []byte) (*repository.StoredQuizFile, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write quiz file: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat quiz file: %w", err)
	}
	return &repository.StoredQuizFile{
		Path:       path,
		Name:       info.Name(),
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}, nil
}

// Load читает файл по пути, полученному из Save или List
func (s *DiskStore) Load(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quiz file: %w", err)
	}
	return data, nil
}

// List возвращает поддерживаемые файлы, новые первыми
func (s *DiskStore) List(ctx context.Context) ([]repository.StoredQuizFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload dir: %w", err)
	}

	files := make([]repository.StoredQuizFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !quizfile.IsSupported(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, repository.StoredQuizFile{
			Path:       filepath.Join(s.dir, entry.Name()),
			Name:       entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	sortNewestFirst(files)
	return files, nil
}

func sortNewestFirst(files []repository.StoredQuizFile) {
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModifiedAt.Equal(files[j].ModifiedAt) {
			return files[i].Name > files[j].Name
		}
		return files[i].ModifiedAt.After(files[j].ModifiedAt)
	})
}
