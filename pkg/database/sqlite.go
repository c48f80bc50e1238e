package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

// NewSQLiteDB открывает базу SQLite (файл или ":memory:") для локальной разработки и тестов.
// SQLite не поддерживает блокировку строк, поэтому пул ограничен одним соединением:
// это сериализует транзакции так же, как SELECT ... FOR UPDATE в PostgreSQL.
func NewSQLiteDB(path string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// AutoMigrate создает схему по моделям gorm (для SQLite, где SQL-миграции postgres не применимы)
func AutoMigrate(db *gorm.DB) error {
	log.Println("AutoMigrate: создание схемы по моделям")
	return db.AutoMigrate(
		&entity.User{},
		&entity.Room{},
		&entity.Puzzle{},
		&entity.Session{},
		&entity.Result{},
		&entity.RoomAssignment{},
	)
}
