package main

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/school-quiz-api/internal/config"
	"github.com/yourusername/school-quiz-api/pkg/database"
)

const migrationsSource = "file://migrations"

// loadConfig загружает конфигурацию по пути из флага --config
func loadConfig(configPath string) (*config.Config, error) {
	log.Printf("Загрузка конфигурации из %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openDB подключается к БД выбранного драйвера
func openDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := database.ParseLogLevel(cfg.Database.LogLevel)
	switch cfg.Database.Driver {
	case "sqlite":
		return database.NewSQLiteDB(cfg.Database.SQLitePath, logLevel)
	default:
		return database.NewPostgresDB(cfg.Database.PostgresConnectionString(), logLevel)
	}
}

// migrateUp приводит схему к актуальной версии: SQL-миграции для PostgreSQL,
// AutoMigrate для SQLite
func migrateUp(cfg *config.Config, db *gorm.DB) error {
	if cfg.Database.Driver == "sqlite" {
		return database.AutoMigrate(db)
	}
	return database.MigrateDB(db, migrationsSource)
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Ошибка закрытия соединения с БД: %v", err)
	}
}
