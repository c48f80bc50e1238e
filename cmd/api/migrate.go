package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/school-quiz-api/pkg/database"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Управление миграциями базы данных",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Применить все миграции",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB(db)
			return migrateUp(cfg, db)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Откатить последние миграции (только PostgreSQL)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Driver == "sqlite" {
				return fmt.Errorf("rollback is not supported for sqlite, remove %s instead", cfg.Database.SQLitePath)
			}
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB(db)
			return database.RollbackDB(db, migrationsSource, steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "сколько миграций откатить")
	cmd.AddCommand(down)

	return cmd
}
