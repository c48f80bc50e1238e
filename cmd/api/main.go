package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("Ошибка: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	serve := newServeCmd(&configPath)
	cmd := &cobra.Command{
		Use:           "school-quiz-api",
		Short:         "Сервер школьных викторин",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Без подкоманды запускаем сервер
		RunE: serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", configPath, "путь к YAML-конфигурации (CONFIG_PATH)")
	cmd.AddCommand(serve)
	cmd.AddCommand(newMigrateCmd(&configPath))
	cmd.AddCommand(newCreateUserCmd(&configPath))
	return cmd
}
