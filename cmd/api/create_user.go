package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	"github.com/yourusername/school-quiz-api/internal/repository/postgres"
	"github.com/yourusername/school-quiz-api/internal/service"
	"github.com/yourusername/school-quiz-api/pkg/auth"
)

func newCreateUserCmd(configPath *string) *cobra.Command {
	var input service.RegisterInput

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Создать пользователя с любой ролью (например, первого администратора)",
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
			if err := migrateUp(cfg, db); err != nil {
				return err
			}

			jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationMinutes, cfg.JWT.WSTicketExpirySec)
			if err != nil {
				return err
			}
			authService := service.NewAuthService(postgres.NewUserRepo(db), jwtService)

			user, err := authService.CreateUser(input)
			if err != nil {
				return err
			}
			log.Printf("Пользователь создан: ID=%d username=%s role=%s", user.ID, user.Username, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Username, "username", "", "имя пользователя")
	cmd.Flags().StringVar(&input.Password, "password", "", "пароль")
	cmd.Flags().StringVar(&input.Role, "role", entity.RoleAdmin, "роль: admin, teacher или student")
	cmd.Flags().StringVar(&input.FullName, "full-name", "", "ФИО")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
