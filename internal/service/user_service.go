package service

import (
	"fmt"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	"github.com/yourusername/school-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
)

// UserService предоставляет списки пользователей для учителей и администраторов
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListByRole возвращает пользователей роли role
func (s *UserService) ListByRole(requester *entity.User, role string) ([]entity.User, error) {
	if !requester.IsStaff() {
		return nil, apperrors.ErrForbidden
	}
	if !entity.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, role)
	}
	users, err := s.userRepo.ListByRole(role)
	if err != nil {
		return nil, transient("list users", err)
	}
	return users, nil
}
