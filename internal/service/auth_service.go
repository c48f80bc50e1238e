package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	"github.com/yourusername/school-quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
	"github.com/yourusername/school-quiz-api/pkg/auth"
)

const minPasswordLength = 4

// AuthService предоставляет методы для регистрации, входа и выпуска токенов
type AuthService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// RegisterInput содержит данные для регистрации
type RegisterInput struct {
	Username string
	Password string
	Role     string
	FullName string
}

// LoginResult - результат успешного входа
type LoginResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        *entity.User
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) *AuthService {
	return &AuthService{userRepo: userRepo, jwtService: jwtService}
}

// RegisterUser регистрирует ученика или учителя. Роль admin через публичную регистрацию недоступна.
func (s *AuthService) RegisterUser(input RegisterInput) (*entity.User, error) {
	if input.Role == "" {
		input.Role = entity.RoleStudent
	}
	if input.Role != entity.RoleStudent && input.Role != entity.RoleTeacher {
		return nil, fmt.Errorf("%w: role %q is not allowed for registration", apperrors.ErrValidation, input.Role)
	}
	return s.CreateUser(input)
}

// CreateUser создает пользователя с любой допустимой ролью (используется CLI create-user)
func (s *AuthService) CreateUser(input RegisterInput) (*entity.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", apperrors.ErrValidation)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, minPasswordLength)
	}
	if !entity.IsValidRole(input.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, input.Role)
	}

	user := &entity.User{
		Username: username,
		Password: input.Password,
		Role:     input.Role,
		FullName: strings.TrimSpace(input.FullName),
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: username already taken", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Printf("[AuthService] Зарегистрирован пользователь ID=%d username=%s role=%s", user.ID, user.Username, user.Role)
	return user, nil
}

// LoginUser проверяет логин и пароль и выпускает токен доступа
func (s *AuthService) LoginUser(username, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", apperrors.ErrUnauthorized)
		}
		return nil, transient("login", err)
	}
	if !user.CheckPassword(password) {
		return nil, fmt.Errorf("%w: invalid username or password", apperrors.ErrUnauthorized)
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResult{AccessToken: token, ExpiresIn: s.jwtService.TokenTTL(), User: user}, nil
}

// GetUserByID возвращает пользователя по ID
func (s *AuthService) GetUserByID(userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(userID)
}

// Authenticate проверяет токен доступа и загружает пользователя
func (s *AuthService) Authenticate(token string) (*entity.User, error) {
	claims, err := s.jwtService.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", apperrors.ErrUnauthorized)
		}
		return nil, transient("authenticate", err)
	}
	return user, nil
}

// GenerateWsTicket выпускает короткоживущий тикет для подключения к /ws
func (s *AuthService) GenerateWsTicket(user *entity.User) (string, error) {
	return s.jwtService.GenerateWSTicket(user.ID, user.Role)
}

// ValidateWsTicket проверяет тикет и возвращает ID пользователя
func (s *AuthService) ValidateWsTicket(ticket string) (uint, error) {
	claims, err := s.jwtService.ParseWSTicket(ticket)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	return claims.UserID, nil
}
