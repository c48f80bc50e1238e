package dto

import (
	"time"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

// UserResponse представляет пользователя без хеша пароля
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse - ответ на успешный вход
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int           `json:"expires_in"`
	User        *UserResponse `json:"user"`
}

// NewUserResponse создает DTO пользователя
func NewUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
	}
}

// NewListUserResponse создает слайс DTO для списка пользователей
func NewListUserResponse(users []entity.User) []*UserResponse {
	list := make([]*UserResponse, len(users))
	for i := range users {
		list[i] = NewUserResponse(&users[i])
	}
	return list
}
