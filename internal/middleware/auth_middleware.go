package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
)

// Ключи контекста Gin, которые заполняет RequireAuth
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
	ContextUser   = "user"
)

// Authenticator проверяет токен доступа и возвращает пользователя
type Authenticator interface {
	Authenticate(token string) (*entity.User, error)
}

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	auth Authenticator
}

// NewAuthMiddleware создает новый middleware аутентификации
func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth проверяет заголовок Authorization: Bearer {token} и загружает пользователя
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "error_type": "token_missing"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_format"})
			return
		}

		user, err := m.auth.Authenticate(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, apperrors.ErrTransient) {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Temporary failure, retry later", "error_type": "transient"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextRole, user.Role)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// StaffOnly пропускает только учителей и администраторов. Применяется после RequireAuth.
func (m *AuthMiddleware) StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "unauthorized"})
			return
		}
		if !user.IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Teacher or admin role required", "error_type": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentUser возвращает пользователя, установленного RequireAuth
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	value, exists := c.Get(ContextUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*entity.User)
	return user, ok && user != nil
}
