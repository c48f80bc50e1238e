package auth

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

const (
	issuer          = "school-quiz-api"
	audienceAPI     = "school-quiz-api"
	audienceWS      = "school-quiz-ws"
	usageWSTicket   = "ws_ticket"
	defaultTokenTTL = 480 * time.Minute
	defaultWSTTL    = 60 * time.Second
)

var (
	// ErrInvalidToken возвращается для поддельного, просроченного или чужого токена
	ErrInvalidToken = errors.New("invalid token")
)

// JWTCustomClaims содержит пользовательские поля для токена
type JWTCustomClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	// Назначение токена: пусто для токена доступа, ws_ticket для WS-тикета
	Usage string `json:"usage,omitempty"`
	jwt.RegisteredClaims
}

// JWTService выпускает и проверяет токены доступа и WS-тикеты (HS256)
type JWTService struct {
	secret         []byte
	tokenTTL       time.Duration
	wsTicketExpiry time.Duration
	now            func() time.Time
}

// NewJWTService создает новый сервис JWT
func NewJWTService(secret string, expirationMinutes, wsTicketExpirySec int) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	ttl := time.Duration(expirationMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	wsTTL := time.Duration(wsTicketExpirySec) * time.Second
	if wsTTL <= 0 {
		wsTTL = defaultWSTTL
	}
	return &JWTService{
		secret:         []byte(secret),
		tokenTTL:       ttl,
		wsTicketExpiry: wsTTL,
		now:            time.Now,
	}, nil
}

// TokenTTL возвращает время жизни токена доступа
func (s *JWTService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// GenerateToken создает токен доступа. sub = ID пользователя.
func (s *JWTService) GenerateToken(user *entity.User) (string, error) {
	if user == nil || user.ID == 0 {
		return "", errors.New("user is required for token generation")
	}
	return s.sign(user.ID, user.Role, "", audienceAPI, s.tokenTTL)
}

// GenerateWSTicket создает короткоживущий тикет для подключения к /ws
func (s *JWTService) GenerateWSTicket(userID uint, role string) (string, error) {
	ticket, err := s.sign(userID, role, usageWSTicket, audienceWS, s.wsTicketExpiry)
	if err != nil {
		log.Printf("[JWT] Ошибка генерации WS-тикета для пользователя ID=%d: %v", userID, err)
		return "", err
	}
	return ticket, nil
}

// ParseToken проверяет токен доступа. WS-тикет как токен доступа не принимается.
func (s *JWTService) ParseToken(tokenString string) (*JWTCustomClaims, error) {
	claims, err := s.parse(tokenString, audienceAPI)
	if err != nil {
		return nil, err
	}
	if claims.Usage != "" {
		return nil, fmt.Errorf("%w: unexpected token usage %q", ErrInvalidToken, claims.Usage)
	}
	return claims, nil
}

// ParseWSTicket проверяет WS-тикет
func (s *JWTService) ParseWSTicket(ticketString string) (*JWTCustomClaims, error) {
	claims, err := s.parse(ticketString, audienceWS)
	if err != nil {
		return nil, err
	}
	if claims.Usage != usageWSTicket {
		return nil, fmt.Errorf("%w: not a websocket ticket", ErrInvalidToken)
	}
	return claims, nil
}

func (s *JWTService) sign(userID uint, role, usage, audience string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &JWTCustomClaims{
		UserID: userID,
		Role:   role,
		Usage:  usage,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Audience:  jwt.ClaimStrings{audience},
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) parse(tokenString, audience string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyAudience(audience, true) {
		return nil, fmt.Errorf("%w: wrong audience", ErrInvalidToken)
	}
	if claims.UserID == 0 {
		if id, convErr := strconv.ParseUint(claims.Subject, 10, 64); convErr == nil {
			claims.UserID = uint(id)
		}
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
