package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
)

func newTestService(t *testing.T) *JWTService {
	t.Helper()
	s, err := NewJWTService("test-secret", 480, 60)
	require.NoError(t, err)
	return s
}

func TestJWTService_TokenRoundTrip(t *testing.T) {
	s := newTestService(t)
	user := &entity.User{ID: 42, Role: entity.RoleTeacher}

	token, err := s.GenerateToken(user)
	require.NoError(t, err)

	claims, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, entity.RoleTeacher, claims.Role)
	assert.Equal(t, 480*time.Minute, s.TokenTTL())
}

func TestJWTService_RejectsForeignSecret(t *testing.T) {
	s := newTestService(t)
	other, err := NewJWTService("other-secret", 480, 60)
	require.NoError(t, err)

	token, err := other.GenerateToken(&entity.User{ID: 1, Role: entity.RoleStudent})
	require.NoError(t, err)

	_, err = s.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	s := newTestService(t)
	s.now = func() time.Time { return time.Now().Add(-10 * time.Hour) }

	token, err := s.GenerateToken(&entity.User{ID: 1, Role: entity.RoleStudent})
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_TicketAndTokenAreNotInterchangeable(t *testing.T) {
	s := newTestService(t)

	ticket, err := s.GenerateWSTicket(7, entity.RoleStudent)
	require.NoError(t, err)
	token, err := s.GenerateToken(&entity.User{ID: 7, Role: entity.RoleStudent})
	require.NoError(t, err)

	claims, err := s.ParseWSTicket(ticket)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)

	_, err = s.ParseToken(ticket)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = s.ParseWSTicket(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService("", 0, 0)
	assert.Error(t, err)
}
