package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
	"github.com/yourusername/school-quiz-api/pkg/auth"
)

func newAuthService(t *testing.T) (*AuthService, *MockUserRepository) {
	t.Helper()
	jwtService, err := auth.NewJWTService("test-secret", 60, 30)
	require.NoError(t, err)
	repo := new(MockUserRepository)
	return NewAuthService(repo, jwtService), repo
}

func hashedUser(t *testing.T, id uint, username, password, role string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &entity.User{ID: id, Username: username, Password: string(hash), Role: role}
}

func TestAuthService_RegisterUser(t *testing.T) {
	svc, repo := newAuthService(t)
	repo.On("Create", mock.AnythingOfType("*entity.User")).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.User).ID = 7
	}).Return(nil).Once()

	user, err := svc.RegisterUser(RegisterInput{Username: "  anna ", Password: "pass1", FullName: "Анна"})

	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	assert.Equal(t, "anna", user.Username)
	assert.Equal(t, entity.RoleStudent, user.Role)
	repo.AssertExpectations(t)
}

func TestAuthService_RegisterUserValidation(t *testing.T) {
	svc, repo := newAuthService(t)

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"admin role", RegisterInput{Username: "boss", Password: "pass1", Role: entity.RoleAdmin}},
		{"unknown role", RegisterInput{Username: "x", Password: "pass1", Role: "principal"}},
		{"empty username", RegisterInput{Username: " ", Password: "pass1"}},
		{"short password", RegisterInput{Username: "x", Password: "123"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RegisterUser(tc.input)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
	repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_RegisterDuplicateUsername(t *testing.T) {
	svc, repo := newAuthService(t)
	repo.On("Create", mock.Anything).Return(apperrors.ErrConflict).Once()

	_, err := svc.RegisterUser(RegisterInput{Username: "anna", Password: "pass1", Role: entity.RoleTeacher})

	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestAuthService_CreateUserAllowsAdmin(t *testing.T) {
	svc, repo := newAuthService(t)
	repo.On("Create", mock.Anything).Return(nil).Once()

	user, err := svc.CreateUser(RegisterInput{Username: "root", Password: "secret", Role: entity.RoleAdmin})

	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, user.Role)
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	svc, repo := newAuthService(t)
	user := hashedUser(t, 3, "anna", "pass1", entity.RoleStudent)
	repo.On("GetByUsername", "anna").Return(user, nil)
	repo.On("GetByID", uint(3)).Return(user, nil)

	res, err := svc.LoginUser("anna", "pass1")
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	assert.Equal(t, user, res.User)

	authed, err := svc.Authenticate(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(3), authed.ID)

	_, err = svc.LoginUser("anna", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_LoginUnknownUser(t *testing.T) {
	svc, repo := newAuthService(t)
	repo.On("GetByUsername", "ghost").Return(nil, apperrors.ErrNotFound)
	repo.On("GetByUsername", "anna").Return(nil, errors.New("db down"))

	_, err := svc.LoginUser("ghost", "pass1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.LoginUser("anna", "pass1")
	assert.ErrorIs(t, err, apperrors.ErrTransient)
}

func TestAuthService_AuthenticateRejectsBadTokens(t *testing.T) {
	svc, repo := newAuthService(t)
	user := &entity.User{ID: 5, Role: entity.RoleTeacher}
	repo.On("GetByID", uint(5)).Return(nil, apperrors.ErrNotFound)

	_, err := svc.Authenticate("not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	ticket, err := svc.GenerateWsTicket(user)
	require.NoError(t, err)
	_, err = svc.Authenticate(ticket)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "ws ticket must not work as access token")

	res, err := svc.jwtService.GenerateToken(user)
	require.NoError(t, err)
	_, err = svc.Authenticate(res)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "deleted user")
}

func TestAuthService_WsTicket(t *testing.T) {
	svc, _ := newAuthService(t)
	user := &entity.User{ID: 9, Role: entity.RoleStudent}

	ticket, err := svc.GenerateWsTicket(user)
	require.NoError(t, err)

	userID, err := svc.ValidateWsTicket(ticket)
	require.NoError(t, err)
	assert.Equal(t, uint(9), userID)

	token, err := svc.jwtService.GenerateToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateWsTicket(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUserService_ListByRole(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewUserService(repo)
	repo.On("ListByRole", entity.RoleStudent).Return([]entity.User{{ID: 1}, {ID: 2}}, nil)

	users, err := svc.ListByRole(teacher, entity.RoleStudent)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = svc.ListByRole(student, entity.RoleStudent)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.ListByRole(admin, "janitor")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
