package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/school-quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
)

type stubAuthenticator struct {
	users map[string]*entity.User
	err   error
}

func (s stubAuthenticator) Authenticate(token string) (*entity.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if user, ok := s.users[token]; ok {
		return user, nil
	}
	return nil, apperrors.ErrUnauthorized
}

func newAuthRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewAuthMiddleware(auth)
	r := gin.New()
	r.GET("/me", m.RequireAuth(), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": c.GetUint(ContextUserID), "role": c.GetString(ContextRole), "username": user.Username})
	})
	r.GET("/staff", m.RequireAuth(), m.StaffOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doRequest(r http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r := newAuthRouter(stubAuthenticator{users: map[string]*entity.User{
		"student-token": {ID: 1, Username: "anna", Role: entity.RoleStudent},
	}})

	w := doRequest(r, "/me", "Bearer student-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"role":"student","username":"anna"}`, w.Body.String())

	w = doRequest(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_missing")

	w = doRequest(r, "/me", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_format")

	w = doRequest(r, "/me", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token_invalid")
}

func TestRequireAuth_TransientFailure(t *testing.T) {
	r := newAuthRouter(stubAuthenticator{err: apperrors.ErrTransient})

	w := doRequest(r, "/me", "Bearer any")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStaffOnly(t *testing.T) {
	r := newAuthRouter(stubAuthenticator{users: map[string]*entity.User{
		"student": {ID: 1, Role: entity.RoleStudent},
		"teacher": {ID: 2, Role: entity.RoleTeacher},
		"admin":   {ID: 3, Role: entity.RoleAdmin},
	}})

	assert.Equal(t, http.StatusForbidden, doRequest(r, "/staff", "Bearer student").Code)
	assert.Equal(t, http.StatusNoContent, doRequest(r, "/staff", "Bearer teacher").Code)
	assert.Equal(t, http.StatusNoContent, doRequest(r, "/staff", "Bearer admin").Code)
}

func TestExtractUintParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/rooms/:id", ExtractUintParam("id", "roomID"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UintParam(c, "roomID")})
	})

	w := doRequest(r, "/rooms/42", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42}`, w.Body.String())

	for _, bad := range []string{"/rooms/abc", "/rooms/-1", "/rooms/0"} {
		assert.Equal(t, http.StatusBadRequest, doRequest(r, bad, "").Code, bad)
	}
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	limiter := NewRateLimiter(client)
	r.POST("/login", limiter.Limit(RateLimitConfig{MaxRequests: 2, Window: time.Minute, KeyPrefix: "rl:test"}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		return w
	}

	require.Equal(t, http.StatusOK, post().Code)
	w := post()
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = post()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusOK, post().Code)
}

func TestRateLimiter_WithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", NewRateLimiter(nil).Limit(StrictAuthRateLimitConfig()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}
