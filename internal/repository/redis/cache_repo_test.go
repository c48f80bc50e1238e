package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/school-quiz-api/internal/pkg/errors"
)

func newTestRepo(t *testing.T) (*CacheRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo, err := NewCacheRepo(client)
	require.NoError(t, err)
	return repo, mr
}

func TestCacheRepo_JSONRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)

	type payload struct {
		Rooms []string `json:"rooms"`
	}
	require.NoError(t, repo.SetJSON("rooms:student", payload{Rooms: []string{"a", "b"}}, time.Minute))

	var got payload
	require.NoError(t, repo.GetJSON("rooms:student", &got))
	assert.Equal(t, []string{"a", "b"}, got.Rooms)
}

func TestCacheRepo_MissingKeyIsNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.GetInt("absent")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var dest map[string]interface{}
	assert.ErrorIs(t, repo.GetJSON("absent", &dest), apperrors.ErrNotFound)
}

func TestCacheRepo_DeleteMany(t *testing.T) {
	repo, mr := newTestRepo(t)

	require.NoError(t, repo.SetJSON("a", 1, 0))
	require.NoError(t, repo.SetJSON("b", 2, 0))

	require.NoError(t, repo.Delete("a", "b", "missing"))
	require.NoError(t, repo.Delete())

	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
}

func TestCacheRepo_Expiration(t *testing.T) {
	repo, mr := newTestRepo(t)

	require.NoError(t, repo.SetJSON("ttl", "v", time.Second))
	mr.FastForward(2 * time.Second)

	var dest string
	assert.ErrorIs(t, repo.GetJSON("ttl", &dest), apperrors.ErrNotFound)
}

func TestCacheRepo_Counter(t *testing.T) {
	repo, mr := newTestRepo(t)

	n, err := repo.Incr("rooms:gen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.Incr("rooms:gen")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := repo.GetInt("rooms:gen")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
	assert.Zero(t, mr.TTL("rooms:gen"))

	require.NoError(t, repo.SetJSON("text", "abc", 0))
	_, err = repo.GetInt("text")
	assert.Error(t, err)
}

func TestNewCacheRepo_NilClient(t *testing.T) {
	_, err := NewCacheRepo(nil)
	assert.Error(t, err)
}
