package database

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/school-quiz-api/internal/config"
)

func TestNewUniversalRedisClient_Single(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewUniversalRedisClient(config.RedisConfig{Mode: "single", Addr: mr.Addr()})

	require.NoError(t, err)
	defer client.Close()
	assert.NotNil(t, client)
}

func TestNewUniversalRedisClient_ConfigErrors(t *testing.T) {
	_, err := NewUniversalRedisClient(config.RedisConfig{Mode: "single"})
	assert.Error(t, err, "Без адресов клиент не создается")

	_, err = NewUniversalRedisClient(config.RedisConfig{Mode: "sentinel", Addr: "localhost:1"})
	assert.Error(t, err, "Sentinel требует MasterName")

	_, err = NewUniversalRedisClient(config.RedisConfig{Mode: "weird", Addr: "localhost:1"})
	assert.Error(t, err)
}
