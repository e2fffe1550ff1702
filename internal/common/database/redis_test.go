package database

import (
	"context"
	"testing"

	"business-research/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr(), PoolSize: 3, MinIdleConns: 1})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 3, client.Client.Options().PoolSize)
	assert.Equal(t, 1, client.Client.Options().MinIdleConns)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewRedis_DefaultsAndErrors(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)

	client, err := NewRedis(config.RedisConfig{Address: "127.0.0.1:1"})
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, 10, client.Client.Options().PoolSize)
	assert.Error(t, client.Ping(context.Background()))
}
