package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	mini := miniredis.RunT(t)

	rdb, err := ConnectRedis(context.Background(), Options{Addr: mini.Addr(), DB: 2, PoolSize: 7})
	require.NoError(t, err)
	defer rdb.Close()
	assert.Equal(t, 7, rdb.Options().PoolSize)

	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	mini.Select(2)
	got, err := mini.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestConnectRedisUnreachable(t *testing.T) {
	addr := "127.0.0.1:1"
	_, err := ConnectRedis(context.Background(), Options{Addr: addr})
	assert.ErrorContains(t, err, addr)
}
