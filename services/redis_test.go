package services

import (
	"context"
	"testing"
	"time"

	"github.com/inkdesk/commission-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenBlacklist_Expiry(t *testing.T) {
	blacklist := NewMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.Revoke(ctx, "live", time.Hour))
	require.NoError(t, blacklist.Revoke(ctx, "expired", -time.Second))

	revoked, err := blacklist.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = blacklist.IsRevoked(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	var out []string
	hit, err := cache.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.SetJSON(ctx, "k", []string{"a", "b"}, time.Minute))
	hit, err = cache.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, out)
	assert.Equal(t, 1, cache.Hits)

	require.NoError(t, cache.Delete(ctx, "k"))
	hit, err = cache.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, &config.Config{RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}
