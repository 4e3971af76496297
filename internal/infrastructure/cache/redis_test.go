package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	c := NewRankingCache(client, 30*time.Second)

	// 冷启动未命中
	_, ok := c.Get(ctx)
	assert.False(t, ok)

	payload := []byte(`[{"account_id":1,"points":100}]`)
	c.Set(ctx, payload)

	data, ok := c.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, payload, data)

	// TTL 到期后过期
	mr.FastForward(31 * time.Second)
	_, ok = c.Get(ctx)
	assert.False(t, ok)

	c.Set(ctx, payload)
	c.Invalidate(ctx)
	_, ok = c.Get(ctx)
	assert.False(t, ok)
}

func TestRankingCacheMissOnClosedRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRankingCache(client, 30*time.Second)

	mr.Close()

	// Redis 不可用时按未命中处理，不阻断读路径
	_, ok := c.Get(context.Background())
	assert.False(t, ok)
}
