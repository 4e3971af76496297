package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestTryLockMutualExclusion(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	lockA := NewDistributedLock(client, "test:lock", "holder-a", 30*time.Second)
	lockB := NewDistributedLock(client, "test:lock", "holder-b", 30*time.Second)

	ok, err := lockA.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// 锁被 A 持有，B 拿不到
	ok, err = lockB.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lockA.Unlock(ctx))

	ok, err = lockB.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnlockOnlyByHolder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	lockA := NewDistributedLock(client, "test:lock", "holder-a", 30*time.Second)
	lockB := NewDistributedLock(client, "test:lock", "holder-b", 30*time.Second)

	ok, err := lockA.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// B 不是持有者，Unlock 不会删掉 A 的锁
	require.NoError(t, lockB.Unlock(ctx))

	ok, err = lockB.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLockRetryExhausted(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	lockA := NewDistributedLock(client, "test:lock", "holder-a", 30*time.Second)
	lockB := NewDistributedLock(client, "test:lock", "holder-b", 30*time.Second)

	ok, err := lockA.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	err = lockB.Lock(ctx, time.Millisecond, 3)
	assert.ErrorIs(t, err, ErrLockFailed)
}

func TestRedeemLockPerUser(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	// 同一用户互斥
	first := NewRedeemLock(client, 42, "RDM001")
	second := NewRedeemLock(client, 42, "RDM002")
	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// 不同用户互不影响
	other := NewRedeemLock(client, 43, "RDM003")
	ok, err = other.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
