package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryLockClient keeps keys in a map and runs the release script
// semantics in Go.
type memoryLockClient struct {
	redis.Scripter

	mu    sync.Mutex
	keys  map[string]string
	setNX int
}

func newMemoryLockClient() *memoryLockClient {
	return &memoryLockClient{keys: map[string]string{}}
}

func (c *memoryLockClient) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setNX++
	if err := ctx.Err(); err != nil {
		return redis.NewBoolResult(false, err)
	}
	if _, held := c.keys[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	c.keys[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (c *memoryLockClient) EvalSha(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[keys[0]] == args[0].(string) {
		delete(c.keys, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (c *memoryLockClient) value(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.keys[key]
	return v, ok
}

const testLockKey = "warehouse:invoice:number:EXPORT:20260301"

func TestLocker_AcquireAndRelease(t *testing.T) {
	client := newMemoryLockClient()
	locker := newLocker(client, zap.NewNop())

	unlock, err := locker.Lock(context.Background(), testLockKey)
	require.NoError(t, err)
	_, held := client.value(testLockKey)
	assert.True(t, held)

	unlock()
	_, held = client.value(testLockKey)
	assert.False(t, held)
}

func TestLocker_HeldLockTimesOut(t *testing.T) {
	client := newMemoryLockClient()
	client.keys[testLockKey] = "other-instance"
	locker := newLocker(client, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	unlock, err := locker.Lock(ctx, testLockKey)
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.Nil(t, unlock)
	assert.Greater(t, client.setNX, 1)

	owner, _ := client.value(testLockKey)
	assert.Equal(t, "other-instance", owner)
}

func TestLocker_DeadlineDuringSetNXIsTimeout(t *testing.T) {
	client := newMemoryLockClient()
	locker := newLocker(client, zap.NewNop())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := locker.Lock(ctx, testLockKey)
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestLocker_ReleaseOnlyDeletesOwnToken(t *testing.T) {
	client := newMemoryLockClient()
	locker := newLocker(client, zap.NewNop())

	unlock, err := locker.Lock(context.Background(), testLockKey)
	require.NoError(t, err)

	// The TTL expired and another instance took the key.
	client.mu.Lock()
	client.keys[testLockKey] = "other-instance"
	client.mu.Unlock()

	unlock()
	owner, held := client.value(testLockKey)
	assert.True(t, held)
	assert.Equal(t, "other-instance", owner)

	require.NoError(t, locker.Release(context.Background(), testLockKey, "stale-token"))
	_, held = client.value(testLockKey)
	assert.True(t, held)
}

func TestLocker_TryLockValidation(t *testing.T) {
	locker := newLocker(newMemoryLockClient(), zap.NewNop())

	_, _, err := locker.TryLock(context.Background(), "", time.Second)
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, _, err = locker.TryLock(context.Background(), testLockKey, 0)
	assert.Error(t, err)
}
