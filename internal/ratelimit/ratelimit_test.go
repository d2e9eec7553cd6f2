package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/warehouse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLimiter_DisabledWithoutRedis(t *testing.T) {
	l := NewLimiter(config.Config{RateLimit: config.RateLimitConfig{RPS: 10, Burst: 20}}, nil)
	assert.False(t, l.Enabled())

	res, err := l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestTokenBucket_Validation(t *testing.T) {
	var nilBucket *TokenBucket
	_, err := nilBucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.Nil(t, NewTokenBucket(nil))
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 4*time.Second, bucketTTL(10, 20))
	assert.Equal(t, time.Second, bucketTTL(1000, 1))
}

func TestScriptValueConversion(t *testing.T) {
	assert.Equal(t, int64(1), toInt(int64(1)))
	assert.Equal(t, int64(0), toInt(nil))
	assert.Equal(t, int64(7), toInt("7"))
	assert.InDelta(t, 0.25, toFloat("0.25"), 1e-9)
	assert.InDelta(t, 3.0, toFloat(int64(3)), 1e-9)
	assert.Zero(t, toFloat("nope"))
}

func TestNewNumberLocker_NoopWithoutRedis(t *testing.T) {
	locker := NewNumberLocker(nil, zap.NewNop())
	unlock, err := locker.Lock(context.Background(), "warehouse:invoice:number:EXPORT:20260301")
	require.NoError(t, err)
	assert.NotPanics(t, unlock)
}
