package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/warehouse/internal/config"
)

const keyClientPrefix = "warehouse:ratelimit:%s"

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
	Enabled() bool
}

type bucketLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

type noopLimiter struct{}

func (noopLimiter) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true}, nil
}

func (noopLimiter) Enabled() bool { return false }

// NewLimiter returns a redis token bucket limiter, or one that allows
// everything when redis or the limits are not configured.
func NewLimiter(cfg config.Config, client *redis.Client) Limiter {
	if client == nil || cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst <= 0 {
		return noopLimiter{}
	}
	return &bucketLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.RateLimit.RPS,
		burst:  cfg.RateLimit.Burst,
	}
}

func (l *bucketLimiter) Allow(ctx context.Context, key string) (Result, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Result{}, ErrEmptyKey
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyClientPrefix, key), l.rate, l.burst)
}

func (l *bucketLimiter) Enabled() bool { return true }
