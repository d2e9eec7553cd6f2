package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	invoicedomain "github.com/smallbiznis/warehouse/internal/invoice/domain"
	"go.uber.org/zap"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const (
	numberLockTTL     = 5 * time.Second
	numberLockWait    = 3 * time.Second
	numberLockBackoff = 50 * time.Millisecond
)

var ErrLockTimeout = errors.New("lock_timeout")

type redisLockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type Locker struct {
	client redisLockClient
	script *redis.Script
	log    *zap.Logger
}

// NewNumberLocker serialises invoice number allocation across instances.
// Without redis it returns a locker that never blocks.
func NewNumberLocker(client *redis.Client, log *zap.Logger) invoicedomain.NumberLocker {
	if client == nil {
		return noopLocker{}
	}
	return newLocker(client, log)
}

func newLocker(client redisLockClient, log *zap.Logger) *Locker {
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		log:    log.Named("ratelimit.lock"),
	}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *Locker) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

// Lock polls until key is acquired or numberLockWait elapses. Running out
// of time, including a caller deadline, is always ErrLockTimeout.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, numberLockWait)
	defer cancel()

	for {
		token, ok, err := l.TryLock(ctx, key, numberLockTTL)
		if err != nil {
			// The wait deadline can expire inside SetNX itself.
			if ctx.Err() != nil {
				return nil, ErrLockTimeout
			}
			return nil, err
		}
		if ok {
			return func() {
				if err := l.Release(context.Background(), key, token); err != nil {
					l.log.Warn("lock release failed", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(numberLockBackoff):
		}
	}
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }
