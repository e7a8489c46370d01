package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReconcilerLockKey guards scoring runs across processes
const ReconcilerLockKey = "cfb-picks:reconciler:lock"

// ErrLockHeld is returned by Acquire when another holder owns the lock
var ErrLockHeld = errors.New("lock held by another process")

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRunLock is a best-effort mutual exclusion lock with a TTL so a
// crashed holder cannot block other processes forever
type RedisRunLock struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewRedisRunLock(client redis.Cmdable, key string, ttl time.Duration) *RedisRunLock {
	if key == "" {
		key = ReconcilerLockKey
	}
	return &RedisRunLock{client: client, key: key, ttl: ttl}
}

// Acquire takes the lock and returns a release func. It returns ErrLockHeld
// when someone else holds it.
func (l *RedisRunLock) Acquire(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release lock %s: %w", l.key, err)
		}
		return nil
	}
	return release, nil
}
