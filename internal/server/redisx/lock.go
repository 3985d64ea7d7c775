package redisx

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another owner holds the lock.
var ErrLockHeld = errors.New("lock held")

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out SET NX locks with a TTL.
type Locker struct {
	rdb redis.Scripter
	set func(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
}

func NewLocker(rdb redis.UniversalClient) *Locker {
	return &Locker{
		rdb: rdb,
		set: func(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
			return rdb.SetNX(ctx, key, token, ttl).Result()
		},
	}
}

// Acquire takes key for ttl. The returned release func is safe to call
// after the lock expired and is taken by someone else.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context), error) {
	token := uuid.NewString()

	ok, err := l.set(ctx, key, token, ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return func(ctx context.Context) {
		_ = releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
	}, nil
}
