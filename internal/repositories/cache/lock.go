package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotHeld is returned when a release finds the lock already expired or
// taken over by another holder.
var ErrLockNotHeld = errors.New("lock was not held or already expired")

// releaseScript deletes the key only when it still carries the holder's token,
// so an expired lock reacquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a held mutual-exclusion lock.
type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// Release frees the lock. Safe to call on every exit path; returns
// ErrLockNotHeld when the TTL already expired.
func (l *Lock) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if deleted == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Locker acquires short-lived exclusive locks on redis keys.
type Locker struct {
	client *redis.Client
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// Acquire attempts to take the lock without waiting or retrying. A nil Lock
// with a nil error means another holder has it.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	return &Lock{client: l.client, key: key, token: token}, nil
}
