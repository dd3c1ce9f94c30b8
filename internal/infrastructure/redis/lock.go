package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/nourhamdy/ordermgmt/internal/service"
	"github.com/redis/go-redis/v9"
)

// Release and extension check the owner token first, so a slow holder
// that already lost the key to expiry cannot delete someone else's lock.
var (
	releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

	extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`)
)

// DistributedLock is a single-holder advisory lock backed by a Redis
// key with a TTL.
type DistributedLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
	held   bool
}

func NewDistributedLock(client *redis.Client, key string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		client: client,
		key:    "lock:" + key,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock. It returns false without error
// when another holder has it.
func (l *DistributedLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domainErrors.ErrLockAcquisitionFailed, err)
	}
	l.held = ok
	return ok, nil
}

// Extend pushes the expiry out by additionalTTL while the lock is held.
func (l *DistributedLock) Extend(ctx context.Context, additionalTTL time.Duration) error {
	if !l.held {
		return domainErrors.ErrLockNotHeld
	}

	res, err := extendScript.Run(ctx, l.client, []string{l.key}, l.token, additionalTTL.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("extend lock: %w", err)
	}
	if n, ok := res.(int64); !ok || n == 0 {
		return domainErrors.ErrLockNotHeld
	}
	return nil
}

// Release drops the lock. Releasing a lock that was never acquired is
// a no-op.
func (l *DistributedLock) Release(ctx context.Context) error {
	if !l.held {
		return nil
	}

	res, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Result()
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if n, ok := res.(int64); !ok || n == 0 {
		return domainErrors.ErrLockNotHeld
	}
	l.held = false
	return nil
}

// LockFactory creates distributed locks with a fixed TTL.
type LockFactory struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLockFactory(client *redis.Client, ttl time.Duration) *LockFactory {
	return &LockFactory{client: client, ttl: ttl}
}

// NewLock creates a lock for the given key.
func (f *LockFactory) NewLock(key string) service.Lock {
	return NewDistributedLock(f.client, key, f.ttl)
}
