package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisSweepLock implements SweepLock with SET NX EX. The stored value is a
// per-process token so a replica never releases a lock it no longer holds.
type redisSweepLock struct {
	client *redis.Client
	key    string
	token  string
}

// NewRedisSweepLock builds a SweepLock over the shared Redis instance.
func NewRedisSweepLock(client *redis.Client, key string) SweepLock {
	return &redisSweepLock{
		client: client,
		key:    key,
		token:  uuid.NewString(),
	}
}

func (l *redisSweepLock) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, ttl).Result()
}

// Release deletes the lock only if this process still holds it.
func (l *redisSweepLock) Release(ctx context.Context) {
	const script = `
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        end
        return 0`
	_ = l.client.Eval(ctx, script, []string{l.key}, l.token).Err()
}
