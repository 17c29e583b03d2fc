package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLock is a SETNX lock shared by every host pointing at the same Redis.
type RedisLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewRedisLock creates a lock on key. The TTL bounds how long a crashed run can
// hold it.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		key:    key,
		token:  uuid.NewString(),
		ttl:    defaultTTL(ttl),
	}
}

func (l *RedisLock) Acquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return errors.WrapError(err, errors.CategoryLock, "acquire redis lock").
			Fatal().WithContext("key", l.key).Build()
	}
	if !ok {
		holder, _ := l.client.Get(ctx, l.key).Result()
		return lockedError(holder)
	}
	return nil
}

// Release deletes the key when it still holds this instance's token and closes
// the client.
func (l *RedisLock) Release(ctx context.Context) error {
	defer func() { _ = l.client.Close() }()
	result, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release redis lock: %w", err)
	}
	if result == 0 {
		return ErrNotHeld
	}
	return nil
}
