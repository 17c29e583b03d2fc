// Package runlock serialises pipeline runs that share an output directory.
package runlock

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
)

// FileName is the lock file created inside the output directory.
const FileName = ".prerender.lock"

var (
	// ErrLocked is returned when another run holds the lock.
	ErrLocked = stderrors.New("another run holds the lock")

	// ErrNotHeld is returned when releasing a lock this instance does not own.
	ErrNotHeld = stderrors.New("lock not held")
)

// Lock is a single-owner run lock.
type Lock interface {
	// Acquire takes the lock without waiting. A held lock yields a LockError
	// wrapping ErrLocked.
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// New returns a Redis lock when cfg names a Redis URL and a file lock in
// outputDir otherwise.
func New(cfg config.LockConfig, outputDir string) (Lock, error) {
	if cfg.RedisURL == "" {
		return NewFileLock(outputDir, cfg.TTL), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, errors.ConfigError("invalid redis url").
			WithCause(err).WithContext("env", config.EnvRedisURL).Build()
	}
	return NewRedisLock(redis.NewClient(opts), cfg.Key, cfg.TTL), nil
}

func lockedError(holder string) error {
	return errors.WrapError(ErrLocked, errors.CategoryLock, "run already in progress").
		Fatal().WithRetry(errors.RetryNever).WithContext("holder", holder).Build()
}

func defaultTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 30 * time.Minute
	}
	return ttl
}
