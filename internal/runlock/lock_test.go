package runlock

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/prerender/internal/config"
	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
)

func TestFileLock_Exclusive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public")
	ctx := t.Context()

	first := NewFileLock(dir, time.Hour)
	require.NoError(t, first.Acquire(ctx))
	assert.FileExists(t, first.Path())

	second := NewFileLock(dir, time.Hour)
	err := second.Acquire(ctx)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrLocked))
	assert.Equal(t, errors.CategoryLock, errors.GetCategory(err))
	assert.ErrorIs(t, second.Release(ctx), ErrNotHeld)

	require.NoError(t, first.Release(ctx))
	assert.NoFileExists(t, first.Path())
	require.NoError(t, second.Acquire(ctx))
	require.NoError(t, second.Release(ctx))
}

func TestFileLock_TakesOverStaleLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("dead 1\n"), 0o600))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	lock := NewFileLock(dir, time.Hour)
	require.NoError(t, lock.Acquire(t.Context()))
	require.NoError(t, lock.Release(t.Context()))
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisLock_Exclusive(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := t.Context()
	newClient := func() *redis.Client { return redis.NewClient(&redis.Options{Addr: mr.Addr()}) }

	first := NewRedisLock(newClient(), "prerender:run", time.Minute)
	require.NoError(t, first.Acquire(ctx))
	assert.True(t, mr.Exists("prerender:run"))

	second := NewRedisLock(newClient(), "prerender:run", time.Minute)
	err := second.Acquire(ctx)
	require.ErrorIs(t, err, ErrLocked)
	assert.Equal(t, errors.CategoryLock, errors.GetCategory(err))

	require.NoError(t, first.Release(ctx))
	assert.False(t, mr.Exists("prerender:run"))
}

func TestRedisLock_ExpiresAfterTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := t.Context()

	lock := NewRedisLock(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "k", time.Minute)
	require.NoError(t, lock.Acquire(ctx))
	mr.FastForward(2 * time.Minute)

	other := NewRedisLock(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "k", time.Minute)
	require.NoError(t, other.Acquire(ctx))
	assert.ErrorIs(t, lock.Release(ctx), ErrNotHeld)
}

func TestRedisLock_Unreachable(t *testing.T) {
	client := newRedis(t)
	lock := NewRedisLock(client, "k", time.Minute)
	require.NoError(t, client.Close())
	err := lock.Acquire(t.Context())
	require.Error(t, err)
	assert.Equal(t, errors.CategoryLock, errors.GetCategory(err))
}

func TestNew_SelectsBackend(t *testing.T) {
	dir := t.TempDir()
	lock, err := New(config.LockConfig{}, dir)
	require.NoError(t, err)
	assert.IsType(t, &FileLock{}, lock)

	mr := miniredis.RunT(t)
	lock, err = New(config.LockConfig{RedisURL: "redis://" + mr.Addr(), Key: "k"}, dir)
	require.NoError(t, err)
	assert.IsType(t, &RedisLock{}, lock)

	_, err = New(config.LockConfig{RedisURL: "://bad"}, dir)
	require.Error(t, err)
	assert.Equal(t, errors.CategoryConfig, errors.GetCategory(err))
}
