package runlock

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
	"git.home.luguber.info/inful/prerender/internal/logfields"
)

// FileLock is an O_EXCL lock file. A lock file older than the TTL is treated as
// abandoned by a crashed run and taken over.
type FileLock struct {
	path  string
	token string
	ttl   time.Duration
}

// NewFileLock creates a lock at dir/.prerender.lock.
func NewFileLock(dir string, ttl time.Duration) *FileLock {
	return &FileLock{
		path:  filepath.Join(dir, FileName),
		token: uuid.NewString(),
		ttl:   defaultTTL(ttl),
	}
}

// Path returns the lock file location.
func (l *FileLock) Path() string { return l.path }

func (l *FileLock) Acquire(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create lock directory").Fatal().Build()
	}
	err := l.create()
	if err == nil {
		return nil
	}
	if !stderrors.Is(err, os.ErrExist) {
		return errors.WrapError(err, errors.CategoryLock, "create lock file").Fatal().Build()
	}

	info, statErr := os.Stat(l.path)
	if statErr != nil || time.Since(info.ModTime()) < l.ttl {
		return lockedError(l.holder())
	}
	slog.Warn("Removing stale run lock", logfields.Path(l.path), slog.Time("modified", info.ModTime()))
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return lockedError(l.holder())
	}
	if err := l.create(); err != nil {
		return lockedError(l.holder())
	}
	return nil
}

func (l *FileLock) create() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	_, werr := fmt.Fprintf(f, "%s %d\n", l.token, os.Getpid())
	cerr := f.Close()
	if werr != nil {
		_ = os.Remove(l.path)
		return werr
	}
	if cerr != nil {
		_ = os.Remove(l.path)
	}
	return cerr
}

func (l *FileLock) holder() string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Release removes the lock file when it still carries this instance's token.
func (l *FileLock) Release(_ context.Context) error {
	fields := strings.Fields(l.holder())
	if len(fields) == 0 || fields[0] != l.token {
		return ErrNotHeld
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
