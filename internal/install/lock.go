package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrInstallInProgress is returned under the fail-fast lock policy when
// another process holds the install lock for the same version.
var ErrInstallInProgress = errors.New("install already in progress")

// LockHeldError carries the lock path and owner behind ErrInstallInProgress.
type LockHeldError struct {
	Path string
	PID  int
}

func (e *LockHeldError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("%v: %s is held by pid %d", ErrInstallInProgress, e.Path, e.PID)
	}
	return fmt.Sprintf("%v: %s is locked", ErrInstallInProgress, e.Path)
}

func (e *LockHeldError) Unwrap() error { return ErrInstallInProgress }

// acquireInstallLock takes an exclusive OS lock on lockPath. With wait it
// polls until the lock frees up or ctx ends; otherwise it fails immediately.
// The lock dies with the process holding it, so a file left behind by a
// crashed install never blocks the next one. The holder's pid is written into
// the file for error messages only.
func acquireInstallLock(ctx context.Context, lockPath string, wait bool, poll time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare lock directory: %w", err)
	}
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open lock: %w", err)
		}
		locked, err := tryLockFile(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("acquire lock %s: %w", lockPath, err)
		}
		if locked {
			_ = f.Truncate(0)
			_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
			var once sync.Once
			return func() {
				once.Do(func() {
					_ = f.Truncate(0)
					_ = unlockFile(f)
					_ = f.Close()
				})
			}, nil
		}
		_ = f.Close()

		if !wait {
			return nil, &LockHeldError{Path: lockPath, PID: lockOwner(lockPath)}
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func lockOwner(lockPath string) int {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
