// Package lockfile serializes installer runs that share an install directory.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Name is the lock file created inside the guarded directory.
const Name = ".y2b.lock"

// pollInterval is the delay between non-blocking lock attempts.
const pollInterval = 10 * time.Millisecond

// ErrTimeout is returned when the lock is still held by another process
// after the requested timeout.
var ErrTimeout = errors.New("timed out waiting for install lock")

// Lock is an advisory, exclusive, cross-process lock. The lock is not
// acquired until Lock is called.
type Lock struct {
	path string
	file *os.File
}

// New returns a lock guarding dir.
func New(dir string) *Lock {
	return &Lock{path: filepath.Join(dir, Name)}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Lock acquires the lock, retrying until timeout elapses. A non-positive
// timeout makes a single attempt.
func (l *Lock) Lock(timeout time.Duration) error {
	if l.file != nil {
		return fmt.Errorf("lock %s already held", l.path)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}

	if err := acquire(f, timeout); err != nil {
		_ = f.Close()
		return err
	}
	l.file = f
	return nil
}

// acquire polls tryLock on f until it succeeds or timeout elapses. Only
// contention is retried; any other failure is returned at once.
func acquire(f *os.File, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := tryLock(f)
		if err == nil {
			return nil
		}
		if !isContention(err) {
			return fmt.Errorf("locking %s: %w", f.Name(), err)
		}
		if !time.Now().Before(deadline) {
			return ErrTimeout
		}
		time.Sleep(pollInterval)
	}
}

// Unlock releases the lock. The lock file is left in place so a waiter that
// already opened it keeps contending on the same inode.
func (l *Lock) Unlock() error {
	if l.file == nil {
		return nil
	}
	err := unlock(l.file)
	if closeErr := l.file.Close(); err == nil {
		err = closeErr
	}
	l.file = nil
	return err
}
