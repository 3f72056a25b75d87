package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// OutputLock is an advisory exclusive lock held beside a report output
// file, so two long-running watchers never race on the same path.
type OutputLock struct {
	path string
	file *os.File
}

// LockOutput takes a non-blocking flock on output + ".lock" and records the
// holder's pid in it.
func LockOutput(output string) (*OutputLock, error) {
	path := output + ".lock"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("output is locked by another watcher: %w", err)
	}

	l := &OutputLock{path: path, file: f}
	if err := f.Truncate(0); err != nil {
		l.Release()
		return nil, fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		l.Release()
		return nil, fmt.Errorf("write pid to lock file: %w", err)
	}
	return l, nil
}

// Release drops the lock and removes the lock file. Safe to call twice.
func (l *OutputLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close()
		return fmt.Errorf("release lock: %w", err)
	}
	os.Remove(l.path)
	if err := f.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}
	return nil
}
