// Package lock provides the single-instance file lock for the daemon.
package lock

import (
	"fmt"
	"os"
	"syscall"
)

// FileLock is an advisory flock on a PID file. At most one daemon holds it
// per path; a second acquisition fails immediately instead of blocking.
type FileLock struct {
	path string
	file *os.File
}

// New creates an unacquired lock on path.
func New(path string) *FileLock {
	return &FileLock{path: path}
}

// TryLock acquires the lock without blocking and records the holder's PID
// in the lock file.
func (fl *FileLock) TryLock() error {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return fmt.Errorf("acquire lock (another instance may be running): %w", err)
	}

	if err := fl.writePID(f); err != nil {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		return err
	}

	fl.file = f
	return nil
}

func (fl *FileLock) writePID(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate lock file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("seek lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		return fmt.Errorf("write pid: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync lock file: %w", err)
	}
	return nil
}

// Unlock releases the lock and removes the PID file. Unlocking an
// unacquired lock is a no-op.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}

	if err := syscall.Flock(int(fl.file.Fd()), syscall.LOCK_UN); err != nil {
		fl.file.Close()
		return fmt.Errorf("release lock: %w", err)
	}
	if err := fl.file.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}

	os.Remove(fl.path)
	fl.file = nil
	return nil
}
