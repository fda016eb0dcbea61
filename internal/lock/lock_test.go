package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestTryLockWritesPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.lock")
	fl := New(path)
	if err := fl.TryLock(); err != nil {
		t.Fatal(err)
	}
	defer fl.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		t.Fatalf("lock file content %q is not a pid", raw)
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}
}

func TestSecondLockFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.lock")
	first := New(path)
	if err := first.TryLock(); err != nil {
		t.Fatal(err)
	}
	defer first.Unlock()

	second := New(path)
	if err := second.TryLock(); err == nil {
		second.Unlock()
		t.Fatal("second TryLock succeeded while first held")
	}
}

func TestUnlockRemovesFileAndAllowsReacquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.lock")
	fl := New(path)
	if err := fl.TryLock(); err != nil {
		t.Fatal(err)
	}
	if err := fl.Unlock(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("lock file not removed")
	}
	// Unlock again is a no-op.
	if err := fl.Unlock(); err != nil {
		t.Error(err)
	}

	if err := fl.TryLock(); err != nil {
		t.Fatal("reacquire after unlock failed:", err)
	}
	fl.Unlock()
}
