// Package snapshot writes the periodic metrics file other tools read while
// the daemon runs. Writes are atomic so a reader never sees a torn file.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/msageha/ecosim/internal/model"
)

// Snapshot is the full metrics document written each flush interval.
type Snapshot struct {
	RunID      string                    `yaml:"run_id"`
	WrittenAt  time.Time                 `yaml:"written_at"`
	Tick       model.Tick                `yaml:"tick"`
	Entities   int                       `yaml:"entities"`
	Schedulers []model.SchedulerSnapshot `yaml:"schedulers"`
}

// Write marshals the snapshot and atomically replaces the file at path:
// write to a temp file in the same directory, fsync, then rename.
func Write(path string, snap Snapshot) error {
	content, err := yamlv3.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ecosim-tmp-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// Read loads a snapshot file.
func Read(path string) (Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := yamlv3.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}
