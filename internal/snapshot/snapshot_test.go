package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/msageha/ecosim/internal/model"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.yaml")
	snap := Snapshot{
		RunID:     "test-run",
		WrittenAt: time.Now().UTC().Truncate(time.Second),
		Tick:      150,
		Entities:  42,
		Schedulers: []model.SchedulerSnapshot{
			{Name: "think", Stats: model.Stats{Enqueued: 10, Completed: 9, Orphaned: 1}, Budget: 50, AtTick: 150},
		},
	}
	if err := Write(path, snap); err != nil {
		t.Fatal(err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.RunID != snap.RunID || got.Tick != snap.Tick || got.Entities != snap.Entities {
		t.Errorf("got %+v", got)
	}
	if len(got.Schedulers) != 1 || got.Schedulers[0].Stats.Orphaned != 1 {
		t.Errorf("schedulers = %+v", got.Schedulers)
	}
}

func TestWriteReplacesExistingAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.yaml")
	if err := Write(path, Snapshot{RunID: "old", Tick: 1}); err != nil {
		t.Fatal(err)
	}
	if err := Write(path, Snapshot{RunID: "new", Tick: 2}); err != nil {
		t.Fatal(err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.RunID != "new" || got.Tick != 2 {
		t.Errorf("got %+v, want the replacement", got)
	}

	// No temp droppings left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the snapshot", len(entries))
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
