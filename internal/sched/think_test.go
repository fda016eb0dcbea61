package sched

import (
	"testing"

	"github.com/msageha/ecosim/internal/model"
	"github.com/msageha/ecosim/internal/world"
)

// grassWorld builds a world whose grid is entirely grass.
func grassWorld(t *testing.T, w, h int) *world.World {
	t.Helper()
	g, err := world.NewGrid(w, h, make([]world.Terrain, w*h))
	if err != nil {
		t.Fatal(err)
	}
	return world.New(g)
}

func spawnAt(t *testing.T, w *world.World, species world.Species, x, y int) *world.Entity {
	t.Helper()
	e, err := w.Spawn(world.SpawnSpec{Species: species, Pos: model.TileCoord{X: x, Y: y}})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestThinkDrainsTierOrderWithinBudget(t *testing.T) {
	w := grassWorld(t, 8, 8)
	lazy := spawnAt(t, w, world.SpeciesHerbivore, 0, 0)
	normal := spawnAt(t, w, world.SpeciesHerbivore, 1, 0)
	urgent := spawnAt(t, w, world.SpeciesHerbivore, 2, 0)

	s := NewThinkScheduler(2, nil)
	s.Schedule(lazy.ID, model.ThinkIdleTimer, 1)
	s.Schedule(normal.ID, model.ThinkHungerThreshold, 1)
	s.Schedule(urgent.ID, model.ThinkPredatorNearby, 1)

	s.RunTick(w, 2)

	if urgent.Think == nil || urgent.Think.Reason != model.ThinkPredatorNearby {
		t.Error("urgent subject not marked")
	}
	if normal.Think == nil {
		t.Error("normal subject not marked")
	}
	if lazy.Think != nil {
		t.Error("lazy subject marked despite exhausted budget")
	}
	if !s.Pending(lazy.ID) {
		t.Error("lazy trigger should remain queued for the next tick")
	}

	s.RunTick(w, 3)
	if lazy.Think == nil {
		t.Error("lazy subject not marked on second drain")
	}
	if lazy.Think.FlaggedAt != 3 {
		t.Errorf("FlaggedAt = %d, want 3", lazy.Think.FlaggedAt)
	}
}

func TestThinkDeduplicatesPerSubject(t *testing.T) {
	w := grassWorld(t, 4, 4)
	e := spawnAt(t, w, world.SpeciesHerbivore, 0, 0)

	s := NewThinkScheduler(10, nil)
	if !s.Schedule(e.ID, model.ThinkIdleTimer, 1) {
		t.Fatal("first schedule rejected")
	}
	// A higher-tier reason does not displace the pending lazy trigger.
	if s.Schedule(e.ID, model.ThinkFearSpike, 1) {
		t.Fatal("duplicate schedule accepted")
	}

	s.RunTick(w, 2)
	if e.Think.Reason != model.ThinkIdleTimer {
		t.Errorf("marker reason = %q, want the first-queued reason", e.Think.Reason)
	}

	snap := s.Snapshot(2)
	if snap.Stats.Enqueued != 1 || snap.Stats.Deduped != 1 || snap.Stats.Completed != 1 {
		t.Errorf("stats = %+v", snap.Stats)
	}
}

func TestThinkOrphanedSubjectDroppedSilently(t *testing.T) {
	w := grassWorld(t, 4, 4)
	e := spawnAt(t, w, world.SpeciesHerbivore, 0, 0)

	s := NewThinkScheduler(10, nil)
	s.Schedule(e.ID, model.ThinkHungerThreshold, 1)
	w.Despawn(e.ID)

	s.RunTick(w, 2)

	snap := s.Snapshot(2)
	if snap.Stats.Orphaned != 1 {
		t.Errorf("orphaned = %d, want 1", snap.Stats.Orphaned)
	}
	if snap.Stats.Completed != 0 || snap.Stats.Failed != 0 {
		t.Errorf("orphan counted as completion or failure: %+v", snap.Stats)
	}
}

func TestThinkSweepRemovesDeadSubjects(t *testing.T) {
	w := grassWorld(t, 4, 4)
	dead := spawnAt(t, w, world.SpeciesHerbivore, 0, 0)
	live := spawnAt(t, w, world.SpeciesHerbivore, 1, 0)

	s := NewThinkScheduler(10, nil)
	s.Schedule(dead.ID, model.ThinkIdleTimer, 1)
	s.Schedule(live.ID, model.ThinkIdleTimer, 1)
	w.Despawn(dead.ID)

	if removed := s.Sweep(w); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if !s.Pending(live.ID) {
		t.Error("live trigger swept")
	}
}
