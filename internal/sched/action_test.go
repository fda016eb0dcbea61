package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/ecosim/internal/model"
	"github.com/msageha/ecosim/internal/world"
)

// wateredWorld builds a grass world with a single water tile.
func wateredWorld(t *testing.T, w, h int, water model.TileCoord) *world.World {
	t.Helper()
	cells := make([]world.Terrain, w*h)
	cells[water.Y*w+water.X] = world.TerrainWater
	g, err := world.NewGrid(w, h, cells)
	require.NoError(t, err)
	return world.New(g)
}

func TestActionRestSpansDuration(t *testing.T) {
	w := grassWorld(t, 4, 4)
	tired := world.NewGauge(20, 100)
	e, err := w.Spawn(world.SpawnSpec{
		Species: world.SpeciesHerbivore,
		Pos:     model.TileCoord{X: 1, Y: 1},
		Energy:  &tired,
	})
	require.NoError(t, err)

	s := NewActionScheduler(nil, nil)
	_, ok := s.Schedule(e.ID, model.ActionSpec{Kind: model.ActionRest, Duration: 2}, 0, 1.0, 1)
	require.True(t, ok)

	// Tick 1: dispatched, first step runs, action stays active.
	s.RunTick(w, 1)
	assert.True(t, s.HasActive(e.ID))
	assert.Equal(t, string(model.ActionRest), e.CurrentAction)
	assert.Equal(t, 35.0, e.Energy.Value)

	// Tick 2: second step completes the action.
	s.RunTick(w, 2)
	assert.False(t, s.HasActive(e.ID))
	assert.Empty(t, e.CurrentAction)
	assert.Equal(t, 50.0, e.Energy.Value)

	recent := s.RecentCompletions(0)
	require.Len(t, recent, 1)
	assert.Equal(t, model.Tick(2), recent[0].Tick)
	assert.True(t, recent[0].Success)

	snap := s.Snapshot(2)
	assert.Equal(t, uint64(1), snap.Stats.Completed)
}

func TestActionRestEndsEarlyWhenEnergyFull(t *testing.T) {
	w := grassWorld(t, 4, 4)
	nearlyRested := world.NewGauge(95, 100)
	e, err := w.Spawn(world.SpawnSpec{
		Species: world.SpeciesHerbivore,
		Pos:     model.TileCoord{X: 0, Y: 0},
		Energy:  &nearlyRested,
	})
	require.NoError(t, err)

	s := NewActionScheduler(nil, nil)
	s.Schedule(e.ID, model.ActionSpec{Kind: model.ActionRest, Duration: 10}, 0, 1.0, 1)
	s.RunTick(w, 1)

	assert.False(t, s.HasActive(e.ID), "full gauge should finish the rest immediately")
	assert.True(t, e.Energy.IsFull())
}

func TestActionOnePerSubjectPerTick(t *testing.T) {
	w := grassWorld(t, 8, 8)
	e := spawnAt(t, w, world.SpeciesHerbivore, 0, 0)
	tired := world.NewGauge(10, 100)
	e.Energy = tired

	s := NewActionScheduler(nil, nil)
	s.Schedule(e.ID, model.ActionSpec{Kind: model.ActionRest, Duration: 5}, 0, 1.0, 1)
	s.RunTick(w, 1)
	require.True(t, s.HasActive(e.ID))

	// While resting, a new request for the same subject is rejected outright.
	_, ok := s.Schedule(e.ID, model.ActionSpec{Kind: model.ActionWander, Target: model.TileCoord{X: 3, Y: 0}}, 5, 1.0, 2)
	assert.False(t, ok)

	s.RunTick(w, 2)
	assert.Equal(t, string(model.ActionRest), e.CurrentAction, "continuation must not be preempted")
	assert.Equal(t, model.TileCoord{X: 0, Y: 0}, e.Pos)
}

func TestActionValidationFailureAtDispatch(t *testing.T) {
	w := grassWorld(t, 8, 8) // no water anywhere
	e := spawnAt(t, w, world.SpeciesHerbivore, 0, 0)

	s := NewActionScheduler(nil, nil)
	s.Schedule(e.ID, model.ActionSpec{Kind: model.ActionDrink, Target: model.TileCoord{X: 5, Y: 5}}, 0, 1.0, 1)
	s.RunTick(w, 1)

	snap := s.Snapshot(1)
	assert.Equal(t, uint64(1), snap.Stats.Failed)
	assert.Equal(t, uint64(0), snap.Stats.Completed)

	recent := s.RecentCompletions(0)
	require.Len(t, recent, 1)
	assert.False(t, recent[0].Success)
}

func TestActionDrinkAdjacentToWater(t *testing.T) {
	water := model.TileCoord{X: 2, Y: 2}
	w := wateredWorld(t, 6, 6, water)
	e, err := w.Spawn(world.SpawnSpec{Species: world.SpeciesHerbivore, Pos: model.TileCoord{X: 2, Y: 1}})
	require.NoError(t, err)
	e.Thirst = world.NewGauge(80, 100)

	s := NewActionScheduler(nil, nil)
	s.Schedule(e.ID, model.ActionSpec{Kind: model.ActionDrink, Target: water}, 0, 1.0, 1)
	s.RunTick(w, 1)

	assert.Equal(t, 50.0, e.Thirst.Value)
	assert.False(t, s.HasActive(e.ID), "drinking is instant")
}

func TestActionHuntCatchesAdjacentPrey(t *testing.T) {
	w := grassWorld(t, 8, 8)
	predator := spawnAt(t, w, world.SpeciesPredator, 3, 3)
	predator.Hunger = world.NewGauge(70, 100)
	prey := spawnAt(t, w, world.SpeciesHerbivore, 3, 4)

	s := NewActionScheduler(nil, nil)
	s.Schedule(predator.ID, model.ActionSpec{Kind: model.ActionHunt, Other: prey.ID}, 5, 1.0, 1)
	s.RunTick(w, 1)

	assert.False(t, w.Exists(prey.ID), "caught prey despawns")
	assert.Equal(t, 30.0, predator.Hunger.Value)
}

func TestActionHuntFailsWhenPreyDespawns(t *testing.T) {
	w := grassWorld(t, 8, 8)
	predator := spawnAt(t, w, world.SpeciesPredator, 0, 0)
	prey := spawnAt(t, w, world.SpeciesHerbivore, 6, 6)

	s := NewActionScheduler(nil, nil)
	s.Schedule(predator.ID, model.ActionSpec{Kind: model.ActionHunt, Other: prey.ID}, 5, 1.0, 1)
	s.RunTick(w, 1)
	require.True(t, s.HasActive(predator.ID), "distant prey means a chase")

	w.Despawn(prey.ID)
	s.RunTick(w, 2)

	assert.False(t, s.HasActive(predator.ID))
	snap := s.Snapshot(2)
	assert.Equal(t, uint64(1), snap.Stats.Failed)
}

func TestActionOrphanedSubjectDroppedSilently(t *testing.T) {
	w := grassWorld(t, 8, 8)
	e := spawnAt(t, w, world.SpeciesHerbivore, 0, 0)

	s := NewActionScheduler(nil, nil)
	s.Schedule(e.ID, model.ActionSpec{Kind: model.ActionWander, Target: model.TileCoord{X: 5, Y: 0}}, 0, 1.0, 1)
	w.Despawn(e.ID)

	s.RunTick(w, 1)

	snap := s.Snapshot(1)
	assert.Equal(t, uint64(1), snap.Stats.Orphaned)
	assert.Equal(t, uint64(0), snap.Stats.Failed, "orphans are not failures")
	assert.Empty(t, s.RecentCompletions(0))
}

func TestActionActiveOrphanRemovedDuringContinuation(t *testing.T) {
	w := grassWorld(t, 8, 8)
	e := spawnAt(t, w, world.SpeciesHerbivore, 0, 0)
	e.Energy = world.NewGauge(10, 100)

	s := NewActionScheduler(nil, nil)
	s.Schedule(e.ID, model.ActionSpec{Kind: model.ActionRest, Duration: 5}, 0, 1.0, 1)
	s.RunTick(w, 1)
	require.True(t, s.HasActive(e.ID))

	w.Despawn(e.ID)
	s.RunTick(w, 2)

	assert.False(t, s.HasActive(e.ID))
	snap := s.Snapshot(2)
	assert.Equal(t, uint64(1), snap.Stats.Orphaned)
}

func TestActionCancelAppliesAtNextTick(t *testing.T) {
	w := grassWorld(t, 8, 8)
	e := spawnAt(t, w, world.SpeciesHerbivore, 0, 0)
	e.Energy = world.NewGauge(10, 100)

	s := NewActionScheduler(nil, nil)
	s.Schedule(e.ID, model.ActionSpec{Kind: model.ActionRest, Duration: 5}, 0, 1.0, 1)
	s.RunTick(w, 1)
	require.True(t, s.HasActive(e.ID))

	s.Cancel(e.ID)
	// Cancellation is deferred; nothing changes until the tick boundary.
	assert.True(t, s.HasActive(e.ID))

	s.RunTick(w, 2)
	assert.False(t, s.HasActive(e.ID))
	assert.Empty(t, e.CurrentAction)
	assert.Empty(t, s.RecentCompletions(0), "a cancelled action is neither completed nor failed")
}

func TestActionWanderMovesToTarget(t *testing.T) {
	w := grassWorld(t, 8, 8)
	e := spawnAt(t, w, world.SpeciesHerbivore, 0, 0)

	s := NewActionScheduler(nil, nil)
	s.Schedule(e.ID, model.ActionSpec{Kind: model.ActionWander, Target: model.TileCoord{X: 2, Y: 0}}, 0, 1.0, 1)

	s.RunTick(w, 1)
	assert.Equal(t, model.TileCoord{X: 1, Y: 0}, e.Pos)
	require.True(t, s.HasActive(e.ID))

	s.RunTick(w, 2)
	assert.Equal(t, model.TileCoord{X: 2, Y: 0}, e.Pos)
	assert.False(t, s.HasActive(e.ID))
}

func TestActionRecentCompletionsPruned(t *testing.T) {
	w := grassWorld(t, 4, 4)
	e := spawnAt(t, w, world.SpeciesHerbivore, 2, 2)

	s := NewActionScheduler(nil, nil)
	s.Schedule(e.ID, model.ActionSpec{Kind: model.ActionGraze, Target: e.Pos, Duration: 1}, 0, 1.0, 1)
	s.RunTick(w, 1)
	require.Len(t, s.RecentCompletions(0), 1)

	// An empty tick far in the future sweeps the stale record.
	s.RunTick(w, 500)
	assert.Empty(t, s.RecentCompletions(0))
}

func TestActionSweepRemovesDeadWork(t *testing.T) {
	w := grassWorld(t, 8, 8)
	dead := spawnAt(t, w, world.SpeciesHerbivore, 0, 0)
	dead.Energy = world.NewGauge(10, 100)
	pendingDead := spawnAt(t, w, world.SpeciesHerbivore, 1, 0)

	s := NewActionScheduler(nil, nil)
	s.Schedule(dead.ID, model.ActionSpec{Kind: model.ActionRest, Duration: 5}, 0, 1.0, 1)
	s.RunTick(w, 1)
	require.True(t, s.HasActive(dead.ID))
	s.Schedule(pendingDead.ID, model.ActionSpec{Kind: model.ActionRest, Duration: 5}, 0, 1.0, 1)

	w.Despawn(dead.ID)
	w.Despawn(pendingDead.ID)

	removed := s.Sweep(w)
	assert.Equal(t, 2, removed)
	assert.False(t, s.HasActive(dead.ID))
	assert.False(t, s.HasPending(pendingDead.ID))
}

func TestActionMalformedSpecRejected(t *testing.T) {
	s := NewActionScheduler(nil, nil)
	_, ok := s.Schedule(1, model.ActionSpec{Kind: model.ActionRest}, 0, 1.0, 1)
	assert.False(t, ok, "rest without duration must be rejected")
	_, ok = s.Schedule(1, model.ActionSpec{Kind: "teleport"}, 0, 1.0, 1)
	assert.False(t, ok)
}
