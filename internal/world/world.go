package world

import (
	"fmt"

	"github.com/msageha/ecosim/internal/model"
)

// Species partitions entities into broad behavioral groups.
type Species string

const (
	SpeciesHerbivore Species = "herbivore"
	SpeciesPredator  Species = "predator"
)

// Entity is one simulated creature plus the result surface the schedulers
// write and downstream systems read-and-clear.
type Entity struct {
	ID      model.EntityID
	Species Species
	Pos     model.TileCoord

	Hunger Gauge // 0 = sated, grows over time
	Thirst Gauge // 0 = sated, grows over time
	Energy Gauge // max = rested, drains over time

	// Result surface. Nil / empty means no outstanding result.
	Think         *model.ThinkMarker
	PathPending   *model.PathRequested
	PathReady     *model.PathReady
	PathFailed    *model.PathFailed
	CurrentAction string
}

// TakeThink returns and clears the re-plan marker.
func (e *Entity) TakeThink() (model.ThinkMarker, bool) {
	if e.Think == nil {
		return model.ThinkMarker{}, false
	}
	m := *e.Think
	e.Think = nil
	return m, true
}

// TakePathReady returns and clears the computed route.
func (e *Entity) TakePathReady() (model.PathReady, bool) {
	if e.PathReady == nil {
		return model.PathReady{}, false
	}
	r := *e.PathReady
	e.PathReady = nil
	return r, true
}

// TakePathFailed returns and clears the route failure.
func (e *Entity) TakePathFailed() (model.PathFailed, bool) {
	if e.PathFailed == nil {
		return model.PathFailed{}, false
	}
	f := *e.PathFailed
	e.PathFailed = nil
	return f, true
}

// SpawnSpec describes a new entity. World.Spawn assembles the full aggregate
// in one call; partially constructed entities never enter the registry.
type SpawnSpec struct {
	Species Species
	Pos     model.TileCoord

	// Zero values mean the species defaults: sated hunger/thirst, full energy.
	Hunger *Gauge
	Thirst *Gauge
	Energy *Gauge
}

// World owns the grid and the entity registry.
type World struct {
	grid     *Grid
	entities map[model.EntityID]*Entity
	nextID   model.EntityID
}

// New creates a world over the given grid.
func New(grid *Grid) *World {
	return &World{
		grid:     grid,
		entities: make(map[model.EntityID]*Entity),
		nextID:   1,
	}
}

// Grid returns the terrain map.
func (w *World) Grid() *Grid {
	return w.grid
}

// Spawn validates the spec and registers a fully-initialized entity.
func (w *World) Spawn(spec SpawnSpec) (*Entity, error) {
	switch spec.Species {
	case SpeciesHerbivore, SpeciesPredator:
	default:
		return nil, fmt.Errorf("unknown species %q", spec.Species)
	}
	if !w.grid.Passable(spec.Pos) {
		return nil, fmt.Errorf("spawn position %s is not passable", spec.Pos)
	}

	e := &Entity{
		ID:      w.nextID,
		Species: spec.Species,
		Pos:     spec.Pos,
		Hunger:  NewGauge(0, 100),
		Thirst:  NewGauge(0, 100),
		Energy:  NewGauge(100, 100),
	}
	if spec.Hunger != nil {
		e.Hunger = *spec.Hunger
	}
	if spec.Thirst != nil {
		e.Thirst = *spec.Thirst
	}
	if spec.Energy != nil {
		e.Energy = *spec.Energy
	}

	w.entities[e.ID] = e
	w.nextID++
	return e, nil
}

// Despawn removes the entity. Removing an unknown id is a no-op.
func (w *World) Despawn(id model.EntityID) {
	delete(w.entities, id)
}

// Exists reports whether the entity is alive.
func (w *World) Exists(id model.EntityID) bool {
	_, ok := w.entities[id]
	return ok
}

// Get returns the live entity for id.
func (w *World) Get(id model.EntityID) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Count returns the number of live entities.
func (w *World) Count() int {
	return len(w.entities)
}

// Each calls fn for every live entity. fn must not spawn or despawn.
func (w *World) Each(fn func(*Entity)) {
	for _, e := range w.entities {
		fn(e)
	}
}
