package sched

import (
	"github.com/msageha/ecosim/internal/model"
	"github.com/msageha/ecosim/internal/world"
)

// Per-tick stat effects of action execution.
const (
	restEnergyPerTick  = 15.0
	grazeHungerPerTick = 8.0
	drinkThirstRelief  = 30.0
	huntHungerRelief   = 40.0
)

// Fallback durations for kinds that allow a zero Duration in their spec.
const (
	defaultGrazeTicks  model.Tick = 3
	defaultFollowTicks model.Tick = 10
	defaultHuntTicks   model.Tick = 20
)

// activeAction is the mutable execution state for one dispatched action.
type activeAction struct {
	spec      model.ActionSpec
	remaining model.Tick
}

func newActiveAction(spec model.ActionSpec) activeAction {
	remaining := spec.Duration
	if remaining == 0 {
		switch spec.Kind {
		case model.ActionGraze:
			remaining = defaultGrazeTicks
		case model.ActionFollow:
			remaining = defaultFollowTicks
		case model.ActionHunt:
			remaining = defaultHuntTicks
		}
	}
	return activeAction{spec: spec, remaining: remaining}
}

// validateAction checks the world preconditions at dispatch time. Requests
// can sit in the queue for many ticks, so staleness is the normal case, not
// an error path.
func validateAction(w *world.World, ent *world.Entity, spec model.ActionSpec) bool {
	grid := w.Grid()
	switch spec.Kind {
	case model.ActionRest:
		return true
	case model.ActionDrink:
		return grid.At(spec.Target) == world.TerrainWater && ent.Pos.Chebyshev(spec.Target) <= 1
	case model.ActionGraze:
		return ent.Pos == spec.Target && grid.At(spec.Target) == world.TerrainGrass
	case model.ActionWander:
		return grid.Passable(spec.Target)
	case model.ActionHunt:
		prey, ok := w.Get(spec.Other)
		return ok && prey.ID != ent.ID
	case model.ActionFollow:
		leader, ok := w.Get(spec.Other)
		return ok && leader.ID != ent.ID
	default:
		return false
	}
}

// advanceAction executes one tick-step of the action, mutating the entity
// and returning whether the action continues, completed, or failed.
func advanceAction(w *world.World, ent *world.Entity, st *activeAction) Outcome {
	switch st.spec.Kind {
	case model.ActionRest:
		ent.Energy.Change(restEnergyPerTick)
		st.remaining--
		// Resting ends early once the gauge fills; no point lying around.
		if st.remaining == 0 || ent.Energy.IsFull() {
			return OutcomeCompleted
		}
		return OutcomeActive

	case model.ActionDrink:
		// Instant: proximity was validated at dispatch.
		ent.Thirst.Change(-drinkThirstRelief)
		return OutcomeCompleted

	case model.ActionGraze:
		if w.Grid().At(ent.Pos) != world.TerrainGrass {
			return OutcomeFailed
		}
		ent.Hunger.Change(-grazeHungerPerTick)
		st.remaining--
		if st.remaining == 0 || ent.Hunger.IsEmpty() {
			return OutcomeCompleted
		}
		return OutcomeActive

	case model.ActionWander:
		if ent.Pos == st.spec.Target {
			return OutcomeCompleted
		}
		if !stepToward(w, ent, st.spec.Target) {
			return OutcomeFailed
		}
		if ent.Pos == st.spec.Target {
			return OutcomeCompleted
		}
		return OutcomeActive

	case model.ActionHunt:
		prey, ok := w.Get(st.spec.Other)
		if !ok {
			return OutcomeFailed
		}
		if ent.Pos.Chebyshev(prey.Pos) <= 1 {
			w.Despawn(prey.ID)
			ent.Hunger.Change(-huntHungerRelief)
			return OutcomeCompleted
		}
		stepToward(w, ent, prey.Pos)
		st.remaining--
		if st.remaining == 0 {
			// Chase expired; the prey escaped.
			return OutcomeFailed
		}
		return OutcomeActive

	case model.ActionFollow:
		leader, ok := w.Get(st.spec.Other)
		if !ok {
			return OutcomeFailed
		}
		if ent.Pos.Chebyshev(leader.Pos) > 1 {
			stepToward(w, ent, leader.Pos)
		}
		st.remaining--
		if st.remaining == 0 {
			return OutcomeCompleted
		}
		return OutcomeActive

	default:
		return OutcomeFailed
	}
}

// stepToward moves the entity one passable tile toward target, preferring
// the longer axis. Returns false when every candidate step is blocked.
func stepToward(w *world.World, ent *world.Entity, target model.TileCoord) bool {
	dx := sign(target.X - ent.Pos.X)
	dy := sign(target.Y - ent.Pos.Y)

	var candidates []model.TileCoord
	if abs(target.X-ent.Pos.X) >= abs(target.Y-ent.Pos.Y) {
		candidates = append(candidates,
			model.TileCoord{X: ent.Pos.X + dx, Y: ent.Pos.Y},
			model.TileCoord{X: ent.Pos.X, Y: ent.Pos.Y + dy})
	} else {
		candidates = append(candidates,
			model.TileCoord{X: ent.Pos.X, Y: ent.Pos.Y + dy},
			model.TileCoord{X: ent.Pos.X + dx, Y: ent.Pos.Y})
	}
	for _, c := range candidates {
		if c != ent.Pos && w.Grid().Passable(c) {
			ent.Pos = c
			return true
		}
	}
	return false
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
