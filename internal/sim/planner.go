package sim

import (
	"go.uber.org/zap"

	"github.com/msageha/ecosim/internal/model"
	"github.com/msageha/ecosim/internal/sched"
	"github.com/msageha/ecosim/internal/world"
)

// Gauge drift per tick and the trigger thresholds the planner watches.
const (
	hungerPerTick = 0.5
	thirstPerTick = 0.8
	energyPerTick = 0.3

	needThreshold   = 70.0
	energyThreshold = 20.0
	predatorRadius  = 5
	idleInterval    = 25
)

// Dispatch priorities for planned actions, highest first.
const (
	priorityFlee    = 100
	prioritySurvive = 50
	priorityIdle    = 0
)

// Planner is the demand side of the scheduling core: it decays vitals,
// raises re-plan triggers, and converts markers and computed routes into
// concrete path requests and actions.
type Planner struct {
	think  *sched.ThinkScheduler
	path   *sched.PathScheduler
	action *sched.ActionScheduler
	logger *zap.Logger

	// Completions at or after this tick have not been turned into
	// follow-up triggers yet.
	followUpFrom model.Tick
}

// NewPlanner wires the planner to the three schedulers.
func NewPlanner(think *sched.ThinkScheduler, path *sched.PathScheduler, action *sched.ActionScheduler, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{think: think, path: path, action: action, logger: logger}
}

// RunTick decays vitals and raises triggers, then turns outstanding results
// into new work. It runs before the schedulers drain so fresh requests are
// eligible the same tick.
func (p *Planner) RunTick(w *world.World, tick model.Tick) {
	p.scheduleFollowUps(tick)
	w.Each(func(e *world.Entity) {
		p.decay(e)
		p.raiseTriggers(w, e, tick)
	})
	w.Each(func(e *world.Entity) {
		p.consumeResults(w, e, tick)
	})
}

// scheduleFollowUps turns last tick's action completions into re-plan
// triggers so entities pick their next behavior instead of going idle.
func (p *Planner) scheduleFollowUps(tick model.Tick) {
	for _, c := range p.action.RecentCompletions(p.followUpFrom) {
		reason := model.ThinkActionCompleted
		if !c.Success {
			reason = model.ThinkActionFailed
		}
		p.think.Schedule(c.Subject, reason, tick)
	}
	p.followUpFrom = tick
}

func (p *Planner) decay(e *world.Entity) {
	e.Hunger.Change(hungerPerTick)
	e.Thirst.Change(thirstPerTick)
	e.Energy.Change(-energyPerTick)
}

func (p *Planner) raiseTriggers(w *world.World, e *world.Entity, tick model.Tick) {
	if e.Species == world.SpeciesHerbivore && p.predatorNear(w, e) {
		p.think.Schedule(e.ID, model.ThinkPredatorNearby, tick)
		return
	}
	if e.Hunger.Value > needThreshold {
		p.think.Schedule(e.ID, model.ThinkHungerThreshold, tick)
		return
	}
	if e.Thirst.Value > needThreshold {
		p.think.Schedule(e.ID, model.ThinkThirstThreshold, tick)
		return
	}
	if e.CurrentAction == "" && uint64(tick)%idleInterval == uint64(e.ID)%idleInterval {
		p.think.Schedule(e.ID, model.ThinkIdleTimer, tick)
	}
}

func (p *Planner) predatorNear(w *world.World, e *world.Entity) bool {
	near := false
	w.Each(func(other *world.Entity) {
		if near || other.Species != world.SpeciesPredator {
			return
		}
		dx := other.Pos.X - e.Pos.X
		dy := other.Pos.Y - e.Pos.Y
		if dx*dx+dy*dy <= predatorRadius*predatorRadius {
			near = true
		}
	})
	return near
}

// consumeResults reads and clears the entity's result surface, queuing the
// follow-up work it implies.
func (p *Planner) consumeResults(w *world.World, e *world.Entity, tick model.Tick) {
	if ready, ok := e.TakePathReady(); ok && ready.Path.Len() > 0 {
		goal := ready.Path.Waypoints[ready.Path.Len()-1]
		priority := prioritySurvive
		if e.Species == world.SpeciesHerbivore && p.predatorNear(w, e) {
			priority = priorityFlee
		}
		p.action.Schedule(e.ID, model.ActionSpec{Kind: model.ActionWander, Target: goal},
			priority, 1.0/(1.0+ready.Path.Cost), tick)
	}
	if failed, ok := e.TakePathFailed(); ok {
		p.logger.Debug("route failed, replanning",
			zap.Stringer("subject", e.ID),
			zap.String("reason", string(failed.Reason)),
			zap.Int("retries", failed.Retries),
		)
		p.think.Schedule(e.ID, model.ThinkActionFailed, tick)
	}

	marker, ok := e.TakeThink()
	if !ok {
		return
	}
	p.plan(w, e, marker, tick)
}

// plan picks the next behavior for a freshly marked entity.
func (p *Planner) plan(w *world.World, e *world.Entity, marker model.ThinkMarker, tick model.Tick) {
	switch marker.Reason {
	case model.ThinkPredatorNearby, model.ThinkFearSpike, model.ThinkDamageTaken:
		if goal, ok := p.fleeTarget(w, e); ok {
			p.path.Schedule(w, e.ID, e.Pos, goal, model.TierUrgent, model.PathFleeingPredator, tick)
		}

	case model.ThinkHungerThreshold:
		if e.Species == world.SpeciesPredator {
			if prey, ok := p.nearestPrey(w, e); ok {
				p.action.Schedule(e.ID, model.ActionSpec{Kind: model.ActionHunt, Other: prey},
					prioritySurvive, e.Hunger.Percentage()/100, tick)
			}
			return
		}
		if w.Grid().At(e.Pos) == world.TerrainGrass {
			p.action.Schedule(e.ID, model.ActionSpec{Kind: model.ActionGraze, Target: e.Pos, Duration: 3},
				prioritySurvive, e.Hunger.Percentage()/100, tick)
		}

	case model.ThinkThirstThreshold:
		if water, ok := p.nearestWater(w, e); ok {
			if e.Pos.Chebyshev(water) <= 1 {
				p.action.Schedule(e.ID, model.ActionSpec{Kind: model.ActionDrink, Target: water},
					prioritySurvive, e.Thirst.Percentage()/100, tick)
			} else {
				p.path.Schedule(w, e.ID, e.Pos, p.shoreTile(w, water, e.Pos), model.TierNormal, model.PathMovingToWater, tick)
			}
		}

	default:
		if e.Energy.Value < energyThreshold {
			p.action.Schedule(e.ID, model.ActionSpec{Kind: model.ActionRest, Duration: 10},
				priorityIdle, 1.0-e.Energy.Percentage()/100, tick)
			return
		}
		if goal, ok := p.randomNearby(w, e, tick); ok {
			p.action.Schedule(e.ID, model.ActionSpec{Kind: model.ActionWander, Target: goal},
				priorityIdle, 0.1, tick)
		}
	}
}

// fleeTarget picks the passable tile furthest from the nearest predator
// within a one-step ring scaled out to the flee distance.
func (p *Planner) fleeTarget(w *world.World, e *world.Entity) (model.TileCoord, bool) {
	var threat *world.Entity
	w.Each(func(other *world.Entity) {
		if other.Species != world.SpeciesPredator {
			return
		}
		if threat == nil || distSq(other.Pos, e.Pos) < distSq(threat.Pos, e.Pos) {
			threat = other
		}
	})
	if threat == nil {
		return model.TileCoord{}, false
	}
	goal := model.TileCoord{
		X: e.Pos.X + clampStep(e.Pos.X-threat.Pos.X)*predatorRadius,
		Y: e.Pos.Y + clampStep(e.Pos.Y-threat.Pos.Y)*predatorRadius,
	}
	return nearestPassable(w.Grid(), goal)
}

func (p *Planner) nearestPrey(w *world.World, e *world.Entity) (model.EntityID, bool) {
	var prey *world.Entity
	w.Each(func(other *world.Entity) {
		if other.Species != world.SpeciesHerbivore {
			return
		}
		if prey == nil || distSq(other.Pos, e.Pos) < distSq(prey.Pos, e.Pos) {
			prey = other
		}
	})
	if prey == nil {
		return 0, false
	}
	return prey.ID, true
}

// nearestWater scans outward from the entity for a water tile.
func (p *Planner) nearestWater(w *world.World, e *world.Entity) (model.TileCoord, bool) {
	grid := w.Grid()
	width, height := grid.Size()
	maxR := width
	if height > maxR {
		maxR = height
	}
	for r := 1; r <= maxR; r++ {
		for y := e.Pos.Y - r; y <= e.Pos.Y+r; y++ {
			for x := e.Pos.X - r; x <= e.Pos.X+r; x++ {
				c := model.TileCoord{X: x, Y: y}
				if grid.At(c) == world.TerrainWater {
					return c, true
				}
			}
		}
	}
	return model.TileCoord{}, false
}

// shoreTile picks a passable tile adjacent to the water so the route has a
// standable goal.
func (p *Planner) shoreTile(w *world.World, water, from model.TileCoord) model.TileCoord {
	best := water
	bestDist := -1
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c := model.TileCoord{X: water.X + dx, Y: water.Y + dy}
			if !w.Grid().Passable(c) {
				continue
			}
			d := distSq(c, from)
			if bestDist < 0 || d < bestDist {
				best = c
				bestDist = d
			}
		}
	}
	return best
}

// randomNearby derives a deterministic wander goal from the entity id and
// tick so idle movement varies without a shared RNG.
func (p *Planner) randomNearby(w *world.World, e *world.Entity, tick model.Tick) (model.TileCoord, bool) {
	h := uint64(e.ID)*2654435761 + uint64(tick)*40503
	goal := model.TileCoord{
		X: e.Pos.X + int(h%11) - 5,
		Y: e.Pos.Y + int((h/11)%11) - 5,
	}
	return nearestPassable(w.Grid(), goal)
}

// nearestPassable clamps to the map then walks inward until a standable
// tile appears.
func nearestPassable(grid *world.Grid, c model.TileCoord) (model.TileCoord, bool) {
	width, height := grid.Size()
	if c.X < 0 {
		c.X = 0
	}
	if c.X >= width {
		c.X = width - 1
	}
	if c.Y < 0 {
		c.Y = 0
	}
	if c.Y >= height {
		c.Y = height - 1
	}
	if grid.Passable(c) {
		return c, true
	}
	for r := 1; r < width && r < height; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				cand := model.TileCoord{X: c.X + dx, Y: c.Y + dy}
				if grid.Passable(cand) {
					return cand, true
				}
			}
		}
	}
	return model.TileCoord{}, false
}

func distSq(a, b model.TileCoord) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

func clampStep(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 1
	}
}
