package sim

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/msageha/ecosim/internal/events"
	"github.com/msageha/ecosim/internal/model"
	"github.com/msageha/ecosim/internal/sched"
	"github.com/msageha/ecosim/internal/world"
)

// Engine binds the world, the planner, and the three schedulers into one
// tick step. A single mutex serializes Step against control operations so
// a tick always sees a consistent configuration; there is no intra-tick
// concurrency by design of the drain protocol.
type Engine struct {
	mu sync.Mutex

	world   *world.World
	clock   *Clock
	planner *Planner

	think  *sched.ThinkScheduler
	path   *sched.PathScheduler
	action *sched.ActionScheduler

	diagEvery    model.Tick
	cleanupEvery model.Tick

	metrics TickMetrics
	logger  *zap.Logger
}

// NewEngine assembles an engine over a freshly generated world.
func NewEngine(cfg model.Config, logger *zap.Logger, bus *events.Bus) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	grid, err := world.GenerateGrid(cfg.World.Width, cfg.World.Height, cfg.World.Seed)
	if err != nil {
		return nil, err
	}
	w := world.New(grid)

	think := sched.NewThinkScheduler(cfg.Simulation.ThinkBudget, logger.Named("think"))
	path := sched.NewPathScheduler(cfg.Simulation.PathBudget, cfg.Simulation.PathMaxNodes, logger.Named("path"), bus)
	action := sched.NewActionScheduler(logger.Named("action"), bus)

	e := &Engine{
		world:        w,
		clock:        NewClock(cfg.Simulation.TicksPerSecond, cfg.Simulation.StartPaused),
		planner:      NewPlanner(think, path, action, logger),
		think:        think,
		path:         path,
		action:       action,
		diagEvery:    model.Tick(cfg.Simulation.DiagnosticsIntervalTicks),
		cleanupEvery: model.Tick(cfg.Simulation.CleanupIntervalTicks),
		logger:       logger,
	}
	e.clock.SetSpeed(cfg.Simulation.SpeedMultiplier)
	if err := e.populate(cfg.World); err != nil {
		return nil, err
	}
	return e, nil
}

// populate spawns the starting populations on passable tiles.
func (e *Engine) populate(cfg model.WorldConfig) error {
	grid := e.world.Grid()
	width, height := grid.Size()
	placed := 0
	want := cfg.Herbivores + cfg.Predators

	for y := 0; y < height && placed < want; y++ {
		for x := 0; x < width && placed < want; x++ {
			pos := model.TileCoord{X: x * 7 % width, Y: y}
			if !grid.Passable(pos) {
				continue
			}
			species := world.SpeciesHerbivore
			if placed >= cfg.Herbivores {
				species = world.SpeciesPredator
			}
			if _, err := e.world.Spawn(world.SpawnSpec{Species: species, Pos: pos}); err != nil {
				return err
			}
			placed++
		}
	}
	e.logger.Info("world populated",
		zap.Int("entities", placed),
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return nil
}

// World returns the engine's world. Callers must not mutate it while the
// daemon loop is running.
func (e *Engine) World() *world.World {
	return e.world
}

// Clock returns the simulation clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Step runs one full tick: planner, then triage, routing, and execution
// drains in that order. Paused clocks make Step a no-op.
func (e *Engine) Step() (model.Tick, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.clock.Paused() {
		return e.clock.Current(), false
	}
	started := time.Now()
	tick := e.clock.Advance()

	e.planner.RunTick(e.world, tick)
	e.think.RunTick(e.world, tick)
	e.path.RunTick(e.world, tick)
	e.action.RunTick(e.world, tick)

	if e.cleanupEvery > 0 && tick%e.cleanupEvery == 0 {
		removed := e.think.Sweep(e.world) + e.path.Sweep(e.world) + e.action.Sweep(e.world)
		if removed > 0 {
			e.logger.Debug("swept dead references",
				zap.Uint64("tick", uint64(tick)),
				zap.Int("removed", removed),
			)
		}
	}

	e.metrics.Record(time.Since(started))

	if e.diagEvery > 0 && tick%e.diagEvery == 0 {
		e.logDiagnostics(tick)
	}
	return tick, true
}

func (e *Engine) logDiagnostics(tick model.Tick) {
	e.think.LogDiagnostics(tick)
	e.path.LogDiagnostics(tick)
	e.action.LogDiagnostics(tick)
	e.logger.Info("tick timing",
		zap.Uint64("tick", uint64(tick)),
		zap.Duration("avg", e.metrics.Average()),
		zap.Duration("max", e.metrics.Max()),
		zap.Float64("effective_tps", e.metrics.EffectiveTPS()),
		zap.Int("entities", e.world.Count()),
	)
}

// Snapshots returns the current diagnostic view of all three schedulers.
func (e *Engine) Snapshots() []model.SchedulerSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	tick := e.clock.Current()
	return []model.SchedulerSnapshot{
		e.think.Snapshot(tick),
		e.path.Snapshot(tick),
		e.action.Snapshot(tick),
	}
}

// EntityCount returns the live population.
func (e *Engine) EntityCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Count()
}

// Metrics returns a copy of the rolling tick-duration window.
func (e *Engine) Metrics() TickMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

// ApplyConfig applies the reloadable subset of the configuration: drain
// budgets, intervals, and simulation speed. Structural settings (world
// size, seed, populations) are ignored after startup.
func (e *Engine) ApplyConfig(cfg model.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.think.SetBudget(cfg.Simulation.ThinkBudget)
	e.path.SetBudget(cfg.Simulation.PathBudget)
	e.diagEvery = model.Tick(cfg.Simulation.DiagnosticsIntervalTicks)
	e.cleanupEvery = model.Tick(cfg.Simulation.CleanupIntervalTicks)
	applied := e.clock.SetSpeed(cfg.Simulation.SpeedMultiplier)

	e.logger.Info("configuration applied",
		zap.Int("think_budget", cfg.Simulation.ThinkBudget),
		zap.Int("path_budget", cfg.Simulation.PathBudget),
		zap.Float64("speed", applied),
	)
}

// TogglePause flips the pause flag and returns the new paused state.
func (e *Engine) TogglePause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Toggle()
}

// SetSpeed applies a clamped speed multiplier and returns the value in
// effect.
func (e *Engine) SetSpeed(mult float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.SetSpeed(mult)
}

// ClockState returns the tick, pause flag, and speed as one consistent
// read.
func (e *Engine) ClockState() (model.Tick, bool, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Current(), e.clock.Paused(), e.clock.Speed()
}

// Pause suspends tick advancement; queued work is retained.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock.Pause()
}

// Resume re-enables tick advancement.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock.Resume()
}

// TickInterval returns the wall-clock spacing between ticks at the current
// speed.
func (e *Engine) TickInterval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clock.Interval()
}
