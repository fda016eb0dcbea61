package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/ecosim/internal/model"
)

func testConfig() model.Config {
	cfg := model.Config{}.WithDefaults()
	cfg.World.Width = 24
	cfg.World.Height = 24
	cfg.World.Seed = 42
	cfg.World.Herbivores = 8
	cfg.World.Predators = 2
	return cfg
}

func TestEngineStepAdvances(t *testing.T) {
	engine, err := NewEngine(testConfig(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, engine.EntityCount())

	tick, advanced := engine.Step()
	assert.True(t, advanced)
	assert.Equal(t, model.Tick(1), tick)

	tick, _ = engine.Step()
	assert.Equal(t, model.Tick(2), tick)
}

func TestEnginePausedStepIsNoop(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.StartPaused = true
	engine, err := NewEngine(cfg, nil, nil)
	require.NoError(t, err)

	tick, advanced := engine.Step()
	assert.False(t, advanced)
	assert.Equal(t, model.Tick(0), tick)

	engine.Resume()
	_, advanced = engine.Step()
	assert.True(t, advanced)
}

func TestEngineRunsManyTicks(t *testing.T) {
	engine, err := NewEngine(testConfig(), nil, nil)
	require.NoError(t, err)

	for i := 0; i < 300; i++ {
		engine.Step()
	}

	snaps := engine.Snapshots()
	require.Len(t, snaps, 3)
	var byName = map[string]model.SchedulerSnapshot{}
	for _, s := range snaps {
		byName[s.Name] = s
	}

	// The planner must have produced triage work by now; gauges decay
	// every tick and thresholds sit well under 300 ticks of drift.
	assert.Greater(t, byName["think"].Stats.Processed, uint64(0))
	assert.Greater(t, byName["action"].Stats.Enqueued, uint64(0))

	for name, s := range byName {
		assert.GreaterOrEqual(t, s.Stats.Enqueued+s.Stats.Deduped, s.Stats.Processed,
			"%s processed more than was ever enqueued", name)
	}
}

func TestEngineApplyConfig(t *testing.T) {
	engine, err := NewEngine(testConfig(), nil, nil)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Simulation.ThinkBudget = 5
	cfg.Simulation.PathBudget = 3
	cfg.Simulation.SpeedMultiplier = 99 // clamped
	engine.ApplyConfig(cfg)

	assert.Equal(t, MaxSpeed, engine.Clock().Speed())
	snaps := engine.Snapshots()
	for _, s := range snaps {
		switch s.Name {
		case "think":
			assert.Equal(t, 5, s.Budget)
		case "path":
			assert.Equal(t, 3, s.Budget)
		}
	}
}

func TestEngineDeterministicWorld(t *testing.T) {
	a, err := NewEngine(testConfig(), nil, nil)
	require.NoError(t, err)
	b, err := NewEngine(testConfig(), nil, nil)
	require.NoError(t, err)

	aw, ah := a.World().Grid().Size()
	bw, bh := b.World().Grid().Size()
	assert.Equal(t, aw, bw)
	assert.Equal(t, ah, bh)
	for y := 0; y < ah; y++ {
		for x := 0; x < aw; x++ {
			c := model.TileCoord{X: x, Y: y}
			if a.World().Grid().At(c) != b.World().Grid().At(c) {
				t.Fatalf("terrain differs at %s for identical seeds", c)
			}
		}
	}
}
