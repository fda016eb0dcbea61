// Package sim drives the schedulers: the tick clock, the per-tick engine
// step, the need-driven planner, and the long-running daemon loop.
package sim

import (
	"time"

	"github.com/msageha/ecosim/internal/model"
)

// Speed multiplier bounds. Values outside are clamped, never rejected.
const (
	MinSpeed = 0.1
	MaxSpeed = 10.0
)

// Clock owns simulation time: the monotonic tick counter, the pause flag,
// and the speed multiplier. Pausing stops tick advancement only; enqueuing
// into the schedulers stays legal while paused.
type Clock struct {
	current model.Tick
	paused  bool
	speed   float64

	ticksPerSecond float64
}

// NewClock creates a clock at tick zero.
func NewClock(ticksPerSecond float64, startPaused bool) *Clock {
	if ticksPerSecond <= 0 {
		ticksPerSecond = 10
	}
	return &Clock{
		paused:         startPaused,
		speed:          1.0,
		ticksPerSecond: ticksPerSecond,
	}
}

// Current returns the current tick.
func (c *Clock) Current() model.Tick {
	return c.current
}

// Advance moves to the next tick and returns it. Callers must check Paused
// first; Advance itself never gates.
func (c *Clock) Advance() model.Tick {
	c.current++
	return c.current
}

// Paused reports whether tick advancement is suspended.
func (c *Clock) Paused() bool {
	return c.paused
}

// Pause suspends tick advancement.
func (c *Clock) Pause() {
	c.paused = true
}

// Resume re-enables tick advancement.
func (c *Clock) Resume() {
	c.paused = false
}

// Toggle flips the pause flag and returns the new paused state.
func (c *Clock) Toggle() bool {
	c.paused = !c.paused
	return c.paused
}

// Speed returns the current multiplier.
func (c *Clock) Speed() float64 {
	return c.speed
}

// SetSpeed sets the multiplier, clamped to [MinSpeed, MaxSpeed], and
// returns the value actually applied.
func (c *Clock) SetSpeed(mult float64) float64 {
	if mult < MinSpeed {
		mult = MinSpeed
	}
	if mult > MaxSpeed {
		mult = MaxSpeed
	}
	c.speed = mult
	return c.speed
}

// Interval returns the wall-clock duration of one tick at the current
// speed.
func (c *Clock) Interval() time.Duration {
	return time.Duration(float64(time.Second) / (c.ticksPerSecond * c.speed))
}
