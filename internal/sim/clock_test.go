package sim

import (
	"testing"
	"time"
)

func TestClockAdvanceAndPause(t *testing.T) {
	c := NewClock(10, false)
	if c.Current() != 0 {
		t.Fatalf("initial tick = %d, want 0", c.Current())
	}
	if c.Advance() != 1 || c.Advance() != 2 {
		t.Error("advance did not count monotonically")
	}

	c.Pause()
	if !c.Paused() {
		t.Error("not paused after Pause")
	}
	if paused := c.Toggle(); paused {
		t.Error("toggle from paused should resume")
	}
	if paused := c.Toggle(); !paused {
		t.Error("toggle from running should pause")
	}
}

func TestClockStartPaused(t *testing.T) {
	c := NewClock(10, true)
	if !c.Paused() {
		t.Error("clock should start paused")
	}
}

func TestClockSpeedClamped(t *testing.T) {
	c := NewClock(10, false)
	tests := []struct {
		in   float64
		want float64
	}{
		{1.0, 1.0},
		{0.05, MinSpeed},
		{-3, MinSpeed},
		{25, MaxSpeed},
		{2.5, 2.5},
	}
	for _, tt := range tests {
		if got := c.SetSpeed(tt.in); got != tt.want {
			t.Errorf("SetSpeed(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClockInterval(t *testing.T) {
	c := NewClock(10, false)
	if got := c.Interval(); got != 100*time.Millisecond {
		t.Errorf("interval = %v, want 100ms", got)
	}
	c.SetSpeed(2)
	if got := c.Interval(); got != 50*time.Millisecond {
		t.Errorf("interval at 2x = %v, want 50ms", got)
	}
}

func TestTickMetricsWindow(t *testing.T) {
	var m TickMetrics
	if m.Average() != 0 || m.EffectiveTPS() != 0 {
		t.Error("empty metrics should report zero")
	}

	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)
	if m.Average() != 3*time.Millisecond {
		t.Errorf("avg = %v, want 3ms", m.Average())
	}
	if m.Max() != 4*time.Millisecond {
		t.Errorf("max = %v, want 4ms", m.Max())
	}

	// Flood past the window; old samples must be evicted.
	for i := 0; i < tickMetricsWindow; i++ {
		m.Record(10 * time.Millisecond)
	}
	if m.Average() != 10*time.Millisecond {
		t.Errorf("avg after eviction = %v, want 10ms", m.Average())
	}
	if got := m.EffectiveTPS(); got != 100 {
		t.Errorf("effective tps = %v, want 100", got)
	}
}
