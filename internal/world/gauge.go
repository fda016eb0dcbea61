package world

// Gauge is a bounded vital stat (hunger, thirst, energy).
type Gauge struct {
	Value float64
	Max   float64
}

// NewGauge returns a gauge at the given value, clamped to [0, max].
func NewGauge(value, max float64) Gauge {
	g := Gauge{Value: value, Max: max}
	g.clamp()
	return g
}

func (g *Gauge) clamp() {
	if g.Value < 0 {
		g.Value = 0
	}
	if g.Value > g.Max {
		g.Value = g.Max
	}
}

// Change adjusts the value by delta, clamping to the gauge bounds.
func (g *Gauge) Change(delta float64) {
	g.Value += delta
	g.clamp()
}

// Percentage returns the fill level in [0, 100].
func (g Gauge) Percentage() float64 {
	if g.Max <= 0 {
		return 0
	}
	return g.Value / g.Max * 100
}

// IsFull reports whether the gauge is at its maximum.
func (g Gauge) IsFull() bool {
	return g.Value >= g.Max
}

// IsEmpty reports whether the gauge is drained.
func (g Gauge) IsEmpty() bool {
	return g.Value <= 0
}
