package sim

import "time"

// tickMetricsWindow is the number of recent tick durations retained.
const tickMetricsWindow = 60

// TickMetrics keeps a rolling window of wall-clock tick durations for the
// diagnostics line and the stats recorder.
type TickMetrics struct {
	samples [tickMetricsWindow]time.Duration
	count   int
	next    int
}

// Record adds one tick duration, evicting the oldest once the window fills.
func (m *TickMetrics) Record(d time.Duration) {
	m.samples[m.next] = d
	m.next = (m.next + 1) % tickMetricsWindow
	if m.count < tickMetricsWindow {
		m.count++
	}
}

// Average returns the mean duration over the window, zero when empty.
func (m *TickMetrics) Average() time.Duration {
	if m.count == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < m.count; i++ {
		total += m.samples[i]
	}
	return total / time.Duration(m.count)
}

// Max returns the slowest tick in the window.
func (m *TickMetrics) Max() time.Duration {
	var max time.Duration
	for i := 0; i < m.count; i++ {
		if m.samples[i] > max {
			max = m.samples[i]
		}
	}
	return max
}

// EffectiveTPS returns the achieved ticks per second implied by the average
// duration, zero when no samples exist.
func (m *TickMetrics) EffectiveTPS() float64 {
	avg := m.Average()
	if avg <= 0 {
		return 0
	}
	return float64(time.Second) / float64(avg)
}
