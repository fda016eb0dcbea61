package model

// Stats holds the monotonically increasing counters for one scheduler.
// Only the owning scheduler mutates them; everything else reads copies.
type Stats struct {
	Enqueued  uint64 `yaml:"enqueued"`
	Deduped   uint64 `yaml:"deduped"`
	Processed uint64 `yaml:"processed"`
	Completed uint64 `yaml:"completed"`
	Failed    uint64 `yaml:"failed"`
	Orphaned  uint64 `yaml:"orphaned"`
}

// QueueDepth is a point-in-time view of pending work per tier.
type QueueDepth struct {
	Urgent int `yaml:"urgent"`
	Normal int `yaml:"normal"`
	Lazy   int `yaml:"lazy"`
}

// Total returns the summed depth across tiers.
func (d QueueDepth) Total() int {
	return d.Urgent + d.Normal + d.Lazy
}

// SchedulerSnapshot is the read-only view one scheduler exposes for
// diagnostics, the YAML snapshot, and the sqlite recorder.
type SchedulerSnapshot struct {
	Name    string     `yaml:"name"`
	Stats   Stats      `yaml:"stats"`
	Depth   QueueDepth `yaml:"depth"`
	Active  int        `yaml:"active"`
	Budget  int        `yaml:"budget"`
	AtTick  Tick       `yaml:"at_tick"`
}
