package model

// Result surface attached to entities by dispatch. Downstream systems
// (movement, planning) read and clear these; the schedulers only write them.

// ThinkMarker flags an entity as due for full re-planning.
type ThinkMarker struct {
	Reason    ThinkReason
	FlaggedAt Tick
}

// PathRequested records an in-flight route computation.
type PathRequested struct {
	RequestID   uint64
	Target      TileCoord
	Tier        Tier
	RequestedAt Tick
}

// PathReady is a successfully computed route. The Path pointer is shared,
// never copied.
type PathReady struct {
	Path       *Path
	ComputedAt Tick
}

// PathFailed is a failed route computation with retry bookkeeping.
// Retries counts consecutive failures for the same entity; the core never
// retries on its own, producers decide.
type PathFailed struct {
	Reason  PathFailureReason
	Retries int
}
