package model

// ThinkReason explains why an entity should re-plan. The reason fixes the
// queue tier; the mapping is total and not configurable at runtime.
type ThinkReason string

const (
	// Urgent: threats and critical needs.
	ThinkFearSpike      ThinkReason = "fear_spike"
	ThinkPredatorNearby ThinkReason = "predator_nearby"
	ThinkDamageTaken    ThinkReason = "damage_taken"

	// Normal: stat thresholds and action boundaries.
	ThinkHungerThreshold ThinkReason = "hunger_threshold"
	ThinkThirstThreshold ThinkReason = "thirst_threshold"
	ThinkActionCompleted ThinkReason = "action_completed"
	ThinkActionFailed    ThinkReason = "action_failed"

	// Lazy: idle and exploratory triggers.
	ThinkIdleTimer ThinkReason = "idle_timer"
	ThinkCuriosity ThinkReason = "curiosity"
)

var thinkTiers = map[ThinkReason]Tier{
	ThinkFearSpike:       TierUrgent,
	ThinkPredatorNearby:  TierUrgent,
	ThinkDamageTaken:     TierUrgent,
	ThinkHungerThreshold: TierNormal,
	ThinkThirstThreshold: TierNormal,
	ThinkActionCompleted: TierNormal,
	ThinkActionFailed:    TierNormal,
	ThinkIdleTimer:       TierLazy,
	ThinkCuriosity:       TierLazy,
}

// Tier returns the fixed tier for the reason. Unknown reasons fall back to
// lazy so a bad producer cannot jump the queue.
func (r ThinkReason) Tier() Tier {
	if t, ok := thinkTiers[r]; ok {
		return t
	}
	return TierLazy
}

// PathReason explains why a route is needed (debugging and metrics only).
type PathReason string

const (
	PathFleeingPredator PathReason = "fleeing_predator"
	PathMovingToFood    PathReason = "moving_to_food"
	PathMovingToWater   PathReason = "moving_to_water"
	PathMovingToMate    PathReason = "moving_to_mate"
	PathHunting         PathReason = "hunting"
	PathWandering       PathReason = "wandering"
)

// DefaultTier returns the tier callers normally pick for the reason.
// Path scheduling takes an explicit tier; this is the suggested one.
func (r PathReason) DefaultTier() Tier {
	switch r {
	case PathFleeingPredator:
		return TierUrgent
	case PathMovingToFood, PathMovingToWater, PathMovingToMate, PathHunting:
		return TierNormal
	default:
		return TierLazy
	}
}

// PathFailureReason classifies a failed route computation.
type PathFailureReason string

const (
	PathUnreachable  PathFailureReason = "unreachable"
	PathTimeout      PathFailureReason = "timeout"
	PathInvalidStart PathFailureReason = "invalid_start"
	PathInvalidGoal  PathFailureReason = "invalid_goal"
)
