package model

import "fmt"

// ActionKind enumerates the closed set of behaviors an entity can execute.
// Each kind carries its data in ActionSpec; the scheduler dispatches on the
// kind with a switch so the compiler keeps the set exhaustive.
type ActionKind string

const (
	ActionRest   ActionKind = "rest"
	ActionDrink  ActionKind = "drink_water"
	ActionGraze  ActionKind = "graze"
	ActionWander ActionKind = "wander"
	ActionHunt   ActionKind = "hunt"
	ActionFollow ActionKind = "follow"
)

// ActionSpec describes one queued behavior. Only the fields relevant to the
// kind are meaningful; Validate rejects malformed combinations up front.
type ActionSpec struct {
	Kind     ActionKind
	Target   TileCoord // drink, graze, wander
	Other    EntityID  // hunt prey, follow leader
	Duration Tick      // rest, graze, follow
}

// Validate checks structural well-formedness (not world preconditions).
func (s ActionSpec) Validate() error {
	switch s.Kind {
	case ActionRest:
		if s.Duration == 0 {
			return fmt.Errorf("rest action requires a duration")
		}
	case ActionDrink, ActionGraze, ActionWander:
		// Target may legitimately be the origin tile; nothing to check here.
	case ActionHunt, ActionFollow:
		if s.Other == 0 {
			return fmt.Errorf("%s action requires a target entity", s.Kind)
		}
	default:
		return fmt.Errorf("unknown action kind %q", s.Kind)
	}
	return nil
}

func (s ActionSpec) String() string {
	switch s.Kind {
	case ActionRest:
		return fmt.Sprintf("rest[%d ticks]", s.Duration)
	case ActionHunt, ActionFollow:
		return fmt.Sprintf("%s[%s]", s.Kind, s.Other)
	default:
		return fmt.Sprintf("%s[%s]", s.Kind, s.Target)
	}
}
