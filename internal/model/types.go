// Package model defines the data structures for ecosim's configuration,
// scheduling requests, and per-entity results.
package model

import "fmt"

// EntityID identifies a simulated entity. Zero is never assigned.
type EntityID uint64

func (id EntityID) String() string {
	return fmt.Sprintf("e%d", uint64(id))
}

// Tick is a discrete simulation step, the sole unit of time for the core.
type Tick uint64

// Tier is a discrete priority bucket for tiered queues.
type Tier int

const (
	TierUrgent Tier = iota
	TierNormal
	TierLazy
)

func (t Tier) String() string {
	switch t {
	case TierUrgent:
		return "urgent"
	case TierNormal:
		return "normal"
	case TierLazy:
		return "lazy"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// TileCoord is a position on the terrain grid.
type TileCoord struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

func (c TileCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Chebyshev returns the chessboard distance to other: the number of steps
// when diagonal moves count as one.
func (c TileCoord) Chebyshev(other TileCoord) int {
	dx := c.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := c.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Path is an immutable waypoint sequence produced by the pathfinding
// collaborator. It is shared by pointer; holders must not mutate it.
type Path struct {
	Waypoints []TileCoord
	Cost      float64
}

// Len returns the number of waypoints.
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Waypoints)
}
