// Package world holds the mutable simulation state the schedulers read and
// dispatch against: the terrain grid and the entity registry. During a
// scheduler's drain the tick loop holds the world exclusively; nothing here
// is safe for concurrent mutation.
package world

import (
	"fmt"
	"math/rand"

	"github.com/msageha/ecosim/internal/model"
)

// Terrain classifies one grid tile.
type Terrain uint8

const (
	TerrainGrass Terrain = iota
	TerrainWater
	TerrainRock
)

func (t Terrain) String() string {
	switch t {
	case TerrainGrass:
		return "grass"
	case TerrainWater:
		return "water"
	case TerrainRock:
		return "rock"
	default:
		return fmt.Sprintf("terrain(%d)", uint8(t))
	}
}

// Grid is the terrain map. Cells are immutable after generation.
type Grid struct {
	width  int
	height int
	cells  []Terrain
}

// NewGrid builds a grid from explicit cells in row-major order. Useful for
// tests and externally authored maps.
func NewGrid(width, height int, cells []Terrain) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", width, height)
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("grid cells length %d, want %d", len(cells), width*height)
	}
	return &Grid{width: width, height: height, cells: cells}, nil
}

// GenerateGrid builds a deterministic terrain map from the seed: a few water
// pools, scattered rock, grass everywhere else.
func GenerateGrid(width, height int, seed int64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", width, height)
	}
	g := &Grid{
		width:  width,
		height: height,
		cells:  make([]Terrain, width*height),
	}

	rng := rand.New(rand.NewSource(seed))

	pools := 1 + width*height/1024
	for i := 0; i < pools; i++ {
		cx := rng.Intn(width)
		cy := rng.Intn(height)
		radius := 2 + rng.Intn(3)
		for y := cy - radius; y <= cy+radius; y++ {
			for x := cx - radius; x <= cx+radius; x++ {
				dx, dy := x-cx, y-cy
				if dx*dx+dy*dy <= radius*radius && g.inBounds(x, y) {
					g.cells[y*width+x] = TerrainWater
				}
			}
		}
	}

	rocks := width * height / 50
	for i := 0; i < rocks; i++ {
		x := rng.Intn(width)
		y := rng.Intn(height)
		if g.cells[y*width+x] == TerrainGrass {
			g.cells[y*width+x] = TerrainRock
		}
	}

	return g, nil
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// InBounds reports whether the coordinate is on the map.
func (g *Grid) InBounds(c model.TileCoord) bool {
	return g.inBounds(c.X, c.Y)
}

// At returns the terrain at c; out-of-bounds reads as rock so callers treat
// the edge as impassable without a separate check.
func (g *Grid) At(c model.TileCoord) Terrain {
	if !g.inBounds(c.X, c.Y) {
		return TerrainRock
	}
	return g.cells[c.Y*g.width+c.X]
}

// Passable reports whether an entity can stand on c.
func (g *Grid) Passable(c model.TileCoord) bool {
	return g.At(c) == TerrainGrass
}

// Size returns the grid dimensions.
func (g *Grid) Size() (width, height int) {
	return g.width, g.height
}
