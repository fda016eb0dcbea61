// Package pathfind computes routes over the terrain grid. It is the
// synchronous collaborator the path scheduler dispatches to; all budgeting
// and prioritization happen in the scheduler, not here.
package pathfind

import (
	"container/heap"

	"github.com/msageha/ecosim/internal/model"
	"github.com/msageha/ecosim/internal/world"
)

// Find runs A* with 4-neighbor movement from start to goal. On success it
// returns the waypoint path (start excluded, goal included) and an empty
// failure reason. maxNodes caps exploration; exceeding it reports a timeout.
func Find(grid *world.Grid, start, goal model.TileCoord, maxNodes int) (*model.Path, model.PathFailureReason) {
	if !grid.InBounds(start) || !grid.Passable(start) {
		return nil, model.PathInvalidStart
	}
	if !grid.InBounds(goal) || !grid.Passable(goal) {
		return nil, model.PathInvalidGoal
	}
	if start == goal {
		return &model.Path{Waypoints: []model.TileCoord{goal}, Cost: 0}, ""
	}
	if maxNodes <= 0 {
		maxNodes = 10000
	}

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, node{pos: start, f: heuristic(start, goal)})

	gScore := map[model.TileCoord]float64{start: 0}
	cameFrom := map[model.TileCoord]model.TileCoord{}
	explored := 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(node)
		if cur.pos == goal {
			return reconstruct(cameFrom, start, goal, gScore[goal]), ""
		}

		explored++
		if explored > maxNodes {
			return nil, model.PathTimeout
		}

		for _, next := range neighbors(cur.pos) {
			if !grid.Passable(next) {
				continue
			}
			tentative := gScore[cur.pos] + 1
			if prev, seen := gScore[next]; seen && tentative >= prev {
				continue
			}
			gScore[next] = tentative
			cameFrom[next] = cur.pos
			heap.Push(open, node{pos: next, f: tentative + heuristic(next, goal)})
		}
	}

	return nil, model.PathUnreachable
}

func neighbors(c model.TileCoord) [4]model.TileCoord {
	return [4]model.TileCoord{
		{X: c.X + 1, Y: c.Y},
		{X: c.X - 1, Y: c.Y},
		{X: c.X, Y: c.Y + 1},
		{X: c.X, Y: c.Y - 1},
	}
}

func heuristic(a, b model.TileCoord) float64 {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return float64(dx + dy)
}

func reconstruct(cameFrom map[model.TileCoord]model.TileCoord, start, goal model.TileCoord, cost float64) *model.Path {
	var rev []model.TileCoord
	for c := goal; c != start; c = cameFrom[c] {
		rev = append(rev, c)
	}
	waypoints := make([]model.TileCoord, len(rev))
	for i := range rev {
		waypoints[i] = rev[len(rev)-1-i]
	}
	return &model.Path{Waypoints: waypoints, Cost: cost}
}

type node struct {
	pos model.TileCoord
	f   float64
}

type nodeHeap []node

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)         { *h = append(*h, x.(node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
