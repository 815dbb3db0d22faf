// Package hazard implements component C5: static obstacle placement with
// reachability validation, and the hazard record table (traps, terrain
// effects) with per-type activation rules. The reachability check adapts
// the BFS/Dijkstra-lite integration sweep from the teacher engine's
// internal/game/spatial.FlowField.Generate, but only needs a yes/no
// reachability answer rather than a full navigable flow field, so it is a
// plain 8-way BFS over a boolean grid instead of a cost-propagating
// integration field.
package hazard

import "wolfpit/internal/sim/fixedpoint"

const (
	GridCols = 41
	GridRows = 23

	MaxObstacles = 16
	MaxHazards   = 24

	// MaxPlacementAttempts bounds the obstacle generator's retry loop; on
	// exhaustion it falls back to fewer obstacles rather than looping
	// forever or panicking.
	MaxPlacementAttempts = 64
)

// Obstacle is a static circular obstruction in normalized [0,1] gameplay
// space; the coordinator (Core.InitRun) creates a matching Static physics
// body for collision, but the authoritative obstacle record is stored here.
type Obstacle struct {
	ID       uint32
	Center   fixedpoint.Vec2
	Radius   fixedpoint.Fixed
	BodyID   uint32
}

// Layout holds the full obstacle set for a run, plus the reachability grid
// used to validate placements.
type Layout struct {
	obstacles []Obstacle
	blocked   [GridCols * GridRows]bool
}

func cellOf(pos fixedpoint.Vec2) (int, int) {
	col := int(pos.X.Mul(fixedpoint.FromInt(GridCols)).ToFloat())
	row := int(pos.Y.Mul(fixedpoint.FromInt(GridRows)).ToFloat())
	if col < 0 {
		col = 0
	}
	if col >= GridCols {
		col = GridCols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= GridRows {
		row = GridRows - 1
	}
	return col, row
}

func cellIndex(col, row int) int { return row*GridCols + col }

// Generate places up to n obstacles in normalized space with a minimum
// distance from spawn and pairwise non-overlap, verifying after each full
// placement attempt that the spawn cell can still reach the center cell
// via BFS. On repeated failure it retries with fewer obstacles, per spec
// §4.5, rather than ever leaving the arena unreachable.
func Generate(stream RandomSource, n int, spawn fixedpoint.Vec2, minDistFromSpawn, minRadius, maxRadius fixedpoint.Fixed) *Layout {
	if n > MaxObstacles {
		n = MaxObstacles
	}
	center := fixedpoint.Vec2{X: fixedpoint.Half, Y: fixedpoint.Half}

	for count := n; count >= 0; count-- {
		layout := tryPlace(stream, count, spawn, minDistFromSpawn, minRadius, maxRadius)
		if layout.isReachable(spawn, center) {
			return layout
		}
	}
	// count reached 0: an empty layout is always reachable.
	return &Layout{}
}

// RandomSource is the minimal draw surface Generate needs; satisfied by
// *rng.Stream without hazard importing the rng package's scope constants
// directly.
type RandomSource interface {
	NextFloat() float64
}

func tryPlace(stream RandomSource, n int, spawn fixedpoint.Vec2, minDistFromSpawn, minRadius, maxRadius fixedpoint.Fixed) *Layout {
	layout := &Layout{}
	placed := 0
	attempts := 0
	for placed < n && attempts < MaxPlacementAttempts {
		attempts++
		candidate := fixedpoint.Vec2{
			X: fixedpoint.FromFloat(stream.NextFloat()),
			Y: fixedpoint.FromFloat(stream.NextFloat()),
		}
		radius := minRadius.Add(fixedpoint.FromFloat(stream.NextFloat()).Mul(maxRadius.Sub(minRadius)))

		if candidate.DistanceTo(spawn) < minDistFromSpawn {
			continue
		}
		overlaps := false
		for _, o := range layout.obstacles {
			if candidate.DistanceTo(o.Center) < radius.Add(o.Radius) {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		layout.obstacles = append(layout.obstacles, Obstacle{
			ID:     uint32(placed + 1),
			Center: candidate,
			Radius: radius,
		})
		placed++
	}
	layout.rebuildBlockedGrid()
	return layout
}

func (l *Layout) rebuildBlockedGrid() {
	for i := range l.blocked {
		l.blocked[i] = false
	}
	for _, o := range l.obstacles {
		col, row := cellOf(o.Center)
		radiusCells := int(o.Radius.Mul(fixedpoint.FromInt(GridCols)).ToFloat()) + 1
		for dr := -radiusCells; dr <= radiusCells; dr++ {
			for dc := -radiusCells; dc <= radiusCells; dc++ {
				c, r := col+dc, row+dr
				if c < 0 || c >= GridCols || r < 0 || r >= GridRows {
					continue
				}
				l.blocked[cellIndex(c, r)] = true
			}
		}
	}
}

// isReachable runs an 8-way BFS from the spawn cell to the center cell over
// the blocked grid, adapted from FlowField.Generate's integration sweep.
func (l *Layout) isReachable(spawn, center fixedpoint.Vec2) bool {
	startCol, startRow := cellOf(spawn)
	goalCol, goalRow := cellOf(center)
	start := cellIndex(startCol, startRow)
	goal := cellIndex(goalCol, goalRow)

	if l.blocked[start] || l.blocked[goal] {
		return false
	}
	if start == goal {
		return true
	}

	var visited [GridCols * GridRows]bool
	queue := make([]int, 0, GridCols*GridRows)
	queue = append(queue, start)
	visited[start] = true

	dx := []int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy := []int{-1, -1, -1, 0, 0, 1, 1, 1}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		col := cur % GridCols
		row := cur / GridCols

		for i := range dx {
			nc, nr := col+dx[i], row+dy[i]
			if nc < 0 || nc >= GridCols || nr < 0 || nr >= GridRows {
				continue
			}
			idx := cellIndex(nc, nr)
			if visited[idx] || l.blocked[idx] {
				continue
			}
			if idx == goal {
				return true
			}
			visited[idx] = true
			queue = append(queue, idx)
		}
	}
	return false
}

// Obstacles returns the placed obstacle set.
func (l *Layout) Obstacles() []Obstacle { return l.obstacles }

// RestoreLayout rebuilds a Layout from a previously saved obstacle set,
// used by load_state to reproduce the exact placement (including the
// BodyID wiring already established against the physics world) instead of
// re-running Generate's randomized placement.
func RestoreLayout(obstacles []Obstacle) *Layout {
	l := &Layout{obstacles: obstacles}
	l.rebuildBlockedGrid()
	return l
}

// ResolvePlayerCollision pushes pos away from any overlapping obstacle
// along the contact normal with a small epsilon overshoot, iterated twice
// for stability, per spec §4.5.
func ResolvePlayerCollision(l *Layout, pos fixedpoint.Vec2, playerRadius fixedpoint.Fixed) fixedpoint.Vec2 {
	const epsilon = fixedpoint.Fixed(32) // small fixed-point overshoot (~0.0005)
	for iter := 0; iter < 2; iter++ {
		for _, o := range l.obstacles {
			delta := pos.Sub(o.Center)
			dist := delta.Length()
			minDist := playerRadius.Add(o.Radius)
			if dist >= minDist {
				continue
			}
			var normal fixedpoint.Vec2
			if dist == 0 {
				normal = fixedpoint.Vec2{X: fixedpoint.One}
			} else {
				normal = delta.Scale(fixedpoint.One.Div(dist))
			}
			push := minDist.Sub(dist).Add(epsilon)
			pos = pos.Add(normal.Scale(push))
		}
	}
	return pos
}
