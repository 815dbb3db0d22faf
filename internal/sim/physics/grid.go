package physics

import "wolfpit/internal/sim/fixedpoint"

// Grid is a uniform spatial hash used for broad-phase collision queries,
// adapted from the teacher engine's internal/game/spatial.SpatialGrid: the
// same reusable-scratch-buffer, row-major-cell-slice design, but keyed on
// fixedpoint.Fixed coordinates instead of float32 so broad phase stays
// bit-identical across platforms.
type Grid struct {
	cellSize fixedpoint.Fixed
	cols     int
	rows     int
	originX  fixedpoint.Fixed
	originY  fixedpoint.Fixed

	cells [][]uint32

	scratch []uint32
}

// NewGrid builds a grid covering [originX,originX+width) x
// [originY,originY+height) with the given cell size.
func NewGrid(originX, originY, width, height, cellSize fixedpoint.Fixed) *Grid {
	if cellSize <= 0 {
		cellSize = fixedpoint.One
	}
	cols := int(width.Div(cellSize).ToFloat()) + 1
	rows := int(height.Div(cellSize).ToFloat()) + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	g := &Grid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		originX:  originX,
		originY:  originY,
		cells:    make([][]uint32, cols*rows),
		scratch:  make([]uint32, 0, 64),
	}
	return g
}

// Clear empties every cell while keeping backing-array capacity, matching
// the teacher grid's keep-capacity reset to avoid per-frame allocation
// churn.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *Grid) cellCoord(pos fixedpoint.Vec2) (int, int) {
	cx := int(pos.X.Sub(g.originX).Div(g.cellSize).ToFloat())
	cy := int(pos.Y.Sub(g.originY).Div(g.cellSize).ToFloat())
	if cx < 0 {
		cx = 0
	}
	if cx >= g.cols {
		cx = g.cols - 1
	}
	if cy < 0 {
		cy = 0
	}
	if cy >= g.rows {
		cy = g.rows - 1
	}
	return cx, cy
}

func (g *Grid) cellIndex(cx, cy int) int {
	return cy*g.cols + cx
}

// Insert places a body id into the cell containing pos.
func (g *Grid) Insert(id uint32, pos fixedpoint.Vec2) {
	cx, cy := g.cellCoord(pos)
	idx := g.cellIndex(cx, cy)
	g.cells[idx] = append(g.cells[idx], id)
}

// QueryRadius returns candidate ids in the 3x3 cell neighborhood around
// pos. Callers must still narrow-phase filter; this is a broad-phase
// candidate set, not an exact result, and reuses an internal scratch slice
// across calls (the result is invalidated by the next QueryRadius call).
func (g *Grid) QueryRadius(pos fixedpoint.Vec2) []uint32 {
	g.scratch = g.scratch[:0]
	cx, cy := g.cellCoord(pos)
	for dy := -1; dy <= 1; dy++ {
		ny := cy + dy
		if ny < 0 || ny >= g.rows {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			nx := cx + dx
			if nx < 0 || nx >= g.cols {
				continue
			}
			g.scratch = append(g.scratch, g.cells[g.cellIndex(nx, ny)]...)
		}
	}
	return g.scratch
}

// Dimensions reports the grid's column/row count, used by tests and
// diagnostics.
func (g *Grid) Dimensions() (cols, rows int) {
	return g.cols, g.rows
}
