// Package grid provides the uniform spatial partition used for neighbor lookups.
package grid

import (
	"math"

	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/geometry"
)

// Grid buckets agent indices into fixed-size square cells covering a bounded world.
// It is a transient structure: Build discards every previous membership, so a Grid is
// rebuilt once per tick from that tick's snapshot and only read afterwards.
// Concurrent Query calls are safe once Build has returned.
type Grid struct {
	cellSize float32
	cols     int
	rows     int
	cells    [][]int // row-major, cells[row*cols+col] holds agent indices
}

// New creates a grid covering width × height with square cells of cellSize.
// A world that is not a multiple of cellSize gets one partial cell at the far edge.
func New(width, height, cellSize float32) *Grid {
	cols := int(math.Ceil(float64(width / cellSize)))
	rows := int(math.Ceil(float64(height / cellSize)))
	cols = max(cols, 1)
	rows = max(rows, 1)

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 8)
	}

	return &Grid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// CellSize returns the side of one cell in world units.
func (g *Grid) CellSize() float32 { return g.cellSize }

// Build replaces the grid content with positions, index i landing in the cell of positions[i].
func (g *Grid) Build(positions []geometry.Vector2D) {
	// Reset slices to length 0 but keep capacity, so steady state ticks do not allocate.
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}

	for i, p := range positions {
		col, row := g.Cell(p)
		idx := row*g.cols + col
		g.cells[idx] = append(g.cells[idx], i)
	}
}

// Cell returns the column and row of position, clamped into the grid.
// Positions on or past the world edge land in the border cells instead of indexing out of range.
func (g *Grid) Cell(p geometry.Vector2D) (col, row int) {
	col = clampIndex(p.X/g.cellSize, g.cols)
	row = clampIndex(p.Y/g.cellSize, g.rows)
	return col, row
}

// Query appends to dst the indices stored in the cell containing p and its 8 neighbors.
// The 3×3 block is clamped at the world edges and does not wrap around.
// Reuse dst across calls to avoid allocations.
func (g *Grid) Query(p geometry.Vector2D, dst []int) []int {
	col, row := g.Cell(p)

	minCol, maxCol := max(col-1, 0), min(col+1, g.cols-1)
	minRow, maxRow := max(row-1, 0), min(row+1, g.rows-1)

	for r := minRow; r <= maxRow; r++ {
		base := r * g.cols
		for c := minCol; c <= maxCol; c++ {
			dst = append(dst, g.cells[base+c]...)
		}
	}
	return dst
}

// Occupancy returns how many indices each cell holds, row-major.
func (g *Grid) Occupancy() []int {
	counts := make([]int, len(g.cells))
	for i, c := range g.cells {
		counts[i] = len(c)
	}
	return counts
}

func clampIndex(f float32, n int) int {
	// NaN compares false everywhere, send it to cell 0 rather than to an undefined int.
	if !(f >= 0) {
		return 0
	}
	i := int(math.Floor(float64(f)))
	if i >= n {
		return n - 1
	}
	return i
}
