// Package termview draws flock snapshots on a character terminal.
package termview

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/simulation"
)

// Heading glyphs, clockwise from east. Terminal rows grow downwards like world y.
var arrows = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

const restGlyph = '·'

var (
	styleBackground = tcell.StyleDefault.Background(tcell.ColorBlack)
	styleSingle     = styleBackground.Foreground(tcell.ColorAqua)
	styleCrowd      = styleBackground.Foreground(tcell.ColorGreen)
	styleDense      = styleBackground.Foreground(tcell.ColorYellow)
	styleStatus     = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleGrid       = styleBackground.Foreground(tcell.ColorGray)
)

// Renderer maps world coordinates onto the cells of a tcell screen.
type Renderer struct {
	screen         tcell.Screen
	worldW, worldH float32

	ShowStatus bool
	ShowGrid   bool

	counts []int // boids per terminal cell, reused between frames
}

func NewRenderer(screen tcell.Screen, worldW, worldH float32) *Renderer {
	return &Renderer{
		screen:     screen,
		worldW:     worldW,
		worldH:     worldH,
		ShowStatus: true,
	}
}

// Area returns the terminal cells available to the world, leaving the status line out.
func (r *Renderer) Area() (cols, rows int) {
	cols, rows = r.screen.Size()
	if r.ShowStatus && rows > 1 {
		rows--
	}
	return cols, rows
}

// Project returns the terminal cell holding world point (x, y), clamped to the area.
func Project(x, y, worldW, worldH float32, cols, rows int) (int, int) {
	cx := int(x / worldW * float32(cols))
	cy := int(y / worldH * float32(rows))
	return clamp(cx, cols), clamp(cy, rows)
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// Glyph picks the arrow closest to the direction of (vx, vy).
func Glyph(vx, vy float32) rune {
	if vx == 0 && vy == 0 {
		return restGlyph
	}
	angle := math.Atan2(float64(vy), float64(vx))
	sector := int(math.Round(angle/(math.Pi/4))) & 7
	return arrows[sector]
}

// Draw renders snap and shows the screen.
func (r *Renderer) Draw(snap *simulation.Snapshot) {
	r.screen.Fill(' ', styleBackground)
	cols, rows := r.Area()
	if cols <= 0 || rows <= 0 {
		r.screen.Show()
		return
	}

	if r.ShowGrid {
		r.drawGrid(snap, cols, rows)
	}

	if cap(r.counts) < cols*rows {
		r.counts = make([]int, cols*rows)
	}
	r.counts = r.counts[:cols*rows]
	clear(r.counts)

	for i := 0; i < snap.Len(); i++ {
		x, y := Project(snap.Positions[2*i], snap.Positions[2*i+1], r.worldW, r.worldH, cols, rows)
		idx := y*cols + x
		r.counts[idx]++

		style := styleSingle
		switch n := r.counts[idx]; {
		case n >= 4:
			style = styleDense
		case n >= 2:
			style = styleCrowd
		}
		r.screen.SetContent(x, y, Glyph(snap.Velocities[2*i], snap.Velocities[2*i+1]), nil, style)
	}

	if r.ShowStatus {
		r.drawStatus(snap, cols, rows)
	}
	r.screen.Show()
}

// drawGrid marks the terminal cells crossed by grid lines.
func (r *Renderer) drawGrid(snap *simulation.Snapshot, cols, rows int) {
	if snap.CellSize <= 0 {
		return
	}
	for gx := 1; gx < snap.Cols; gx++ {
		x, _ := Project(float32(gx)*snap.CellSize, 0, r.worldW, r.worldH, cols, rows)
		for y := 0; y < rows; y++ {
			r.screen.SetContent(x, y, '│', nil, styleGrid)
		}
	}
	for gy := 1; gy < snap.Rows; gy++ {
		_, y := Project(0, float32(gy)*snap.CellSize, r.worldW, r.worldH, cols, rows)
		for x := 0; x < cols; x++ {
			r.screen.SetContent(x, y, '─', nil, styleGrid)
		}
	}
}

func (r *Renderer) drawStatus(snap *simulation.Snapshot, cols, row int) {
	line := StatusLine(snap)
	x := 0
	for _, ch := range line {
		if x >= cols {
			break
		}
		r.screen.SetContent(x, row, ch, nil, styleStatus)
		x++
	}
	for ; x < cols; x++ {
		r.screen.SetContent(x, row, ' ', nil, styleStatus)
	}
}

// StatusLine summarises a snapshot on one line.
func StatusLine(snap *simulation.Snapshot) string {
	return fmt.Sprintf(" tick %d | boids %d | speed %.2f | candidates %.1f | %.0f tps | q quit  r respawn  g grid  space pause",
		snap.Tick, snap.Len(), snap.Stats.MeanSpeed, snap.Stats.MeanCandidates, snap.TicksPerSec)
}
