// Package viewer renders a running flock with ebiten and lets the user tune it live.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/ui"
	"github.com/tochemey/goakt/v3/log"
)

var whiteImage = ebiten.NewImage(3, 3)

// A single DrawTriangles call takes uint16 indices.
const maxBoidsPerBatch = math.MaxUint16 / 3

type Game struct {
	ctx    context.Context
	world  *simulation.World
	cfg    *simulation.Config
	logger log.Logger

	lastState *simulation.Snapshot
	lastFrame time.Time

	// UI Controls
	panel       *ui.Panel
	showPanel   bool
	separation  *ui.Slider
	alignment   *ui.Slider
	cohesion    *ui.Slider
	unblock     *ui.Slider
	showGrid    *ui.Checkbox
	showHeading *ui.Checkbox
	respawn     bool

	// Reused draw buffers
	vertices []ebiten.Vertex
	indices  []uint16

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64
}

// NewGame wires the UI to an already spawned world.
func NewGame(ctx context.Context, world *simulation.World, cfg *simulation.Config, logger log.Logger) *Game {
	w := cfg.Flock.Behavior.Weights
	g := &Game{
		ctx:       ctx,
		world:     world,
		cfg:       cfg,
		logger:    logger,
		lastState: &simulation.Snapshot{}, // Avoid nil pointer
		showPanel: true,
	}

	panel := ui.NewPanel(10, 10, 240, math.Min(float64(cfg.Flock.WorldHeight)-20, 330), "Boids (H to hide)")

	panel.AddSection("Steering Weights")
	g.separation = panel.AddSlider("Separation", 0, 5, float64(w.Separation))
	g.alignment = panel.AddSlider("Alignment", 0, 5, float64(w.Alignment))
	g.cohesion = panel.AddSlider("Cohesion", 0, 5, float64(w.Cohesion))
	g.unblock = panel.AddSlider("View Unblock", 0, 3, float64(w.Unblock))

	panel.AddSection("Visualization")
	g.showGrid = panel.AddCheckbox("Grid occupancy (G)", cfg.ShowGrid)
	g.showHeading = panel.AddCheckbox("Color by heading", false)

	panel.AddSection("Flock")
	panel.AddButton("Respawn (R)", func() { g.respawn = true })

	g.panel = panel
	return g
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	// 1. Keyboard and UI Panel
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showPanel = !g.showPanel
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		g.showGrid.Value = !g.showGrid.Value
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.respawn = true
	}
	if g.showPanel {
		g.panel.Update(ui.ReadInput())
	}

	// 2. Forward the user's edits to the world
	if g.weightsChanged() {
		if err := g.world.SetWeights(g.ctx, g.weights()); err != nil {
			g.logger.Errorf("failed to send weights: %v", err)
		}
	}
	if g.respawn {
		g.respawn = false
		if err := g.world.Respawn(g.ctx); err != nil {
			g.logger.Errorf("failed to respawn: %v", err)
		}
	}

	// 3. Trigger Simulation Step with the measured frame time
	now := time.Now()
	dt := time.Second / 60
	if !g.lastFrame.IsZero() {
		dt = now.Sub(g.lastFrame)
	}
	g.lastFrame = now
	if err := g.world.Tick(g.ctx, dt); err != nil {
		return fmt.Errorf("failed to tick world: %w", err)
	}

	// 4. Retrieve Latest State (Non-blocking)
	g.lastState = g.world.Latest()
	return nil
}

func (g *Game) weightsChanged() bool {
	changed := false
	for _, s := range []*ui.Slider{g.separation, g.alignment, g.cohesion, g.unblock} {
		if s.Changed() {
			changed = true
		}
	}
	return changed
}

func (g *Game) weights() behavior.Weights {
	return behavior.Weights{
		Separation: float32(g.separation.Value),
		Alignment:  float32(g.alignment.Value),
		Cohesion:   float32(g.cohesion.Value),
		Unblock:    float32(g.unblock.Value),
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(color.RGBA{R: 10, G: 10, B: 30, A: 255})

	// 1. Grid overlay
	if g.showGrid.Value {
		g.drawGrid(screen)
	}

	// 2. All boids from the last known snapshot
	g.drawBoids(screen)

	// 3. UI Panel
	if g.showPanel {
		g.panel.Draw(screen)
	}

	// 4. Performance stats on the right side
	s := g.lastState
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\nBoids: %d\nTick: %d\n\nStep:   %.2fms\nUpdate: %.2fms\nDraw:   %.2fms\n\nSpeed: %.2f\nCandidates: %.1f",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		s.Len(),
		s.Tick,
		float64(s.TickDuration.Microseconds())/1000.0,
		g.updateAvg,
		g.drawAvg,
		s.Stats.MeanSpeed,
		s.Stats.MeanCandidates)
	ebitenutil.DebugPrintAt(screen, msg, int(g.cfg.Flock.WorldWidth)-150, 10)
}

// drawGrid shades each cell by how many boids it held during the last tick.
func (g *Game) drawGrid(screen *ebiten.Image) {
	s := g.lastState
	if s.Cols == 0 || len(s.Occupancy) != s.Cols*s.Rows {
		return
	}
	cs := s.CellSize
	for row := 0; row < s.Rows; row++ {
		for col := 0; col < s.Cols; col++ {
			n := s.Occupancy[row*s.Cols+col]
			if n == 0 {
				continue
			}
			alpha := uint8(min(20+n*12, 160))
			vector.FillRect(screen, float32(col)*cs, float32(row)*cs, cs, cs,
				color.RGBA{R: 0, G: alpha / 2, B: alpha, A: alpha}, false)
		}
	}
	lineColor := color.RGBA{R: 40, G: 40, B: 70, A: 255}
	w, h := g.cfg.Flock.WorldWidth, g.cfg.Flock.WorldHeight
	for col := 0; col <= s.Cols; col++ {
		x := float32(col) * cs
		vector.StrokeLine(screen, x, 0, x, h, 1, lineColor, false)
	}
	for row := 0; row <= s.Rows; row++ {
		y := float32(row) * cs
		vector.StrokeLine(screen, 0, y, w, y, 1, lineColor, false)
	}
}

// drawBoids draws every boid as a triangle pointing along its velocity, batched.
func (g *Game) drawBoids(screen *ebiten.Image) {
	s := g.lastState
	n := s.Len()
	for lo := 0; lo < n; lo += maxBoidsPerBatch {
		hi := min(lo+maxBoidsPerBatch, n)
		g.vertices = g.vertices[:0]
		g.indices = g.indices[:0]
		for i := lo; i < hi; i++ {
			x, y := s.Positions[2*i], s.Positions[2*i+1]
			vx, vy := s.Velocities[2*i], s.Velocities[2*i+1]
			angle := math.Atan2(float64(vy), float64(vx))

			r, gr, b := float32(0.4), float32(0.8), float32(1.0)
			if g.showHeading.Value {
				r, gr, b = headingColor(angle)
			}

			base := uint16(len(g.vertices))
			g.vertices = append(g.vertices,
				vertex(x, y, angle, 6, r, gr, b),
				vertex(x, y, angle+2.5, 5, r, gr, b),
				vertex(x, y, angle-2.5, 5, r, gr, b),
			)
			g.indices = append(g.indices, base, base+1, base+2)
		}
		screen.DrawTriangles(g.vertices, g.indices, whiteImage, &ebiten.DrawTrianglesOptions{})
	}
}

func vertex(x, y float32, angle, radius float64, r, g, b float32) ebiten.Vertex {
	return ebiten.Vertex{
		DstX:   x + float32(math.Cos(angle)*radius),
		DstY:   y + float32(math.Sin(angle)*radius),
		SrcX:   1,
		SrcY:   1,
		ColorR: r,
		ColorG: g,
		ColorB: b,
		ColorA: 1,
	}
}

// headingColor maps a direction onto the hue circle.
func headingColor(angle float64) (r, g, b float32) {
	h := (angle + math.Pi) / (2 * math.Pi) * 6
	x := float32(1 - math.Abs(math.Mod(h, 2)-1))
	switch int(h) % 6 {
	case 0:
		return 1, x, 0
	case 1:
		return x, 1, 0
	case 2:
		return 0, 1, x
	case 3:
		return 0, x, 1
	case 4:
		return x, 0, 1
	default:
		return 1, 0, x
	}
}

func (g *Game) Layout(w, h int) (int, int) {
	return int(g.cfg.Flock.WorldWidth), int(g.cfg.Flock.WorldHeight)
}

func init() {
	whiteImage.Fill(color.White)
}
