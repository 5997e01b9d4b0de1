package flock

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/grid"
	"github.com/tochemey/goakt/v3/log"
	"golang.org/x/sync/errgroup"
)

const (
	// ReferenceRate is the step rate the steering constants were tuned at.
	// Advance scales elapsed seconds by it: timeScale = dt × ReferenceRate.
	ReferenceRate = 60

	// Below this population the goroutine fan-out costs more than it saves.
	parallelThreshold = 64
)

// Flock owns a fixed population of boids and advances them one tick at a time.
//
// Every tick is double buffered: the population is copied into a read-only snapshot,
// the spatial grid is rebuilt from that snapshot, and each boid then computes its
// forces against snapshot neighbors while writing only to its own slot.
// A Flock is not safe for concurrent use; serialize calls (the WorldActor does).
type Flock struct {
	id     int
	cfg    Config
	logger log.Logger
	rng    *rand.Rand

	settings behavior.Settings

	boids      []behavior.Boid // write buffer, authoritative state
	snapshot   []behavior.Boid // read buffer, frozen for the duration of a tick
	positions  []geometry.Vector2D
	candidates []int
	grid       *grid.Grid

	scratch []scratch // one per worker
	ticks   uint64
}

// scratch holds the per-worker buffers reused across ticks.
type scratch struct {
	indices   []int
	neighbors []*behavior.Boid
}

// Option configures a Flock at construction.
type Option func(*Flock)

// WithLogger sets the logger used for contract violations. Defaults to log.DiscardLogger.
func WithLogger(logger log.Logger) Option {
	return func(f *Flock) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithRand sets the random source used to spawn boids, overriding Config.Seed.
func WithRand(rng *rand.Rand) Option {
	return func(f *Flock) {
		if rng != nil {
			f.rng = rng
		}
	}
}

// New validates cfg and spawns cfg.Population boids with uniformly random positions
// inside the world and random velocity components in [-VelocityRange, VelocityRange).
func New(cfg Config, opts ...Option) (*Flock, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &Flock{
		id:       cfg.ID,
		cfg:      cfg,
		logger:   log.DiscardLogger,
		settings: cfg.Behavior,
		grid:     grid.New(cfg.WorldWidth, cfg.WorldHeight, cfg.CellSize),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		f.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}

	n := cfg.Population
	f.boids = make([]behavior.Boid, n)
	f.snapshot = make([]behavior.Boid, n)
	f.positions = make([]geometry.Vector2D, n)
	f.candidates = make([]int, n)

	workers := max(cfg.Workers, 1)
	f.scratch = make([]scratch, workers)
	for i := range f.scratch {
		f.scratch[i] = scratch{
			indices:   make([]int, 0, 64),
			neighbors: make([]*behavior.Boid, 0, 64),
		}
	}

	f.spawn()
	f.logger.Debugf("flock %d created: %d boids in %vx%v, grid %dx%d of %v",
		f.id, n, cfg.WorldWidth, cfg.WorldHeight, f.grid.Cols(), f.grid.Rows(), f.grid.CellSize())
	return f, nil
}

func (f *Flock) spawn() {
	for i := range f.boids {
		f.boids[i] = behavior.New(i, f.rng, f.cfg.WorldWidth, f.cfg.WorldHeight,
			f.cfg.VelocityRange, f.cfg.MaxSpeed, f.cfg.MaxForce)
	}
	clear(f.candidates)
}

// Respawn scatters the same number of boids again and resets the tick counter.
func (f *Flock) Respawn() {
	f.spawn()
	f.ticks = 0
}

// Advance performs exactly one tick of dt elapsed seconds.
// A negative, NaN or infinite dt is clamped to zero: forces are still evaluated
// but no boid moves.
func (f *Flock) Advance(dt float32) {
	if !(dt >= 0) || math.IsInf(float64(dt), 0) {
		f.logger.Debugf("flock %d: ignoring invalid delta time %v", f.id, dt)
		dt = 0
	}
	// Huge but finite dt must not overflow the float32 time scale.
	timeScale := float32(min(float64(dt)*ReferenceRate, math.MaxFloat32))

	// 1. Freeze the tick start state
	copy(f.snapshot, f.boids)
	for i := range f.snapshot {
		f.positions[i] = f.snapshot[i].Position
	}

	// 2. The grid must be complete before any boid writes
	f.grid.Build(f.positions)

	// 3. Steer and integrate, each boid writing only to its own slot
	settings := f.settings
	n := len(f.boids)
	workers := len(f.scratch)
	if workers <= 1 || n < parallelThreshold {
		f.step(0, n, &f.scratch[0], settings, timeScale)
	} else {
		chunk := (n + workers - 1) / workers
		var g errgroup.Group
		for w := 0; w < workers; w++ {
			lo := w * chunk
			if lo >= n {
				break
			}
			hi := min(lo+chunk, n)
			sc := &f.scratch[w]
			g.Go(func() error {
				f.step(lo, hi, sc, settings, timeScale)
				return nil
			})
		}
		_ = g.Wait() // step never fails
	}

	f.ticks++
}

// step advances boids [lo, hi) against the frozen snapshot.
func (f *Flock) step(lo, hi int, sc *scratch, s behavior.Settings, timeScale float32) {
	for i := lo; i < hi; i++ {
		b := &f.boids[i]

		sc.indices = f.grid.Query(b.Position, sc.indices[:0])
		sc.neighbors = sc.neighbors[:0]
		for _, j := range sc.indices {
			sc.neighbors = append(sc.neighbors, &f.snapshot[j])
		}
		if len(sc.neighbors) == 0 {
			sc.neighbors = append(sc.neighbors, &f.snapshot[i])
		}
		f.candidates[i] = len(sc.neighbors)

		b.Flock(sc.neighbors, s)
		b.Integrate(timeScale, f.cfg.WorldWidth, f.cfg.WorldHeight)
	}
}

// ---------------------------------------------------------------------
// Read side
// ---------------------------------------------------------------------

// Positions returns the flat sequence [x0, y0, x1, y1, ...] in stable boid order.
func (f *Flock) Positions() []float32 {
	return f.PositionsInto(make([]float32, 0, 2*len(f.boids)))
}

// PositionsInto is Positions writing into dst[:0], growing it when needed.
func (f *Flock) PositionsInto(dst []float32) []float32 {
	dst = dst[:0]
	for i := range f.boids {
		dst = append(dst, f.boids[i].Position.X, f.boids[i].Position.Y)
	}
	return dst
}

// Velocities returns the flat sequence [vx0, vy0, vx1, vy1, ...] in stable boid order.
func (f *Flock) Velocities() []float32 {
	return f.VelocitiesInto(make([]float32, 0, 2*len(f.boids)))
}

// VelocitiesInto is Velocities writing into dst[:0].
func (f *Flock) VelocitiesInto(dst []float32) []float32 {
	dst = dst[:0]
	for i := range f.boids {
		dst = append(dst, f.boids[i].Velocity.X, f.boids[i].Velocity.Y)
	}
	return dst
}

// Speeds writes the velocity magnitude of every boid into dst[:0].
func (f *Flock) Speeds(dst []float64) []float64 {
	dst = dst[:0]
	for i := range f.boids {
		dst = append(dst, float64(f.boids[i].Velocity.Len()))
	}
	return dst
}

// CandidateCounts writes how many grid candidates each boid examined during the last tick.
func (f *Flock) CandidateCounts(dst []float64) []float64 {
	dst = dst[:0]
	for _, c := range f.candidates {
		dst = append(dst, float64(c))
	}
	return dst
}

// Boids returns a copy of the population.
func (f *Flock) Boids() []behavior.Boid {
	out := make([]behavior.Boid, len(f.boids))
	copy(out, f.boids)
	return out
}

// Occupancy returns the per-cell boid count of the last tick's grid, row major.
func (f *Flock) Occupancy() []int {
	return f.grid.Occupancy()
}

// GridSize returns the grid dimensions and its cell size.
func (f *Flock) GridSize() (cols, rows int, cellSize float32) {
	return f.grid.Cols(), f.grid.Rows(), f.grid.CellSize()
}

// Settings returns the steering settings used by the next tick.
func (f *Flock) Settings() behavior.Settings { return f.settings }

// SetSettings replaces the steering settings from the next tick on.
func (f *Flock) SetSettings(s behavior.Settings) { f.settings = s }

// SetWeights replaces only the four steering weights.
func (f *Flock) SetWeights(w behavior.Weights) { f.settings.Weights = w }

// Config returns the configuration the flock was built with.
func (f *Flock) Config() Config { return f.cfg }

// Len returns the population size.
func (f *Flock) Len() int { return len(f.boids) }

// ID returns the flock identifier from the config.
func (f *Flock) ID() int { return f.id }

// Ticks returns how many ticks ran since creation or the last Respawn.
func (f *Flock) Ticks() uint64 { return f.ticks }

// String describes the flock for log lines.
func (f *Flock) String() string {
	return fmt.Sprintf("Flock(id=%d, boids=%d, ticks=%d)", f.id, len(f.boids), f.ticks)
}
