package flock

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/geometry"
)

const tolerance = 1e-4

func testConfig(population int) Config {
	cfg := DefaultConfig()
	cfg.Population = population
	cfg.Seed = 42
	return cfg
}

func mustNew(t testing.TB, cfg Config, opts ...Option) *Flock {
	t.Helper()
	f, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty flock", func(c *Config) { c.Population = 0 }, false},
		{"zero width", func(c *Config) { c.WorldWidth = 0 }, true},
		{"negative height", func(c *Config) { c.WorldHeight = -1 }, true},
		{"NaN cell size", func(c *Config) { c.CellSize = float32(math.NaN()) }, true},
		{"infinite max speed", func(c *Config) { c.MaxSpeed = float32(math.Inf(1)) }, true},
		{"zero max force", func(c *Config) { c.MaxForce = 0 }, true},
		{"negative population", func(c *Config) { c.Population = -3 }, true},
		{"negative velocity range", func(c *Config) { c.VelocityRange = -1 }, true},
		{"negative workers", func(c *Config) { c.Workers = -1 }, true},
		{"zero view angle", func(c *Config) { c.Behavior.UnblockViewAngle = 0 }, true},
		{"zero unblock radius", func(c *Config) { c.Behavior.UnblockRadius = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}

	if _, err := New(Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New(zero Config) error = %v; want ErrInvalidConfig", err)
	}
}

func TestNew_Spawn(t *testing.T) {
	cfg := testConfig(600)
	f := mustNew(t, cfg)

	if f.Len() != 600 {
		t.Fatalf("Len() = %d; want 600", f.Len())
	}
	if f.ID() != 1 {
		t.Errorf("ID() = %d; want 1", f.ID())
	}
	if f.Ticks() != 0 {
		t.Errorf("Ticks() = %d; want 0", f.Ticks())
	}
	for i, b := range f.Boids() {
		if b.ID != i {
			t.Fatalf("boid %d carries ID %d", i, b.ID)
		}
		if b.MaxSpeed != cfg.MaxSpeed || b.MaxForce != cfg.MaxForce {
			t.Fatalf("boid %d tuning = (%v, %v)", i, b.MaxSpeed, b.MaxForce)
		}
		if b.Position.X < 0 || b.Position.X >= cfg.WorldWidth || b.Position.Y < 0 || b.Position.Y >= cfg.WorldHeight {
			t.Fatalf("boid %d spawned outside the world at %v", i, b.Position)
		}
		if abs(b.Velocity.X) > cfg.VelocityRange || abs(b.Velocity.Y) > cfg.VelocityRange {
			t.Fatalf("boid %d spawned with velocity %v", i, b.Velocity)
		}
	}
}

func TestNew_SeedIsReproducible(t *testing.T) {
	a := mustNew(t, testConfig(50))
	b := mustNew(t, testConfig(50))
	if !slices.Equal(a.Positions(), b.Positions()) {
		t.Error("two flocks built from the same seed spawned differently")
	}

	c := mustNew(t, testConfig(50), WithRand(rand.New(rand.NewPCG(1, 1))))
	if slices.Equal(a.Positions(), c.Positions()) {
		t.Error("WithRand did not override the configured seed")
	}
}

// Speed and bounds hold for every boid after every tick, whatever the frame time.
func TestAdvance_Invariants(t *testing.T) {
	cfg := testConfig(400)
	f := mustNew(t, cfg)
	frames := []float32{1.0 / 60, 1.0 / 30, 0.05, 0.099, 1.0 / 144}

	for tick := 0; tick < 300; tick++ {
		f.Advance(frames[tick%len(frames)])
		for _, b := range f.Boids() {
			if speed := b.Velocity.Len(); speed > cfg.MaxSpeed+tolerance {
				t.Fatalf("tick %d: boid %d speed %v exceeds %v", tick, b.ID, speed, cfg.MaxSpeed)
			}
			p := b.Position
			if p.X < 0 || p.X >= cfg.WorldWidth || p.Y < 0 || p.Y >= cfg.WorldHeight {
				t.Fatalf("tick %d: boid %d out of bounds at %v", tick, b.ID, p)
			}
			if !p.IsFinite() || !b.Velocity.IsFinite() {
				t.Fatalf("tick %d: boid %d has non finite state %+v", tick, b.ID, b)
			}
			if b.Acceleration != geometry.Zero {
				t.Fatalf("tick %d: boid %d acceleration leaked across ticks: %v", tick, b.ID, b.Acceleration)
			}
		}
	}
	if f.Ticks() != 300 {
		t.Errorf("Ticks() = %d; want 300", f.Ticks())
	}
}

func TestPositions_Idempotent(t *testing.T) {
	f := mustNew(t, testConfig(100))
	f.Advance(1.0 / 60)

	first := f.Positions()
	second := f.Positions()
	if len(first) != 200 {
		t.Fatalf("len(Positions()) = %d; want 200", len(first))
	}
	if !slices.Equal(first, second) {
		t.Error("Positions() changed between two reads without Advance")
	}

	boids := f.Boids()
	for i, b := range boids {
		if first[2*i] != b.Position.X || first[2*i+1] != b.Position.Y {
			t.Fatalf("Positions()[%d] = (%v,%v); want %v", i, first[2*i], first[2*i+1], b.Position)
		}
	}

	buf := make([]float32, 0, 4)
	into := f.PositionsInto(buf)
	if !slices.Equal(first, into) {
		t.Error("PositionsInto disagrees with Positions")
	}
	if vel := f.Velocities(); len(vel) != 200 || vel[0] != boids[0].Velocity.X || vel[1] != boids[0].Velocity.Y {
		t.Errorf("Velocities() mismatch: %v vs %v", vel[:2], boids[0].Velocity)
	}
}

func TestAdvance_SingleBoidAtRestStaysPut(t *testing.T) {
	cfg := testConfig(1)
	cfg.VelocityRange = 0
	f := mustNew(t, cfg)
	start := f.Positions()

	for _, dt := range []float32{1.0 / 60, 0.05, 0.0001} {
		f.Advance(dt)
		if got := f.Positions(); !slices.Equal(got, start) {
			t.Fatalf("lone boid moved after Advance(%v): %v -> %v", dt, start, got)
		}
	}
	if counts := f.CandidateCounts(nil); len(counts) != 1 || counts[0] != 1 {
		t.Errorf("CandidateCounts = %v; want [1]", counts)
	}
}

func TestAdvance_ZeroOrInvalidDeltaFreezesMotion(t *testing.T) {
	for _, dt := range []float32{0, -0.016, float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1))} {
		f := mustNew(t, testConfig(200))
		f.Advance(1.0 / 60) // let forces build up first
		before := f.Boids()

		f.Advance(dt)
		after := f.Boids()
		for i := range before {
			if before[i].Position != after[i].Position || before[i].Velocity != after[i].Velocity {
				t.Fatalf("Advance(%v) moved boid %d: %+v -> %+v", dt, i, before[i], after[i])
			}
		}
		if f.Ticks() != 2 {
			t.Errorf("Advance(%v) should still count as a tick, Ticks() = %d", dt, f.Ticks())
		}
	}
}

func TestAdvance_HugeDeltaStaysFinite(t *testing.T) {
	cfg := testConfig(50)
	for _, dt := range []float32{1e6, 1e36, 1e37, math.MaxFloat32} {
		f := mustNew(t, cfg)
		f.Advance(1.0 / 60)
		f.Advance(dt)
		for _, b := range f.Boids() {
			if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
				t.Fatalf("Advance(%v): boid %d has non finite state pos=%v vel=%v", dt, b.ID, b.Position, b.Velocity)
			}
			p := b.Position
			if p.X < 0 || p.X >= cfg.WorldWidth || p.Y < 0 || p.Y >= cfg.WorldHeight {
				t.Fatalf("Advance(%v): boid %d left the world at %v", dt, b.ID, p)
			}
			if speed := b.Velocity.Len(); speed > cfg.MaxSpeed+tolerance {
				t.Fatalf("Advance(%v): boid %d speed %v exceeds %v", dt, b.ID, speed, cfg.MaxSpeed)
			}
		}
		// The flock keeps working afterwards.
		f.Advance(1.0 / 60)
		for _, b := range f.Boids() {
			if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
				t.Fatalf("after Advance(%v): boid %d has non finite state", dt, b.ID)
			}
		}
	}
}

func TestAdvance_TwoCloseBoidsSeparate(t *testing.T) {
	cfg := testConfig(2)
	f := mustNew(t, cfg)
	f.boids[0].Position = geometry.Vector2D{X: 600, Y: 400}
	f.boids[0].Velocity = geometry.Zero
	f.boids[1].Position = geometry.Vector2D{X: 605, Y: 400}
	f.boids[1].Velocity = geometry.Zero

	f.Advance(1.0 / 60)
	b := f.Boids()

	if b[0].Velocity.X >= 0 || b[1].Velocity.X <= 0 {
		t.Fatalf("boids did not move apart: v0=%v v1=%v", b[0].Velocity, b[1].Velocity)
	}
	if abs(b[0].Velocity.Y) > tolerance || abs(b[1].Velocity.Y) > tolerance {
		t.Errorf("separation left the X axis: v0=%v v1=%v", b[0].Velocity, b[1].Velocity)
	}
	// Weighted separation plus cohesion pulling back, both bounded by MaxForce.
	w := cfg.Behavior.Weights
	bound := (w.Separation + w.Cohesion) * cfg.MaxForce
	if b[0].Velocity.Len() > bound+tolerance {
		t.Errorf("speed after one tick %v exceeds the weighted force bound %v", b[0].Velocity.Len(), bound)
	}
	if b[1].Position.X-b[0].Position.X <= 5 {
		t.Errorf("distance did not grow: %v -> %v", b[0].Position, b[1].Position)
	}
}

// The boid processed first must not change what the second one sees.
func TestAdvance_ReadsTickStartSnapshot(t *testing.T) {
	cfg := testConfig(2)
	cfg.Behavior.Weights = behavior.Weights{Separation: 1}
	f := mustNew(t, cfg)
	f.boids[0].Position = geometry.Vector2D{X: 600, Y: 400}
	f.boids[0].Velocity = geometry.Zero
	// Boid 0 moves 0.9 away in one tick, which would push boid 1 out of its 19 unit radius.
	f.boids[1].Position = geometry.Vector2D{X: 618.5, Y: 400}
	f.boids[1].Velocity = geometry.Zero

	f.Advance(1.0 / 60)
	b := f.Boids()

	// With a snapshot both boids see the same 18.5 unit gap and react symmetrically.
	if !b[0].Velocity.Eq(b[1].Velocity.Mul(-1), tolerance) {
		t.Errorf("asymmetric response v0=%v v1=%v, a partially updated state leaked into the tick", b[0].Velocity, b[1].Velocity)
	}
}

func TestAdvance_ParallelMatchesSerial(t *testing.T) {
	serialCfg := testConfig(1000)
	parallelCfg := serialCfg
	parallelCfg.Workers = 4

	serial := mustNew(t, serialCfg)
	parallel := mustNew(t, parallelCfg)

	for tick := 0; tick < 50; tick++ {
		serial.Advance(1.0 / 60)
		parallel.Advance(1.0 / 60)
	}
	if !slices.Equal(serial.Positions(), parallel.Positions()) {
		t.Error("parallel Advance diverged from the serial run")
	}
	if !slices.Equal(serial.Velocities(), parallel.Velocities()) {
		t.Error("parallel velocities diverged from the serial run")
	}
}

func TestSetWeights(t *testing.T) {
	f := mustNew(t, testConfig(10))
	w := behavior.Weights{Separation: 1, Alignment: 0, Cohesion: 3, Unblock: 0}
	f.SetWeights(w)
	if got := f.Settings().Weights; got != w {
		t.Errorf("Settings().Weights = %+v; want %+v", got, w)
	}
	if f.Settings().SeparationRadius != DefaultConfig().Behavior.SeparationRadius {
		t.Error("SetWeights touched the radii")
	}
}

func TestRespawn(t *testing.T) {
	f := mustNew(t, testConfig(30))
	before := f.Positions()
	f.Advance(1.0 / 60)
	f.Respawn()

	if f.Ticks() != 0 {
		t.Errorf("Ticks() after Respawn = %d; want 0", f.Ticks())
	}
	if f.Len() != 30 {
		t.Errorf("Len() after Respawn = %d; want 30", f.Len())
	}
	if slices.Equal(before, f.Positions()) {
		t.Error("Respawn reused the initial positions")
	}
}

func TestCandidateCountsAndOccupancy(t *testing.T) {
	f := mustNew(t, testConfig(600))
	f.Advance(1.0 / 60)

	counts := f.CandidateCounts(nil)
	if len(counts) != 600 {
		t.Fatalf("len(CandidateCounts) = %d; want 600", len(counts))
	}
	for i, c := range counts {
		if c < 1 || c > 600 {
			t.Fatalf("boid %d examined %v candidates", i, c)
		}
	}

	cols, rows, cell := f.GridSize()
	if cols != 30 || rows != 20 || cell != 40 {
		t.Errorf("GridSize() = %d, %d, %v; want 30, 20, 40", cols, rows, cell)
	}
	total := 0
	for _, n := range f.Occupancy() {
		total += n
	}
	if total != 600 {
		t.Errorf("grid holds %d boids; want 600", total)
	}
}

func BenchmarkAdvance(b *testing.B) {
	for _, bc := range []struct {
		name    string
		n       int
		workers int
	}{
		{"600", 600, 1},
		{"5000", 5000, 1},
		{"5000-parallel", 5000, 4},
	} {
		b.Run(bc.name, func(b *testing.B) {
			cfg := testConfig(bc.n)
			cfg.Workers = bc.workers
			f := mustNew(b, cfg)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				f.Advance(1.0 / 60)
			}
		})
	}
}

func abs(f float32) float32 {
	return float32(math.Abs(float64(f)))
}
