package behavior

import (
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/geometry"
)

// Boid represents a single entity in the flock.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// The name "boid" corresponds to a shortened version of "bird-oid object".
// https://en.wikipedia.org/wiki/Boids
//
// ID is a stable handle (the index in its flock). Steering rules exclude "self"
// by comparing IDs, so two boids that happen to share the same state are still
// distinct neighbors.
type Boid struct {
	ID           int
	Position     geometry.Vector2D
	Velocity     geometry.Vector2D
	Acceleration geometry.Vector2D // per-tick accumulator, zero between ticks
	MaxSpeed     float32
	MaxForce     float32
}

// New creates a boid with a uniformly random position inside width × height
// and random velocity components in [-velocityRange, velocityRange).
func New(id int, rng *rand.Rand, width, height, velocityRange, maxSpeed, maxForce float32) Boid {
	return Boid{
		ID: id,
		Position: geometry.Vector2D{
			X: rng.Float32() * width,
			Y: rng.Float32() * height,
		},
		Velocity: geometry.Vector2D{
			X: (rng.Float32()*2 - 1) * velocityRange,
			Y: (rng.Float32()*2 - 1) * velocityRange,
		},
		MaxSpeed: maxSpeed,
		MaxForce: maxForce,
	}
}

// Flock computes the four steering forces against neighbors, weights them and
// accumulates them into the acceleration. It reads only b's position and velocity,
// which must still be the tick start values.
func (b *Boid) Flock(neighbors []*Boid, s Settings) {
	b.ApplyForce(b.Separate(neighbors, s).Mul(s.Weights.Separation))
	b.ApplyForce(b.Align(neighbors, s).Mul(s.Weights.Alignment))
	b.ApplyForce(b.Cohere(neighbors, s).Mul(s.Weights.Cohesion))
	b.ApplyForce(b.ViewUnblock(neighbors, s).Mul(s.Weights.Unblock))
}

// ApplyForce adds force into the acceleration accumulator. The sum itself is not clamped.
func (b *Boid) ApplyForce(force geometry.Vector2D) {
	b.Acceleration = b.Acceleration.Add(force)
}

// Integrate advances the boid by timeScale reference steps (elapsed seconds × 60):
// velocity += acceleration × timeScale, clamped to MaxSpeed, position += velocity × timeScale,
// then toroidal wraparound on each axis and the acceleration is reset.
// A zero timeScale leaves position and velocity untouched.
// The step is computed in float64 so any finite timeScale keeps the state finite.
func (b *Boid) Integrate(timeScale, width, height float32) {
	if timeScale > 0 {
		ts := float64(timeScale)
		vx := float64(b.Velocity.X) + float64(b.Acceleration.X)*ts
		vy := float64(b.Velocity.Y) + float64(b.Acceleration.Y)*ts
		if l := math.Hypot(vx, vy); l > float64(b.MaxSpeed) {
			vx *= float64(b.MaxSpeed) / l
			vy *= float64(b.MaxSpeed) / l
		}
		b.Velocity = geometry.Vector2D{X: float32(vx), Y: float32(vy)}
		b.Position = geometry.Vector2D{
			X: wrapAxis(float64(b.Position.X)+float64(b.Velocity.X)*ts, width),
			Y: wrapAxis(float64(b.Position.Y)+float64(b.Velocity.Y)*ts, height),
		}
	}
	b.Acceleration = geometry.Zero
}

// wrapAxis folds p into [0, limit).
func wrapAxis(p float64, limit float32) float32 {
	l := float64(limit)
	if p < 0 || p >= l {
		p = math.Mod(p, l)
		if p < 0 {
			p += l
		}
	}
	// values just below limit can round up to it in float32
	if f := float32(p); f < limit {
		return f
	}
	return 0
}

// Heading returns the unit direction of travel, Zero when the boid is not moving.
func (b *Boid) Heading() geometry.Vector2D {
	return b.Velocity.Normalize()
}
