package behavior

import (
	"math"

	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/geometry"
)

// The steering rules below never mutate the boid. Each one returns a force bounded by
// MaxForce, and every degenerate case (no neighbor in range, zero length direction,
// no heading) resolves to geometry.Zero.
//
//	steer = normalize(desired) × MaxSpeed − velocity, clamped to MaxForce

// Seek returns the steering force toward target.
// A target coincident with the boid has no direction and yields Zero.
func (b *Boid) Seek(target geometry.Vector2D) geometry.Vector2D {
	return b.steerTowards(target.Sub(b.Position))
}

// Separate steers away from neighbors closer than SeparationRadius.
// Each contribution is the unit vector away from the neighbor divided by the distance,
// so closer neighbors push harder.
func (b *Boid) Separate(neighbors []*Boid, s Settings) geometry.Vector2D {
	var sum geometry.Vector2D
	count := 0

	for _, other := range neighbors {
		if other.ID == b.ID {
			continue
		}
		away := b.Position.Sub(other.Position)
		distance := away.Len()
		if distance <= geometry.Epsilon || distance >= s.SeparationRadius {
			continue
		}
		sum = sum.Add(away.Normalize().Mul(1 / distance))
		count++
	}

	if count == 0 {
		return geometry.Zero
	}
	return b.steerTowards(sum.Mul(1 / float32(count)))
}

// Align steers toward the average velocity of the neighbors within AlignmentRadius
// that are also inside the forward cone of half-angle AlignmentViewAngle.
// A boid at rest measures every bearing as 0, so all neighbors in range are in view.
func (b *Boid) Align(neighbors []*Boid, s Settings) geometry.Vector2D {
	var sum geometry.Vector2D
	count := 0

	for _, other := range neighbors {
		if other.ID == b.ID {
			continue
		}
		if _, _, ok := b.inView(other, s.AlignmentRadius, s.AlignmentViewAngle); !ok {
			continue
		}
		sum = sum.Add(other.Velocity)
		count++
	}

	if count == 0 {
		return geometry.Zero
	}
	return b.steerTowards(sum.Mul(1 / float32(count)))
}

// Cohere seeks the average position of the neighbors within CohesionRadius. No view cone applies.
func (b *Boid) Cohere(neighbors []*Boid, s Settings) geometry.Vector2D {
	var sum geometry.Vector2D
	count := 0

	for _, other := range neighbors {
		if other.ID == b.ID {
			continue
		}
		if b.Position.DistanceTo(other.Position) >= s.CohesionRadius {
			continue
		}
		sum = sum.Add(other.Position)
		count++
	}

	if count == 0 {
		return geometry.Zero
	}
	return b.Seek(sum.Mul(1 / float32(count)))
}

// ViewUnblock sidesteps obstructions straight ahead.
// Every neighbor inside the narrow forward cone and UnblockRadius adds
// (1 − angle/UnblockViewAngle) × (1 − distance/UnblockRadius) to the blocking severity.
// Below UnblockThreshold nothing happens. Otherwise the boid probes a point UnblockLookAhead
// away on its left and on its right, counts the neighbors crowding each probe, and pushes
// toward the emptier side (right on ties) with strength
// UnblockStrength × min(2 × severity, 1) × MaxForce.
func (b *Boid) ViewUnblock(neighbors []*Boid, s Settings) geometry.Vector2D {
	// Without a heading there is neither a "straight ahead" nor a lateral direction.
	if b.Velocity.IsZero() {
		return geometry.Zero
	}

	var severity float32
	for _, other := range neighbors {
		if other.ID == b.ID {
			continue
		}
		offset, distance, ok := b.inView(other, s.UnblockRadius, s.UnblockViewAngle)
		if !ok {
			continue
		}
		angle := abs(b.Velocity.AngleTo(offset))
		angleFactor := 1 - angle/s.UnblockViewAngle
		distanceFactor := 1 - distance/s.UnblockRadius
		severity += angleFactor * distanceFactor
	}

	if severity < s.UnblockThreshold {
		return geometry.Zero
	}

	heading := b.Velocity.Normalize()
	right := heading.PerpRight()
	left := heading.PerpLeft()
	rightProbe := b.Position.Add(right.Mul(s.UnblockLookAhead))
	leftProbe := b.Position.Add(left.Mul(s.UnblockLookAhead))

	rightCrowding, leftCrowding := 0, 0
	for _, other := range neighbors {
		if other.ID == b.ID {
			continue
		}
		if rightProbe.DistanceTo(other.Position) < s.UnblockCrowdRadius {
			rightCrowding++
		}
		if leftProbe.DistanceTo(other.Position) < s.UnblockCrowdRadius {
			leftCrowding++
		}
	}

	chosen := right
	if leftCrowding < rightCrowding {
		chosen = left
	}

	severityMultiplier := min(severity*2, 1)
	return chosen.Mul(s.UnblockStrength * severityMultiplier * b.MaxForce)
}

// inView reports whether other is strictly within radius and strictly within halfAngle of
// the boid's heading. A neighbor sitting on the boid has no bearing and is never in view.
func (b *Boid) inView(other *Boid, radius, halfAngle float32) (geometry.Vector2D, float32, bool) {
	offset := other.Position.Sub(b.Position)
	distance := offset.Len()
	if distance <= geometry.Epsilon || distance >= radius {
		return offset, distance, false
	}
	if abs(b.Velocity.AngleTo(offset)) >= halfAngle {
		return offset, distance, false
	}
	return offset, distance, true
}

// steerTowards turns a desired direction into a bounded steering force.
func (b *Boid) steerTowards(desired geometry.Vector2D) geometry.Vector2D {
	direction := desired.Normalize()
	if direction == geometry.Zero {
		return geometry.Zero
	}
	return direction.Mul(b.MaxSpeed).Sub(b.Velocity).ClampLen(b.MaxForce)
}

func abs(f float32) float32 {
	return float32(math.Abs(float64(f)))
}
