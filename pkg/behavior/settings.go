package behavior

// Settings controls the steering constants shared by every boid of a flock.
// Passing it into the steering methods allows changing the rules at runtime,
// the four weights being the primary tuning surface.
type Settings struct {
	// Separation
	SeparationRadius float32 `json:"separationRadius"` // personal space radius

	// Alignment, gated by a forward field of view
	AlignmentRadius    float32 `json:"alignmentRadius"`
	AlignmentViewAngle float32 `json:"alignmentViewAngle"` // half-angle of the cone, radians

	// Cohesion
	CohesionRadius float32 `json:"cohesionRadius"`

	// View unblocking (crowd avoidance)
	UnblockRadius      float32 `json:"unblockRadius"`
	UnblockViewAngle   float32 `json:"unblockViewAngle"`   // half-angle of the cone, radians
	UnblockThreshold   float32 `json:"unblockThreshold"`   // minimum blocking severity to react
	UnblockLookAhead   float32 `json:"unblockLookAhead"`   // distance of the lateral probe points
	UnblockCrowdRadius float32 `json:"unblockCrowdRadius"` // crowding radius around a probe point
	UnblockStrength    float32 `json:"unblockStrength"`    // base strength, fraction of MaxForce

	Weights Weights `json:"weights"`
}

// Weights scales each steering force before it is added to the acceleration.
type Weights struct {
	Separation float32 `json:"separation"`
	Alignment  float32 `json:"alignment"`
	Cohesion   float32 `json:"cohesion"`
	Unblock    float32 `json:"unblock"`
}

// DefaultSettings returns the empirically tuned constants.
func DefaultSettings() Settings {
	return Settings{
		SeparationRadius:   19,
		AlignmentRadius:    50,
		AlignmentViewAngle: 2.0,
		CohesionRadius:     40,
		UnblockRadius:      40,
		UnblockViewAngle:   0.3,
		UnblockThreshold:   0.3,
		UnblockLookAhead:   25,
		UnblockCrowdRadius: 20,
		UnblockStrength:    0.2,
		Weights:            DefaultWeights(),
	}
}

// DefaultWeights returns the default steering weights.
func DefaultWeights() Weights {
	return Weights{
		Separation: 2.0,
		Alignment:  1.5,
		Cohesion:   1.8,
		Unblock:    0.4,
	}
}

// InteractionRadius returns the largest distance at which any rule looks at a neighbor.
// Cell sizes close to this value keep grid candidate sets small.
func (s Settings) InteractionRadius() float32 {
	return max(s.SeparationRadius, s.AlignmentRadius, s.CohesionRadius, s.UnblockRadius,
		s.UnblockLookAhead+s.UnblockCrowdRadius)
}
