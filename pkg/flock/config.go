package flock

import (
	"errors"
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/behavior"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid flock config")

// Config holds the construction-time parameters of a Flock.
type Config struct {
	// World Dimensions
	WorldWidth  float32 `json:"worldWidth"`
	WorldHeight float32 `json:"worldHeight"`
	CellSize    float32 `json:"cellSize"`

	// Population
	ID            int     `json:"id"`
	Population    int     `json:"population"`
	VelocityRange float32 `json:"velocityRange"` // spawn velocity components in [-r, r)
	Seed          uint64  `json:"seed"`          // 0 picks a random seed

	// Physics
	MaxSpeed float32 `json:"maxSpeed"`
	MaxForce float32 `json:"maxForce"`

	// Workers splits Advance across goroutines, 0 or 1 runs serially.
	Workers int `json:"workers"`

	Behavior behavior.Settings `json:"behavior"`
}

// DefaultConfig returns the reference 1200×800 world with 600 boids.
func DefaultConfig() Config {
	return Config{
		WorldWidth:    1200,
		WorldHeight:   800,
		CellSize:      40,
		ID:            1,
		Population:    600,
		VelocityRange: 2,
		MaxSpeed:      6.0,
		MaxForce:      0.9,
		Workers:       1,
		Behavior:      behavior.DefaultSettings(),
	}
}

// Validate reports the first parameter that would make the flock unusable.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value float32
	}{
		{"worldWidth", c.WorldWidth},
		{"worldHeight", c.WorldHeight},
		{"cellSize", c.CellSize},
		{"maxSpeed", c.MaxSpeed},
		{"maxForce", c.MaxForce},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(float64(p.value), 0) {
			return fmt.Errorf("%w: %s must be a positive finite number, got %v", ErrInvalidConfig, p.name, p.value)
		}
	}
	if c.Population < 0 {
		return fmt.Errorf("%w: population must not be negative, got %d", ErrInvalidConfig, c.Population)
	}
	if c.VelocityRange < 0 {
		return fmt.Errorf("%w: velocityRange must not be negative, got %v", ErrInvalidConfig, c.VelocityRange)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Behavior.AlignmentViewAngle <= 0 || c.Behavior.UnblockViewAngle <= 0 {
		return fmt.Errorf("%w: view angles must be positive", ErrInvalidConfig)
	}
	if c.Behavior.UnblockRadius <= 0 {
		return fmt.Errorf("%w: unblockRadius must be positive", ErrInvalidConfig)
	}
	return nil
}
