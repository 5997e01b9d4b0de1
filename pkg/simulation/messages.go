package simulation

import (
	"fmt"
	"math"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/telemetry"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// The world actor speaks well-known protobuf types:
//
//	*durationpb.Duration  advance the flock by that elapsed time
//	*structpb.Struct      update some or all of the steering weights
//	*emptypb.Empty        respawn the flock with the same population

// Weight keys accepted in a weights update.
const (
	WeightSeparation = "separation"
	WeightAlignment  = "alignment"
	WeightCohesion   = "cohesion"
	WeightUnblock    = "unblock"
)

// NewTick builds the message advancing the world by dt.
func NewTick(dt time.Duration) *durationpb.Duration {
	return durationpb.New(dt)
}

// NewWeightsUpdate builds the message replacing all four steering weights.
func NewWeightsUpdate(w behavior.Weights) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			WeightSeparation: structpb.NewNumberValue(float64(w.Separation)),
			WeightAlignment:  structpb.NewNumberValue(float64(w.Alignment)),
			WeightCohesion:   structpb.NewNumberValue(float64(w.Cohesion)),
			WeightUnblock:    structpb.NewNumberValue(float64(w.Unblock)),
		},
	}
}

// NewRespawn builds the message scattering the flock again.
func NewRespawn() *emptypb.Empty {
	return &emptypb.Empty{}
}

// applyWeights merges the fields of msg into w. Keys that are absent keep their value.
func applyWeights(w behavior.Weights, msg *structpb.Struct) (behavior.Weights, error) {
	for key, value := range msg.GetFields() {
		n, ok := value.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return w, fmt.Errorf("weight %q: expected a number, got %T", key, value.GetKind())
		}
		if math.IsNaN(n.NumberValue) || math.IsInf(n.NumberValue, 0) {
			return w, fmt.Errorf("weight %q: %v is not finite", key, n.NumberValue)
		}
		v := float32(n.NumberValue)
		switch key {
		case WeightSeparation:
			w.Separation = v
		case WeightAlignment:
			w.Alignment = v
		case WeightCohesion:
			w.Cohesion = v
		case WeightUnblock:
			w.Unblock = v
		default:
			return w, fmt.Errorf("unknown weight %q", key)
		}
	}
	return w, nil
}

// Snapshot is the read-only view of one tick pushed to the renderers.
// Every snapshot owns its slices; receivers may keep it.
type Snapshot struct {
	FlockID    int
	Tick       uint64
	Positions  []float32 // x0, y0, x1, y1, ...
	Velocities []float32 // vx0, vy0, vx1, vy1, ...

	// Grid overlay
	Cols, Rows int
	CellSize   float32
	Occupancy  []int // row major

	Weights      behavior.Weights
	Stats        telemetry.FlockStats
	TickDuration time.Duration
	TicksPerSec  float64
}

// Len returns the number of boids in the snapshot.
func (s *Snapshot) Len() int { return len(s.Positions) / 2 }
