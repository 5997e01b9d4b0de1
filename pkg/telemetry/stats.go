// Package telemetry turns flock ticks into per-tick records and rolling rate figures.
package telemetry

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TickRecord is one row of the telemetry CSV.
type TickRecord struct {
	RunID   string  `csv:"run_id"`
	FlockID int     `csv:"flock"`
	Tick    uint64  `csv:"tick"`
	DeltaT  float64 `csv:"dt"`

	Population int `csv:"population"`

	// Motion
	MeanSpeed   float64 `csv:"speed_mean"`
	SpeedStdDev float64 `csv:"speed_std"`
	MaxSpeed    float64 `csv:"speed_max"`

	// Neighbor search cost
	MeanCandidates float64 `csv:"candidates_mean"`
	MaxCandidates  float64 `csv:"candidates_max"`

	TickMicros int64 `csv:"tick_us"`
}

// FlockStats summarizes the motion and neighbor search cost of one tick.
type FlockStats struct {
	MeanSpeed      float64
	SpeedStdDev    float64
	MaxSpeed       float64
	MeanCandidates float64
	MaxCandidates  float64
}

// ComputeFlockStats aggregates per-boid speeds and grid candidate counts.
// Empty inputs give zero values.
func ComputeFlockStats(speeds, candidates []float64) FlockStats {
	var s FlockStats
	if len(speeds) > 0 {
		s.MeanSpeed = stat.Mean(speeds, nil)
		s.MaxSpeed = floats.Max(speeds)
		if len(speeds) > 1 {
			s.SpeedStdDev = stat.StdDev(speeds, nil)
		}
	}
	if len(candidates) > 0 {
		s.MeanCandidates = stat.Mean(candidates, nil)
		s.MaxCandidates = floats.Max(candidates)
	}
	return s
}

// NewTickRecord fills a record for a tick that took elapsed to compute.
func NewTickRecord(runID string, flockID int, tick uint64, dt float32, population int, s FlockStats, elapsed time.Duration) TickRecord {
	return TickRecord{
		RunID:          runID,
		FlockID:        flockID,
		Tick:           tick,
		DeltaT:         float64(dt),
		Population:     population,
		MeanSpeed:      s.MeanSpeed,
		SpeedStdDev:    s.SpeedStdDev,
		MaxSpeed:       s.MaxSpeed,
		MeanCandidates: s.MeanCandidates,
		MaxCandidates:  s.MaxCandidates,
		TickMicros:     elapsed.Microseconds(),
	}
}
