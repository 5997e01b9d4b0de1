package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/telemetry"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
)

// SystemName is the name of the actor system hosting the world.
const SystemName = "BoidsWorld"

// NewSystem creates and starts the actor system every front end runs the world in.
func NewSystem(ctx context.Context, logger log.Logger) (actor.ActorSystem, error) {
	system, err := actor.NewActorSystem(SystemName,
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}
	return system, nil
}

// World is the host side handle on a running WorldActor.
type World struct {
	pid       *actor.PID
	snapshots chan *Snapshot
	latest    *Snapshot
}

// SpawnWorld spawns the world actor in system. The recorder, when not nil, is owned
// by the actor from now on.
func SpawnWorld(ctx context.Context, system actor.ActorSystem, cfg *Config, recorder *telemetry.Recorder) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Buffer to avoid blocking
	snapshots := make(chan *Snapshot, cfg.SnapshotBuffer)
	pid, err := system.Spawn(ctx, "world", NewWorldActor(snapshots, cfg, recorder))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}

	return &World{
		pid:       pid,
		snapshots: snapshots,
		latest:    &Snapshot{}, // Avoid nil pointer
	}, nil
}

// Tick asks the world to advance by dt. Frames outside (0, maxDeltaTime) are skipped by the actor.
func (w *World) Tick(ctx context.Context, dt time.Duration) error {
	return actor.Tell(ctx, w.pid, NewTick(dt))
}

// SetWeights replaces the steering weights from the next tick on.
func (w *World) SetWeights(ctx context.Context, weights behavior.Weights) error {
	return actor.Tell(ctx, w.pid, NewWeightsUpdate(weights))
}

// Respawn scatters the flock again.
func (w *World) Respawn(ctx context.Context) error {
	return actor.Tell(ctx, w.pid, NewRespawn())
}

// Snapshots exposes the raw snapshot stream.
func (w *World) Snapshots() <-chan *Snapshot { return w.snapshots }

// Latest drains the pending snapshots without blocking and returns the newest one seen so far.
func (w *World) Latest() *Snapshot {
	for {
		select {
		case snap := <-w.snapshots:
			w.latest = snap
		default:
			// Use previous state if new one isn't ready
			return w.latest
		}
	}
}

// PID returns the world actor process id.
func (w *World) PID() *actor.PID { return w.pid }
