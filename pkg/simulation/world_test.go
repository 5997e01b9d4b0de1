package simulation

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/structpb"
)

const frame = 16 * time.Millisecond

func testWorldConfig() *Config {
	cfg := DefaultConfig()
	cfg.Flock.Population = 120
	cfg.Flock.Seed = 7
	cfg.StatsInterval = 0
	return cfg
}

func startWorld(t *testing.T, cfg *Config, recorder *telemetry.Recorder) (context.Context, actor.ActorSystem, *World) {
	t.Helper()
	ctx := context.Background()

	system, err := NewSystem(ctx, log.DiscardLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = system.Stop(ctx) })

	world, err := SpawnWorld(ctx, system, cfg, recorder)
	require.NoError(t, err)
	return ctx, system, world
}

func nextSnapshot(t *testing.T, w *World) *Snapshot {
	t.Helper()
	select {
	case snap := <-w.Snapshots():
		return snap
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a snapshot")
		return nil
	}
}

func TestWorldActor_Ticks(t *testing.T) {
	cfg := testWorldConfig()
	ctx, _, world := startWorld(t, cfg, nil)

	// PostStart publishes the initial population
	initial := nextSnapshot(t, world)
	require.Equal(t, uint64(0), initial.Tick)
	require.Equal(t, 120, initial.Len())
	require.Len(t, initial.Velocities, 240)
	assert.Equal(t, 1, initial.FlockID)
	assert.Equal(t, 30, initial.Cols)
	assert.Equal(t, 20, initial.Rows)

	require.NoError(t, world.Tick(ctx, frame))
	first := nextSnapshot(t, world)
	assert.Equal(t, uint64(1), first.Tick)
	assert.NotEqual(t, initial.Positions, first.Positions)
	assert.Positive(t, first.Stats.MeanSpeed)
	assert.LessOrEqual(t, first.Stats.MaxSpeed, float64(cfg.Flock.MaxSpeed)+1e-4)
	assert.GreaterOrEqual(t, first.Stats.MeanCandidates, 1.0)

	total := 0
	for _, n := range first.Occupancy {
		total += n
	}
	assert.Equal(t, 120, total)

	for i := 0; i < len(first.Positions); i += 2 {
		x, y := first.Positions[i], first.Positions[i+1]
		require.True(t, x >= 0 && x < cfg.Flock.WorldWidth && y >= 0 && y < cfg.Flock.WorldHeight,
			"boid %d out of bounds at (%v,%v)", i/2, x, y)
	}
}

func TestWorldActor_SkipsFramesOutsideWindow(t *testing.T) {
	ctx, _, world := startWorld(t, testWorldConfig(), nil)
	nextSnapshot(t, world)

	// Zero, negative and too long frames are dropped without a tick or a snapshot.
	require.NoError(t, world.Tick(ctx, 0))
	require.NoError(t, world.Tick(ctx, -frame))
	require.NoError(t, world.Tick(ctx, 100*time.Millisecond))
	require.NoError(t, world.Tick(ctx, 2*time.Second))
	require.NoError(t, world.Tick(ctx, frame))

	snap := nextSnapshot(t, world)
	assert.Equal(t, uint64(1), snap.Tick)
}

func TestWorldActor_Weights(t *testing.T) {
	ctx, _, world := startWorld(t, testWorldConfig(), nil)
	nextSnapshot(t, world)

	want := behavior.Weights{Separation: 1, Alignment: 2, Cohesion: 3, Unblock: 4}
	require.NoError(t, world.SetWeights(ctx, want))
	require.NoError(t, world.Tick(ctx, frame))
	assert.Equal(t, want, nextSnapshot(t, world).Weights)

	// A partial update only touches the keys it carries.
	partial := &structpb.Struct{Fields: map[string]*structpb.Value{
		WeightCohesion: structpb.NewNumberValue(0.5),
	}}
	require.NoError(t, actor.Tell(ctx, world.PID(), partial))
	require.NoError(t, world.Tick(ctx, frame))
	want.Cohesion = 0.5
	assert.Equal(t, want, nextSnapshot(t, world).Weights)

	// A malformed update is ignored as a whole.
	bad := &structpb.Struct{Fields: map[string]*structpb.Value{
		WeightSeparation: structpb.NewNumberValue(9),
		WeightAlignment:  structpb.NewStringValue("fast"),
	}}
	require.NoError(t, actor.Tell(ctx, world.PID(), bad))
	require.NoError(t, world.Tick(ctx, frame))
	assert.Equal(t, want, nextSnapshot(t, world).Weights)
}

func TestWorldActor_Respawn(t *testing.T) {
	ctx, _, world := startWorld(t, testWorldConfig(), nil)
	nextSnapshot(t, world)

	for i := 0; i < 3; i++ {
		require.NoError(t, world.Tick(ctx, frame))
		nextSnapshot(t, world)
	}

	require.NoError(t, world.Respawn(ctx))
	snap := nextSnapshot(t, world)
	assert.Equal(t, uint64(0), snap.Tick)
	assert.Equal(t, 120, snap.Len())
}

func TestWorldActor_Telemetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.csv")
	recorder, err := telemetry.NewRecorder(path)
	require.NoError(t, err)

	cfg := testWorldConfig()
	cfg.TelemetryEvery = 2
	ctx, system, world := startWorld(t, cfg, recorder)
	nextSnapshot(t, world)

	for i := 0; i < 6; i++ {
		require.NoError(t, world.Tick(ctx, frame))
		nextSnapshot(t, world)
	}

	// Stopping the system closes the recorder.
	require.NoError(t, system.Stop(ctx))

	records, err := telemetry.ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, uint64(2*(i+1)), rec.Tick)
		assert.Equal(t, 120, rec.Population)
		assert.Equal(t, recorder.RunID(), rec.RunID)
		assert.InDelta(t, frame.Seconds(), rec.DeltaT, 1e-6)
	}
}

func TestWorld_Latest(t *testing.T) {
	ctx, _, world := startWorld(t, testWorldConfig(), nil)

	require.Eventually(t, func() bool { return world.Latest().Len() == 120 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, world.Tick(ctx, frame))
	require.NoError(t, world.Tick(ctx, frame))
	require.Eventually(t, func() bool { return world.Latest().Tick == 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestSpawnWorld_InvalidConfig(t *testing.T) {
	ctx := context.Background()
	system, err := NewSystem(ctx, log.DiscardLogger)
	require.NoError(t, err)
	defer func() { _ = system.Stop(ctx) }()

	cfg := testWorldConfig()
	cfg.Flock.WorldWidth = 0
	_, err = SpawnWorld(ctx, system, cfg, nil)
	require.Error(t, err)
}

func TestApplyWeights(t *testing.T) {
	base := behavior.DefaultWeights()

	got, err := applyWeights(base, NewWeightsUpdate(behavior.Weights{Separation: 0.1, Alignment: 0.2, Cohesion: 0.3, Unblock: 0.4}))
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got.Separation, 1e-6)
	assert.InDelta(t, 0.3, got.Cohesion, 1e-6)

	_, err = applyWeights(base, &structpb.Struct{Fields: map[string]*structpb.Value{
		"gravity": structpb.NewNumberValue(1),
	}})
	require.Error(t, err)

	got, err = applyWeights(base, &structpb.Struct{})
	require.NoError(t, err)
	assert.Equal(t, base, got)
}
