package simulation

import (
	"time"

	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/flock"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/telemetry"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// WorldActor owns the flock. Every message is handled on the actor's own goroutine,
// so ticks, weight updates and respawns never race with each other.
type WorldActor struct {
	cfg   *Config
	flock *flock.Flock

	// Communication with UI
	snapshotCh chan<- *Snapshot

	// Telemetry
	recorder   *telemetry.Recorder
	window     *telemetry.Window
	speeds     []float64
	candidates []float64
	lastStats  telemetry.FlockStats

	// --- Rate Stats ---
	skippedFrames int
	lastLogTime   time.Time
	lastLogTick   uint64
}

// NewWorldActor creates the world logic unit. The flock itself is built in PreStart.
// recorder may be nil; the actor closes it when it stops.
func NewWorldActor(snapshotCh chan<- *Snapshot, cfg *Config, recorder *telemetry.Recorder) *WorldActor {
	return &WorldActor{
		cfg:        cfg,
		snapshotCh: snapshotCh,
		recorder:   recorder,
		window:     telemetry.NewWindow(60),
	}
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	f, err := flock.New(w.cfg.Flock, flock.WithLogger(ctx.ActorSystem().Logger()))
	if err != nil {
		return err
	}
	w.flock = f
	w.speeds = make([]float64, 0, f.Len())
	w.candidates = make([]float64, 0, f.Len())
	w.lastLogTime = time.Now()
	ctx.ActorSystem().Logger().Infof("World is spawning %s...", f)
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Infof("World Started. %d boids in %vx%v (run %s)",
			w.flock.Len(), w.cfg.Flock.WorldWidth, w.cfg.Flock.WorldHeight, w.recorder.RunID())
		w.pushSnapshot(0)

	// The Main Simulation Step (Driven by the host loop)
	case *durationpb.Duration:
		dt := float32(msg.AsDuration().Seconds())
		// Frames outside (0, maxDeltaTime) are dropped, e.g. after the window lost focus.
		if dt <= 0 || dt >= w.cfg.MaxDeltaTime {
			w.skippedFrames++
			return
		}
		w.tick(ctx, dt)

	// Live weight tuning from the UI
	case *structpb.Struct:
		weights, err := applyWeights(w.flock.Settings().Weights, msg)
		if err != nil {
			ctx.Logger().Warnf("ignoring weights update: %v", err)
			return
		}
		w.flock.SetWeights(weights)

	case *emptypb.Empty:
		w.flock.Respawn()
		w.window.Reset()
		w.lastLogTick = 0
		ctx.Logger().Infof("Respawned %d boids", w.flock.Len())
		w.pushSnapshot(0)

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) tick(ctx *actor.ReceiveContext, dt float32) {
	start := time.Now()
	w.flock.Advance(dt)
	elapsed := time.Since(start)
	w.window.Add(elapsed)

	// 1. Telemetry
	w.speeds = w.flock.Speeds(w.speeds)
	w.candidates = w.flock.CandidateCounts(w.candidates)
	w.lastStats = telemetry.ComputeFlockStats(w.speeds, w.candidates)
	if w.flock.Ticks()%uint64(w.cfg.TelemetryEvery) == 0 {
		rec := telemetry.NewTickRecord(w.recorder.RunID(), w.flock.ID(), w.flock.Ticks(), dt,
			w.flock.Len(), w.lastStats, elapsed)
		if err := w.recorder.Write(rec); err != nil {
			ctx.Logger().Errorf("telemetry: %v", err)
		}
	}
	w.logRates(ctx)

	// 2. UI Update
	w.pushSnapshot(elapsed)
}

func (w *WorldActor) logRates(ctx *actor.ReceiveContext) {
	period := w.cfg.StatsPeriod()
	if period <= 0 || time.Since(w.lastLogTime) < period {
		return
	}
	ticks := w.flock.Ticks() - w.lastLogTick
	rate := float64(ticks) / time.Since(w.lastLogTime).Seconds()
	ctx.Logger().Infof("📊 TICK RATE: %.1f/sec | tick avg %s max %s | speed %.2f±%.2f | candidates %.1f | boids %d | skipped %d",
		rate, w.window.Mean(), w.window.Max(), w.lastStats.MeanSpeed, w.lastStats.SpeedStdDev,
		w.lastStats.MeanCandidates, w.flock.Len(), w.skippedFrames)
	w.skippedFrames = 0
	w.lastLogTick = w.flock.Ticks()
	w.lastLogTime = time.Now()
}

func (w *WorldActor) pushSnapshot(elapsed time.Duration) {
	select {
	case w.snapshotCh <- w.buildSnapshot(elapsed):
	default:
		// UI busy, skip frame
	}
}

func (w *WorldActor) buildSnapshot(elapsed time.Duration) *Snapshot {
	cols, rows, cellSize := w.flock.GridSize()
	return &Snapshot{
		FlockID:      w.flock.ID(),
		Tick:         w.flock.Ticks(),
		Positions:    w.flock.Positions(),
		Velocities:   w.flock.Velocities(),
		Cols:         cols,
		Rows:         rows,
		CellSize:     cellSize,
		Occupancy:    w.flock.Occupancy(),
		Weights:      w.flock.Settings().Weights,
		Stats:        w.lastStats,
		TickDuration: elapsed,
		TicksPerSec:  w.window.TicksPerSecond(),
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Info("World is shutdown...")
	return w.recorder.Close()
}
