package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/flock"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/telemetry"
	"github.com/tochemey/goakt/v3/log"
)

func main() {
	var opts simulation.Options
	opts.Register(flag.CommandLine)
	ticks := flag.Int("ticks", 1000, "Number of ticks to run")
	dt := flag.Duration("dt", time.Second/flock.ReferenceRate, "Simulated time per tick")
	dumpConfig := flag.String("dump-config", "", "Write the resolved config as YAML to this path")
	flag.Parse()

	if err := run(opts, *ticks, *dt, *dumpConfig); err != nil {
		fmt.Fprintf(os.Stderr, "boids-bench: %v\n", err)
		os.Exit(1)
	}
}

func run(opts simulation.Options, ticks int, dt time.Duration, dumpConfig string) error {
	logger, err := simulation.NewLogger(opts.LogLevel, os.Stdout)
	if err != nil {
		return err
	}
	cfg, err := opts.Resolve()
	if err != nil {
		return err
	}
	if dumpConfig != "" {
		if err := cfg.WriteYAML(dumpConfig); err != nil {
			return err
		}
		logger.Infof("config written to %s", dumpConfig)
	}

	f, err := flock.New(cfg.Flock, flock.WithLogger(logger))
	if err != nil {
		return err
	}
	recorder, err := telemetry.NewRecorder(cfg.TelemetryPath)
	if err != nil {
		return err
	}
	defer recorder.Close()

	logger.Infof("starting headless run: %s, %d ticks of %s, %d workers", f, ticks, dt, cfg.Flock.Workers)
	return bench(f, recorder, cfg, ticks, float32(dt.Seconds()), logger)
}

func bench(f *flock.Flock, recorder *telemetry.Recorder, cfg *simulation.Config, ticks int, dt float32, logger log.Logger) error {
	window := telemetry.NewWindow(ticks)
	speeds := make([]float64, 0, f.Len())
	candidates := make([]float64, 0, f.Len())
	var stats telemetry.FlockStats

	start := time.Now()
	for i := 0; i < ticks; i++ {
		tickStart := time.Now()
		f.Advance(dt)
		elapsed := time.Since(tickStart)
		window.Add(elapsed)

		if f.Ticks()%uint64(cfg.TelemetryEvery) != 0 && i != ticks-1 {
			continue
		}
		speeds = f.Speeds(speeds)
		candidates = f.CandidateCounts(candidates)
		stats = telemetry.ComputeFlockStats(speeds, candidates)
		if err := recorder.Write(telemetry.NewTickRecord(recorder.RunID(), f.ID(), f.Ticks(), dt, f.Len(), stats, elapsed)); err != nil {
			return err
		}
	}
	wall := time.Since(start)

	logger.Infof("📊 %d ticks in %s | %.1f ticks/sec | tick avg %s max %s",
		ticks, wall, window.TicksPerSecond(), window.Mean(), window.Max())
	logger.Infof("final speed %.2f±%.2f (max %.2f) | candidates %.1f (max %.0f)",
		stats.MeanSpeed, stats.SpeedStdDev, stats.MaxSpeed, stats.MeanCandidates, stats.MaxCandidates)
	if recorder != nil {
		logger.Infof("telemetry: %d rows written to %s (run %s)", recorder.Rows(), recorder.Path(), recorder.RunID())
	}
	return nil
}
