package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/telemetry"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/viewer"
)

func main() {
	var opts simulation.Options
	opts.Register(flag.CommandLine)
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts simulation.Options) error {
	ctx := context.Background()

	logger, err := simulation.NewLogger(opts.LogLevel, os.Stdout)
	if err != nil {
		return err
	}
	cfg, err := opts.Resolve()
	if err != nil {
		return err
	}

	recorder, err := telemetry.NewRecorder(cfg.TelemetryPath)
	if err != nil {
		return err
	}

	system, err := simulation.NewSystem(ctx, logger)
	if err != nil {
		_ = recorder.Close()
		return err
	}
	defer system.Stop(ctx)

	world, err := simulation.SpawnWorld(ctx, system, cfg, recorder)
	if err != nil {
		_ = recorder.Close()
		return err
	}

	ebiten.SetWindowSize(int(cfg.Flock.WorldWidth), int(cfg.Flock.WorldHeight))
	ebiten.SetWindowTitle(fmt.Sprintf("Boids: %d birds", cfg.Flock.Population))

	game := viewer.NewGame(ctx, world, cfg, logger)
	return ebiten.RunGame(game)
}
