package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/telemetry"
	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/termview"
	"github.com/tochemey/goakt/v3/log"
)

const simulationRate = 30

func main() {
	var opts simulation.Options
	opts.Register(flag.CommandLine)
	logFile := flag.String("log-file", "", "Write logs to this file (the terminal is busy drawing)")
	flag.Parse()

	if err := run(opts, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "boids-term: %v\n", err)
		os.Exit(1)
	}
}

func run(opts simulation.Options, logFile string) error {
	ctx := context.Background()

	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	logger, err := simulation.NewLogger(opts.LogLevel, out)
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

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	renderer := termview.NewRenderer(screen, cfg.Flock.WorldWidth, cfg.Flock.WorldHeight)
	renderer.ShowGrid = cfg.ShowGrid
	return loop(ctx, screen, world, renderer, logger)
}

func loop(ctx context.Context, screen tcell.Screen, world *simulation.World, renderer *termview.Renderer, logger log.Logger) error {
	ticker := time.NewTicker(time.Second / simulationRate)
	defer ticker.Stop()

	// Event polling goroutine
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	paused := false
	last := time.Now()
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
					return nil
				}
				if ev.Key() != tcell.KeyRune {
					continue
				}
				switch ev.Rune() {
				case 'q':
					return nil
				case 'r':
					if err := world.Respawn(ctx); err != nil {
						logger.Errorf("failed to respawn: %v", err)
					}
				case 'g':
					renderer.ShowGrid = !renderer.ShowGrid
				case ' ':
					paused = !paused
				}
			case *tcell.EventResize:
				screen.Sync()
			}

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if !paused {
				if err := world.Tick(ctx, dt); err != nil {
					return fmt.Errorf("failed to tick world: %w", err)
				}
			}
			renderer.Draw(world.Latest())
		}
	}
}
