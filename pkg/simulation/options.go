package simulation

import (
	"flag"
	"fmt"
)

// Options are the command line settings shared by every front end.
// Zero values leave the configuration untouched.
type Options struct {
	ConfigPath    string
	LogLevel      string
	TelemetryPath string
	Population    int
	Workers       int
	Seed          uint64
}

// Register binds the options to fs.
func (o *Options) Register(fs *flag.FlagSet) {
	fs.StringVar(&o.ConfigPath, "config", "", "Path to a YAML or JSON config (empty = use defaults)")
	fs.StringVar(&o.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.StringVar(&o.TelemetryPath, "telemetry", "", "CSV file receiving per tick telemetry (overrides config)")
	fs.IntVar(&o.Population, "population", 0, "Number of boids (0 = use config)")
	fs.IntVar(&o.Workers, "workers", 0, "Goroutines stepping the flock (0 = use config)")
	fs.Uint64Var(&o.Seed, "seed", 0, "RNG seed (0 = use config)")
}

// Resolve loads the configuration and applies the command line overrides on top.
func (o Options) Resolve() (*Config, error) {
	cfg := DefaultConfig()
	if o.ConfigPath != "" {
		loaded, err := LoadConfig(o.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if o.Population > 0 {
		cfg.Flock.Population = o.Population
	}
	if o.Workers > 0 {
		cfg.Flock.Workers = o.Workers
	}
	if o.Seed != 0 {
		cfg.Flock.Seed = o.Seed
	}
	if o.TelemetryPath != "" {
		cfg.TelemetryPath = o.TelemetryPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
