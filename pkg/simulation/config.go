package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-flocking/pkg/flock"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var configSchema string

const configSchemaURL = "config.schema.json"

type Config struct {
	Flock flock.Config `json:"flock"`

	// Host loop
	MaxDeltaTime   float32 `json:"maxDeltaTime"`   // seconds, frames with dt <= 0 or >= this are skipped
	SnapshotBuffer int     `json:"snapshotBuffer"` // capacity of the snapshot channel
	StatsInterval  float64 `json:"statsInterval"`  // seconds between two rate log lines

	// Telemetry, disabled when the path is empty
	TelemetryPath  string `json:"telemetryPath"`
	TelemetryEvery int    `json:"telemetryEvery"` // record one tick out of N

	// Visualization
	ShowGrid bool `json:"showGrid"`
}

func DefaultConfig() *Config {
	return &Config{
		Flock:          flock.DefaultConfig(),
		MaxDeltaTime:   0.1,
		SnapshotBuffer: 10,
		StatsInterval:  1,
		TelemetryEvery: 1,
	}
}

// StatsPeriod returns StatsInterval as a duration.
func (c *Config) StatsPeriod() time.Duration {
	return time.Duration(c.StatsInterval * float64(time.Second))
}

// Validate checks the host settings and the flock configuration.
func (c *Config) Validate() error {
	if err := c.Flock.Validate(); err != nil {
		return err
	}
	if !(c.MaxDeltaTime > 0) {
		return fmt.Errorf("%w: maxDeltaTime must be positive, got %v", flock.ErrInvalidConfig, c.MaxDeltaTime)
	}
	if c.SnapshotBuffer < 1 {
		return fmt.Errorf("%w: snapshotBuffer must be at least 1, got %d", flock.ErrInvalidConfig, c.SnapshotBuffer)
	}
	if c.TelemetryEvery < 1 {
		return fmt.Errorf("%w: telemetryEvery must be at least 1, got %d", flock.ErrInvalidConfig, c.TelemetryEvery)
	}
	return nil
}

// LoadConfig loads a JSON or YAML (.yaml, .yml) configuration file and validates it
// against the embedded schema. Keys missing from the file keep their DefaultConfig value.
func LoadConfig(configFile string) (*Config, error) {
	sch, err := jsonschema.CompileString(configSchemaURL, configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile embedded schema: %w", err)
	}
	return loadConfig(configFile, sch)
}

// LoadConfigWithSchema is LoadConfig validating against an external schema file.
func LoadConfigWithSchema(configFile string, schemaFile string) (*Config, error) {
	sch, err := jsonschema.Compile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return loadConfig(configFile, sch)
}

func loadConfig(configFile string, sch *jsonschema.Schema) (*Config, error) {
	// 1. Read Config File
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 2. YAML is validated and decoded through the same JSON path
	if isYAML(configFile) {
		b, err = yamlToJSON(b)
		if err != nil {
			return nil, fmt.Errorf("failed to decode config yaml: %w", err)
		}
	}

	// 3. Validate
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal over the defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", configFile, err)
	}

	return cfg, nil
}

// WriteYAML saves the configuration as YAML, with the same keys LoadConfig reads.
func (c *Config) WriteYAML(path string) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// JSON is valid YAML: decoding it into a node keeps the field order.
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("converting config: %w", err)
	}
	blockStyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func yamlToJSON(b []byte) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	if v == nil {
		// empty document
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

// blockStyle drops the flow style inherited from JSON so the output reads as plain YAML.
func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, c := range n.Content {
		blockStyle(c)
	}
}
