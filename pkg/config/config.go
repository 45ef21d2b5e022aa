// Package config holds the simulation settings shared by the command-line
// tools, loaded from RBD_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/cluso-rbd/pkg/estimate"
	"github.com/dd0wney/cluso-rbd/pkg/logging"
	"github.com/dd0wney/cluso-rbd/pkg/metrics"
	"github.com/dd0wney/cluso-rbd/pkg/rbd"
	"github.com/dd0wney/cluso-rbd/pkg/validation"
)

// Config holds the settings of one simulation run
type Config struct {
	// Trials is the number of simulated system lifetimes
	Trials int `json:"trials" yaml:"trials"`

	// Seed fixes every draw of the run
	Seed uint64 `json:"seed" yaml:"seed"`

	// Workers bounds parallelism (0: GOMAXPROCS)
	Workers int `json:"workers" yaml:"workers"`

	// ChunkSize is the number of trials per generator stream
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// Tolerance is the acceptable relative half-width of the MTTF interval (0: no check)
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`

	// GridStart, GridEnd and GridPoints describe the reliability curve grid
	GridStart  float64 `json:"grid_start" yaml:"grid_start"`
	GridEnd    float64 `json:"grid_end" yaml:"grid_end"`
	GridPoints int     `json:"grid_points" yaml:"grid_points"`

	// Timeout cancels the run after this long (0: none)
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	LogLevel       string `json:"log_level" yaml:"log_level"`
	MetricsEnabled bool   `json:"metrics_enabled" yaml:"metrics_enabled"`
}

// Default configuration values
const (
	DefaultTrials     = 10000
	DefaultSeed       = 1
	DefaultGridEnd    = 100000
	DefaultGridPoints = 11
	DefaultLogLevel   = "info"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Trials:     DefaultTrials,
		Seed:       DefaultSeed,
		ChunkSize:  rbd.DefaultChunkSize,
		GridStart:  0,
		GridEnd:    DefaultGridEnd,
		GridPoints: DefaultGridPoints,
		LogLevel:   DefaultLogLevel,
	}
}

// LoadConfigFromEnv starts from DefaultConfig and applies RBD_* overrides.
func LoadConfigFromEnv() (*Config, error) {
	c := DefaultConfig()

	var err error
	if c.Trials, err = envInt("RBD_TRIALS", c.Trials); err != nil {
		return nil, err
	}
	if c.Seed, err = envUint64("RBD_SEED", c.Seed); err != nil {
		return nil, err
	}
	if c.Workers, err = envInt("RBD_WORKERS", c.Workers); err != nil {
		return nil, err
	}
	if c.ChunkSize, err = envInt("RBD_CHUNK_SIZE", c.ChunkSize); err != nil {
		return nil, err
	}
	if c.Tolerance, err = envFloat("RBD_TOLERANCE", c.Tolerance); err != nil {
		return nil, err
	}
	if c.GridStart, err = envFloat("RBD_GRID_START", c.GridStart); err != nil {
		return nil, err
	}
	if c.GridEnd, err = envFloat("RBD_GRID_END", c.GridEnd); err != nil {
		return nil, err
	}
	if c.GridPoints, err = envInt("RBD_GRID_POINTS", c.GridPoints); err != nil {
		return nil, err
	}
	if v := os.Getenv("RBD_TIMEOUT"); v != "" {
		if c.Timeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid RBD_TIMEOUT %q: %w", v, err)
		}
	}
	c.LogLevel = strings.ToLower(getEnvOrDefault(logging.EnvLogLevel, c.LogLevel))
	c.MetricsEnabled = os.Getenv("RBD_METRICS") == "true"

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("Config").
		MinInt("Trials", c.Trials, 1).
		NonNegative("Workers", c.Workers).
		NonNegative("ChunkSize", c.ChunkSize).
		NonNegativeFloat("Tolerance", c.Tolerance).
		Finite("GridStart", c.GridStart).
		Finite("GridEnd", c.GridEnd).
		NonNegative("GridPoints", c.GridPoints).
		When(c.GridPoints > 1, func(cv *validation.ConfigValidator) {
			cv.Less("GridEnd", c.GridStart, c.GridEnd)
		}).
		OneOf("LogLevel", c.LogLevel, logLevels).
		Custom("Timeout", func() error {
			if c.Timeout < 0 {
				return fmt.Errorf("duration %v must be non-negative", c.Timeout)
			}
			return nil
		}).
		Validate()
}

// Grid returns the reliability curve time grid.
func (c *Config) Grid() []float64 {
	return estimate.Linspace(c.GridStart, c.GridEnd, c.GridPoints)
}

// Options converts the configuration into evaluator options. A nil
// registry leaves metrics to the system.
func (c *Config) Options(logger logging.Logger, registry *metrics.Registry) rbd.Options {
	return rbd.Options{
		Trials:    c.Trials,
		Seed:      c.Seed,
		Grid:      c.Grid(),
		Workers:   c.Workers,
		ChunkSize: validation.DefaultOrInt(c.ChunkSize, rbd.DefaultChunkSize),
		Tolerance: c.Tolerance,
		Logger:    logger,
		Metrics:   registry,
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envUint64(key string, def uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}
