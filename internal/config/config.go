// Package config provides configuration loading for censussim.
// Values come from defaults, an optional YAML file and CENSUS_* environment
// variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/talgya/mini-census/internal/agents"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CENSUS_"

// Config contains all censussim settings.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation" envPrefix:"SIM_"`
	Output     OutputConfig     `yaml:"output" envPrefix:"OUTPUT_"`
	Server     ServerConfig     `yaml:"server" envPrefix:"SERVER_"`
	Logging    LoggingConfig    `yaml:"logging" envPrefix:"LOG_"`
}

// SimulationConfig holds the demographic constants of a run.
type SimulationConfig struct {
	// TotalYears is the simulation horizon; years 0..TotalYears-1 are run.
	TotalYears int `yaml:"total_years" env:"TOTAL_YEARS"`

	// GraduationAge is the age from which a person can marry.
	GraduationAge int `yaml:"graduation_age" env:"GRADUATION_AGE"`

	// SampleSize is the number of founders.
	SampleSize int `yaml:"sample_size" env:"SAMPLE_SIZE"`

	// FertilityThreshold gates births; a higher threshold means fewer births.
	FertilityThreshold int `yaml:"fertility_threshold" env:"FERTILITY_THRESHOLD"`

	Seed int64 `yaml:"seed" env:"SEED"`

	// Kinship is "symmetric" (default) or "legacy".
	Kinship string `yaml:"kinship" env:"KINSHIP"`

	// Check verifies population invariants after every year.
	Check bool `yaml:"check" env:"CHECK"`
}

// OutputConfig controls where finished runs go.
type OutputConfig struct {
	// CSVPath receives one row per year. Empty disables CSV output.
	CSVPath string `yaml:"csv_path" env:"CSV_PATH"`

	// DBPath is the SQLite run archive. Empty disables archiving.
	DBPath string `yaml:"db_path" env:"DB_PATH"`

	// Summary prints a table of the run to stdout.
	Summary bool `yaml:"summary" env:"SUMMARY"`
}

// ServerConfig configures the archive HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" env:"PORT"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// LoggingConfig configures log verbosity: "debug", "info", "warn" or "error".
type LoggingConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// Default returns the configuration of the original model.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TotalYears:         100,
			GraduationAge:      16,
			SampleSize:         80,
			FertilityThreshold: 250,
			Seed:               42,
			Kinship:            agents.KinshipSymmetric.String(),
		},
		Output: OutputConfig{
			Summary: true,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds a configuration from defaults, the YAML file at path (skipped
// when path is empty) and environment variables. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile merges the YAML file at path into c.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from CENSUS_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	sim := c.Simulation
	if sim.TotalYears <= 0 {
		errs = append(errs, fmt.Errorf("total_years must be positive, got %d", sim.TotalYears))
	}
	if sim.GraduationAge < 0 {
		errs = append(errs, fmt.Errorf("graduation_age must not be negative, got %d", sim.GraduationAge))
	}
	if sim.SampleSize < 0 {
		errs = append(errs, fmt.Errorf("sample_size must not be negative, got %d", sim.SampleSize))
	}
	if _, err := agents.ParseKinshipRule(sim.Kinship); err != nil {
		errs = append(errs, err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port out of range: %d", c.Server.Port))
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// KinshipRule returns the configured relation rule. Call Validate first.
func (c *Config) KinshipRule() agents.KinshipRule {
	rule, _ := agents.ParseKinshipRule(c.Simulation.Kinship)
	return rule
}

// SlogLevel returns the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
