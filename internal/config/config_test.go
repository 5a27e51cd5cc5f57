package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/talgya/mini-census/internal/agents"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Simulation.TotalYears != 100 {
		t.Errorf("expected TotalYears 100, got %d", cfg.Simulation.TotalYears)
	}
	if cfg.Simulation.GraduationAge != 16 {
		t.Errorf("expected GraduationAge 16, got %d", cfg.Simulation.GraduationAge)
	}
	if cfg.Simulation.SampleSize != 80 {
		t.Errorf("expected SampleSize 80, got %d", cfg.Simulation.SampleSize)
	}
	if cfg.Simulation.FertilityThreshold != 250 {
		t.Errorf("expected FertilityThreshold 250, got %d", cfg.Simulation.FertilityThreshold)
	}
	if cfg.KinshipRule() != agents.KinshipSymmetric {
		t.Errorf("expected symmetric kinship, got %v", cfg.KinshipRule())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "census.yaml")

	content := `
simulation:
  total_years: 250
  sample_size: 12
  kinship: legacy
  check: true
output:
  csv_path: out.csv
logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.TotalYears != 250 {
		t.Errorf("expected TotalYears 250, got %d", cfg.Simulation.TotalYears)
	}
	if cfg.Simulation.SampleSize != 12 {
		t.Errorf("expected SampleSize 12, got %d", cfg.Simulation.SampleSize)
	}
	// Unset keys keep their defaults.
	if cfg.Simulation.GraduationAge != 16 {
		t.Errorf("expected GraduationAge 16, got %d", cfg.Simulation.GraduationAge)
	}
	if !cfg.Simulation.Check {
		t.Error("expected Check to be true")
	}
	if cfg.KinshipRule() != agents.KinshipLegacy {
		t.Errorf("expected legacy kinship, got %v", cfg.KinshipRule())
	}
	if cfg.Output.CSVPath != "out.csv" {
		t.Errorf("expected CSVPath out.csv, got %q", cfg.Output.CSVPath)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "census.yaml")
	if err := os.WriteFile(configPath, []byte("simulation:\n  seed: 1\n  graduation_age: 18\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CENSUS_SIM_SEED", "777")
	t.Setenv("CENSUS_OUTPUT_DB_PATH", "/tmp/runs.db")
	t.Setenv("CENSUS_SERVER_CORS_ORIGINS", "http://a.example,http://b.example")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.Seed != 777 {
		t.Errorf("expected Seed 777 from env, got %d", cfg.Simulation.Seed)
	}
	if cfg.Simulation.GraduationAge != 18 {
		t.Errorf("expected GraduationAge 18 from file, got %d", cfg.Simulation.GraduationAge)
	}
	if cfg.Output.DBPath != "/tmp/runs.db" {
		t.Errorf("expected DBPath from env, got %q", cfg.Output.DBPath)
	}
	want := []string{"http://a.example", "http://b.example"}
	if !slices.Equal(cfg.Server.CORSOrigins, want) {
		t.Errorf("expected CORSOrigins %v, got %v", want, cfg.Server.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero years", func(c *Config) { c.Simulation.TotalYears = 0 }},
		{"negative graduation age", func(c *Config) { c.Simulation.GraduationAge = -1 }},
		{"negative sample", func(c *Config) { c.Simulation.SampleSize = -5 }},
		{"unknown kinship", func(c *Config) { c.Simulation.Kinship = "cousins" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
