package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[simulation]
seed = 7
tick_rate = "100ms"

[economy]
reclaim_ratio = 0.25
[economy.soft_limits]
log = 300
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Simulation.Seed != 7 || cfg.Simulation.TickRate != 100*time.Millisecond {
		t.Fatalf("simulation not overridden: %+v", cfg.Simulation)
	}
	if cfg.Economy.ReclaimRatio != 0.25 || cfg.Economy.SoftLimits["log"] != 300 {
		t.Fatalf("economy not overridden: %+v", cfg.Economy)
	}
	if cfg.World.Width != 96 {
		t.Fatalf("expected default world width to survive, got %d", cfg.World.Width)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	cases := []string{
		"[economy]\nreclaim_ratio = 1.5",
		"[world]\nwidth = 0",
		"[database]\ndriver = \"mysql\"",
		"[simulation]\nstart_speed = -1",
	}
	for _, c := range cases {
		if _, err := Parse([]byte(c)); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settlement.toml")
	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
}
