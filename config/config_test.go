package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	if cfg.Arena.Circumradius != 220 {
		t.Errorf("circumradius = %v, want 220", cfg.Arena.Circumradius)
	}
	if cfg.Body.InitialHP != 10 {
		t.Errorf("initial HP = %v, want 10", cfg.Body.InitialHP)
	}
	if cfg.Params.Restitution != 0.72 {
		t.Errorf("restitution = %v, want 0.72", cfg.Params.Restitution)
	}
	if cfg.Sim.TickRate != 60 {
		t.Errorf("tick rate = %v, want 60", cfg.Sim.TickRate)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("params:\n  restitution: 0.9\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading merged config: %v", err)
	}
	if cfg.Params.Restitution != 0.9 {
		t.Errorf("restitution = %v, want file override 0.9", cfg.Params.Restitution)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Params.Gravity != 0.06 {
		t.Errorf("gravity = %v, want default 0.06", cfg.Params.Gravity)
	}
}

func TestLoadClampsParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("params:\n  damage_coefficient: 9.0\n  gravity: 0.0001\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Params.DamageCoefficient != 1.5 {
		t.Errorf("damage coefficient = %v, want clamped 1.5", cfg.Params.DamageCoefficient)
	}
	if cfg.Params.Gravity != 0.01 {
		t.Errorf("gravity = %v, want clamped 0.01", cfg.Params.Gravity)
	}
}

func TestClamped(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{
			"in range untouched",
			Params{0.85, 1.7, 0.06, 0.86, 0.72, 6},
			Params{0.85, 1.7, 0.06, 0.86, 0.72, 6},
		},
		{
			"all below minimums",
			Params{0, 0, 0, 0, 0, 0},
			Params{0.5, 1.0, 0.01, 0.7, 0.5, 0.5},
		},
		{
			"all above maximums",
			Params{10, 10, 10, 10, 10, 100},
			Params{1.5, 3.0, 0.2, 1.0, 1.0, 50},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamped(); got != tt.want {
				t.Errorf("Clamped() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Params.Restitution = 0.95

	path := filepath.Join(t.TempDir(), "best_config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("writing yaml: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("reloading yaml: %v", err)
	}
	if back.Params.Restitution != 0.95 {
		t.Errorf("restitution after round trip = %v, want 0.95", back.Params.Restitution)
	}
}

func TestDT(t *testing.T) {
	cfg := &Config{Sim: SimConfig{TickRate: 60}}
	if dt := cfg.DT(); dt != 1.0/60.0 {
		t.Errorf("DT = %v, want 1/60", dt)
	}
	// Unset tick rate falls back to 60 Hz.
	cfg.Sim.TickRate = 0
	if dt := cfg.DT(); dt != 1.0/60.0 {
		t.Errorf("DT fallback = %v, want 1/60", dt)
	}
}
