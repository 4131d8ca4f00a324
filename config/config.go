// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Arena     ArenaConfig     `yaml:"arena"`
	Body      BodyConfig      `yaml:"body"`
	Params    Params          `yaml:"params"`
	Sim       SimConfig       `yaml:"sim"`
	Search    SearchConfig    `yaml:"search"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ArenaConfig holds the rotating hexagon boundary parameters.
type ArenaConfig struct {
	Circumradius float64 `yaml:"circumradius"`  // center-to-vertex distance
	RotationRate float64 `yaml:"rotation_rate"` // radians per tick
}

// BodyConfig holds body creation parameters shared by both combatants.
type BodyConfig struct {
	BaseRadius    float64 `yaml:"base_radius"`
	InitialHP     float64 `yaml:"initial_hp"`
	MaxHP         float64 `yaml:"max_hp"`
	MaxSpeed      float64 `yaml:"max_speed"`       // hard velocity cap, units per tick
	SpawnSpeedMax float64 `yaml:"spawn_speed_max"` // initial per-axis velocity range
	SpawnSpeedMin float64 `yaml:"spawn_speed_min"` // minimum initial per-axis velocity
	SpawnOffsetX  float64 `yaml:"spawn_offset_x"`  // spawn displacement from arena center
	SpawnOffsetY  float64 `yaml:"spawn_offset_y"`
}

// Params is the physics parameter set a run executes under. Immutable once a
// run starts; a replacement set is only applied at a round boundary. Each
// field has a documented valid range; out-of-range values are clamped on load
// and whenever a new set is applied, never rejected.
type Params struct {
	DamageCoefficient float64 `yaml:"damage_coefficient"` // [0.5, 1.5]
	GrowthFactor      float64 `yaml:"growth_factor"`      // [1.0, 3.0]
	Gravity           float64 `yaml:"gravity"`            // [0.01, 0.2], units/tick^2
	EnergyLossFactor  float64 `yaml:"energy_loss_factor"` // [0.7, 1.0]
	Restitution       float64 `yaml:"restitution"`        // [0.5, 1.0]
	SafetyMargin      float64 `yaml:"safety_margin"`      // > 0, boundary repositioning margin
}

// SimConfig holds stepping parameters.
type SimConfig struct {
	TickRate        int     `yaml:"tick_rate"` // ticks per simulated second
	HPGainPerBounce float64 `yaml:"hp_gain_per_bounce"`
	GrowthSmoothing float64 `yaml:"growth_smoothing"` // radius approach factor per tick
	StuckEpsilon    float64 `yaml:"stuck_epsilon"`    // displacement below this counts as stalled
	StuckThreshold  int     `yaml:"stuck_threshold"`  // consecutive stalled ticks before a nudge
	NudgeStrength   float64 `yaml:"nudge_strength"`   // tangential anti-stick impulse
}

// SearchConfig holds parameter-search loop defaults.
type SearchConfig struct {
	Runs        int     `yaml:"runs"`         // number of parameter sets to evaluate
	DurationSec float64 `yaml:"duration_sec"` // virtual seconds per run
	Workers     int     `yaml:"workers"`      // 0 = GOMAXPROCS
}

// TelemetryConfig holds stability-scoring parameters.
type TelemetryConfig struct {
	IssueTolerancePerSec float64 `yaml:"issue_tolerance_per_sec"` // issues/sec that zero the score
	ClampIssueFactor     float64 `yaml:"clamp_issue_factor"`      // pre-clamp speed over cap*this counts as an issue
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. Physics parameters are
// clamped to their valid ranges after loading.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.Params = cfg.Params.Clamped()
	return cfg, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// DT returns seconds per tick.
func (c *Config) DT() float64 {
	if c.Sim.TickRate <= 0 {
		return 1.0 / 60.0
	}
	return 1.0 / float64(c.Sim.TickRate)
}

// Clamped returns a copy of p with every field forced into its valid range.
func (p Params) Clamped() Params {
	return Params{
		DamageCoefficient: clamp(p.DamageCoefficient, 0.5, 1.5),
		GrowthFactor:      clamp(p.GrowthFactor, 1.0, 3.0),
		Gravity:           clamp(p.Gravity, 0.01, 0.2),
		EnergyLossFactor:  clamp(p.EnergyLossFactor, 0.7, 1.0),
		Restitution:       clamp(p.Restitution, 0.5, 1.0),
		SafetyMargin:      clamp(p.SafetyMargin, 0.5, 50),
	}
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
