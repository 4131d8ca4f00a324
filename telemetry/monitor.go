// Package telemetry scores headless runs for stability and collects their
// results for CSV, log, and database output.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Monitor accumulates per-tick events for one run and produces a RunResult.
// It implements the simulation's Recorder interface.
type Monitor struct {
	dt                   float64
	issueTolerancePerSec float64

	frames     int
	collisions int
	rounds     int
	issues     map[string]int
	issueTotal int
	speeds     []float64
}

// NewMonitor creates a monitor for a run stepping at dt seconds per tick.
// issueTolerancePerSec is the issue rate at which the stability score
// reaches zero.
func NewMonitor(dt, issueTolerancePerSec float64) *Monitor {
	return &Monitor{
		dt:                   dt,
		issueTolerancePerSec: issueTolerancePerSec,
		issues:               make(map[string]int),
	}
}

// RecordTick records one simulation step and the speed of both bodies.
func (m *Monitor) RecordTick(speedA, speedB float64) {
	m.frames++
	m.speeds = append(m.speeds, speedA, speedB)
}

// RecordIssue records one stability issue of the given kind.
func (m *Monitor) RecordIssue(kind string) {
	m.issues[kind]++
	m.issueTotal++
}

// RecordCollision records one body-to-body collision.
func (m *Monitor) RecordCollision() {
	m.collisions++
}

// RecordRound records one completed round.
func (m *Monitor) RecordRound() {
	m.rounds++
}

// Issues returns the issue count for a kind.
func (m *Monitor) Issues(kind string) int {
	return m.issues[kind]
}

// Finalize computes the run's result. wallSeconds is the measured wall-clock
// duration of the run; the stability score is
// 1 - min(1, issues/baseline) where baseline is the issue tolerance times
// the simulated duration, never below one issue.
func (m *Monitor) Finalize(wallSeconds float64) RunResult {
	simSeconds := float64(m.frames) * m.dt

	baseline := simSeconds * m.issueTolerancePerSec
	if baseline < 1 {
		baseline = 1
	}
	penalty := float64(m.issueTotal) / baseline
	if penalty > 1 {
		penalty = 1
	}

	r := RunResult{
		Frames:         m.frames,
		SimSeconds:     simSeconds,
		Collisions:     m.collisions,
		Rounds:         m.rounds,
		Issues:         m.issueTotal,
		StabilityScore: 1 - penalty,
	}
	if wallSeconds > 0 {
		r.AvgTicksPerSec = float64(m.frames) / wallSeconds
	}
	if len(m.speeds) > 0 {
		sorted := append([]float64(nil), m.speeds...)
		sort.Float64s(sorted)
		r.MeanSpeed = stat.Mean(sorted, nil)
		r.P95Speed = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	}
	return r
}

// RunResult is the scored outcome of one headless run under one parameter
// set. Fields carry csv tags for the sweep log and gorm mapping for the
// optional database store.
type RunResult struct {
	ID    uint  `csv:"-" gorm:"primaryKey" yaml:"-"`
	RunID int   `csv:"run_id"`
	Seed  int64 `csv:"seed"`

	DamageCoefficient float64 `csv:"damage_coefficient"`
	GrowthFactor      float64 `csv:"growth_factor"`
	Gravity           float64 `csv:"gravity"`
	EnergyLossFactor  float64 `csv:"energy_loss_factor"`
	Restitution       float64 `csv:"restitution"`
	SafetyMargin      float64 `csv:"safety_margin"`

	Frames         int     `csv:"frames"`
	SimSeconds     float64 `csv:"sim_seconds"`
	Collisions     int     `csv:"collisions"`
	Rounds         int     `csv:"rounds"`
	Issues         int     `csv:"issues"`
	StabilityScore float64 `csv:"stability_score"`
	AvgTicksPerSec float64 `csv:"avg_ticks_per_sec"`
	MeanSpeed      float64 `csv:"mean_speed"`
	P95Speed       float64 `csv:"p95_speed"`
}

// LogValue implements slog.LogValuer with the fields worth logging per run.
func (r RunResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("run_id", r.RunID),
		slog.Int64("seed", r.Seed),
		slog.Float64("stability_score", r.StabilityScore),
		slog.Int("issues", r.Issues),
		slog.Int("collisions", r.Collisions),
		slog.Int("rounds", r.Rounds),
		slog.Float64("avg_ticks_per_sec", r.AvgTicksPerSec),
	)
}

// Better reports whether r ranks above other: higher stability first, then
// higher average tick rate.
func (r RunResult) Better(other RunResult) bool {
	if r.StabilityScore != other.StabilityScore {
		return r.StabilityScore > other.StabilityScore
	}
	return r.AvgTicksPerSec > other.AvgTicksPerSec
}
