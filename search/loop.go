package search

import (
	"context"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/pthm-cable/hexarena/config"
	"github.com/pthm-cable/hexarena/sim"
	"github.com/pthm-cable/hexarena/telemetry"
)

// Report is the outcome of a sweep: every completed run plus the winner.
type Report struct {
	Results    []telemetry.RunResult
	Best       telemetry.RunResult
	BestParams config.Params
}

// Loop evaluates candidate parameter sets over short headless runs.
type Loop struct {
	cfg *config.Config
	vec *ParamVector
	log *slog.Logger
}

// NewLoop creates a search loop over the given base configuration.
func NewLoop(cfg *config.Config, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{cfg: cfg, vec: NewParamVector(), log: log}
}

// Vector returns the loop's parameter vector.
func (l *Loop) Vector() *ParamVector {
	return l.vec
}

// Candidates generates runs parameter sets: the base configuration's set
// first, then random perturbations of it drawn from the given seed.
func (l *Loop) Candidates(runs int, seed int64) []config.Params {
	rng := rand.New(rand.NewSource(seed))
	base := l.vec.FromParams(l.cfg.Params)

	sets := make([]config.Params, 0, runs)
	sets = append(sets, l.vec.ToParams(base))
	for len(sets) < runs {
		sets = append(sets, l.vec.ToParams(l.vec.Perturb(base, 0.15, rng)))
	}
	return sets
}

// Run evaluates every candidate set for durationSec simulated seconds each,
// across the given number of workers (0 means GOMAXPROCS). Cancellation is
// honored at run boundaries: in-flight runs finish and their results are
// kept. The returned error is ctx.Err() when the sweep was cut short.
func (l *Loop) Run(ctx context.Context, sets []config.Params, durationSec float64, workers int) (*Report, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(sets) {
		workers = len(sets)
	}

	jobs := make(chan int)
	var mu sync.Mutex
	results := make([]telemetry.RunResult, 0, len(sets))
	params := make(map[int]config.Params, len(sets))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r := l.Evaluate(i, sets[i], durationSec)
				mu.Lock()
				results = append(results, r)
				params[i] = sets[i]
				mu.Unlock()
				l.log.Info("run complete", "result", r)
			}
		}()
	}

	var err error
feed:
	for i := range sets {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	report := &Report{Results: results}
	for _, r := range results {
		if r.Better(report.Best) || report.Best.Frames == 0 {
			report.Best = r
			report.BestParams = params[r.RunID]
		}
	}
	return report, err
}

// Evaluate runs one headless simulation under p and scores it. Each run gets
// a fresh world and arena; the run index determines its RNG seed so sweeps
// are reproducible.
func (l *Loop) Evaluate(runID int, p config.Params, durationSec float64) telemetry.RunResult {
	runCfg := *l.cfg
	runCfg.Params = p.Clamped()

	seed := int64(runID)*1000 + 42
	s := sim.New(&runCfg, seed)
	mon := telemetry.NewMonitor(runCfg.DT(), runCfg.Telemetry.IssueTolerancePerSec)
	s.SetRecorder(mon)

	ticks := int(durationSec / runCfg.DT())
	start := time.Now()
	for t := 0; t < ticks; t++ {
		if _, ended := s.Step(); ended {
			mon.RecordRound()
			s.Reset()
		}
	}
	wall := time.Since(start).Seconds()

	r := mon.Finalize(wall)
	r.RunID = runID
	r.Seed = seed
	r.DamageCoefficient = runCfg.Params.DamageCoefficient
	r.GrowthFactor = runCfg.Params.GrowthFactor
	r.Gravity = runCfg.Params.Gravity
	r.EnergyLossFactor = runCfg.Params.EnergyLossFactor
	r.Restitution = runCfg.Params.Restitution
	r.SafetyMargin = runCfg.Params.SafetyMargin
	return r
}
