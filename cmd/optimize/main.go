// Command optimize searches the physics parameter space for the most stable
// configuration. Sweep mode evaluates random perturbations of the base
// parameters in parallel; cmaes mode refines them with CMA-ES over the
// normalized parameter cube. Both write results.csv and best_config.yaml,
// and can mirror results into a SQLite database.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/hexarena/config"
	"github.com/pthm-cable/hexarena/search"
	"github.com/pthm-cable/hexarena/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	mode := flag.String("mode", "sweep", "Search mode: sweep or cmaes")
	runs := flag.Int("runs", 0, "Number of parameter sets to evaluate (0 = use config)")
	duration := flag.Float64("duration", 0, "Simulated seconds per run (0 = use config)")
	workers := flag.Int("workers", 0, "Parallel workers for sweep mode (0 = use config)")
	maxEvals := flag.Int("max-evals", 120, "Maximum evaluations in cmaes mode")
	seed := flag.Int64("seed", 42, "Seed for candidate generation")
	outputDir := flag.String("output", "out", "Output directory for results")
	dbPath := flag.String("db", "", "SQLite database for results (empty = disabled)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *runs <= 0 {
		*runs = cfg.Search.Runs
	}
	if *duration <= 0 {
		*duration = cfg.Search.DurationSec
	}
	if *workers <= 0 {
		*workers = cfg.Search.Workers
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer out.Close()

	store, err := telemetry.OpenStore(*dbPath)
	if err != nil {
		slog.Error("failed to open results database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loop := search.NewLoop(cfg, logger)
	start := time.Now()

	var best telemetry.RunResult
	var bestParams config.Params
	switch *mode {
	case "sweep":
		best, bestParams = runSweep(ctx, loop, out, store, *runs, *duration, *workers, *seed)
	case "cmaes":
		best, bestParams = runCMAES(loop, out, store, *maxEvals, *duration)
	default:
		slog.Error("unknown mode", "mode", *mode)
		os.Exit(1)
	}

	if best.Frames == 0 {
		slog.Error("no runs completed")
		os.Exit(1)
	}

	bestCfg := *cfg
	bestCfg.Params = bestParams
	if err := out.WriteBestConfig(&bestCfg); err != nil {
		slog.Error("failed to write best config", "error", err)
	}

	slog.Info("search complete",
		"mode", *mode,
		"elapsed", time.Since(start).Round(time.Second).String(),
		"best", best,
		"output", out.Dir(),
	)
}

func runSweep(ctx context.Context, loop *search.Loop, out *telemetry.OutputManager, store *telemetry.Store,
	runs int, duration float64, workers int, seed int64) (telemetry.RunResult, config.Params) {

	sets := loop.Candidates(runs, seed)
	report, err := loop.Run(ctx, sets, duration, workers)
	if err != nil {
		slog.Warn("sweep cut short", "error", err, "completed", len(report.Results))
	}

	for _, r := range report.Results {
		if err := out.WriteResult(r); err != nil {
			slog.Error("failed to write result", "error", err)
		}
		if err := store.SaveResult(r); err != nil {
			slog.Error("failed to store result", "error", err)
		}
	}
	return report.Best, report.BestParams
}

func runCMAES(loop *search.Loop, out *telemetry.OutputManager, store *telemetry.Store,
	maxEvals int, duration float64) (telemetry.RunResult, config.Params) {

	vec := loop.Vector()
	evalCount := 0
	var best telemetry.RunResult
	var bestParams config.Params

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			p := vec.ToParams(vec.Denormalize(x))
			r := loop.Evaluate(evalCount, p, duration)
			evalCount++

			if err := out.WriteResult(r); err != nil {
				slog.Error("failed to write result", "error", err)
			}
			if err := store.SaveResult(r); err != nil {
				slog.Error("failed to store result", "error", err)
			}
			if r.Better(best) || best.Frames == 0 {
				best = r
				bestParams = p
			}
			slog.Info("evaluation", "eval", evalCount, "result", r)

			// Minimize the negated score; collisions break plateau ties
			// toward livelier fights.
			return -(r.StabilityScore + 0.001*float64(r.Collisions)/float64(r.Frames))
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0,
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   4 + 3*vec.Dim()/2,
	}

	initX := vec.Normalize(vec.DefaultVector())
	if _, err := optimize.Minimize(problem, initX, settings, method); err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	return best, bestParams
}
