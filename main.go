package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/hexarena/config"
	"github.com/pthm-cable/hexarena/sim"
	"github.com/pthm-cable/hexarena/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	maxRounds := flag.Int("max-rounds", 0, "Stop after N rounds (0 = unlimited)")
	logStats := flag.Bool("log-stats", false, "Log the run summary on exit")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	s := sim.New(cfg, rngSeed)
	mon := telemetry.NewMonitor(cfg.DT(), cfg.Telemetry.IssueTolerancePerSec)
	s.SetRecorder(mon)

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"max_rounds", *maxRounds,
		"params", paramsAttrs(cfg.Params),
	)

	rounds := 0
	start := time.Now()
	for {
		summary, ended := s.Step()
		if ended {
			rounds++
			mon.RecordRound()
			slog.Info("round finished",
				"round", rounds,
				"winner", summary.Winner,
				"ticks", summary.Ticks,
				"collisions", summary.Collisions,
			)
			if *maxRounds > 0 && rounds >= *maxRounds {
				break
			}
			s.Reset()
		}
		if *maxTicks > 0 && s.Tick() >= *maxTicks {
			slog.Info("max ticks reached", "tick", s.Tick())
			break
		}
	}

	if *logStats {
		result := mon.Finalize(time.Since(start).Seconds())
		slog.Info("run summary", "result", result)
	}
}

func paramsAttrs(p config.Params) slog.Value {
	return slog.GroupValue(
		slog.Float64("damage_coefficient", p.DamageCoefficient),
		slog.Float64("growth_factor", p.GrowthFactor),
		slog.Float64("gravity", p.Gravity),
		slog.Float64("energy_loss_factor", p.EnergyLossFactor),
		slog.Float64("restitution", p.Restitution),
		slog.Float64("safety_margin", p.SafetyMargin),
	)
}
