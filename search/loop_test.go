package search

import (
	"context"
	"testing"

	"github.com/pthm-cable/hexarena/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()

	defaults := pv.DefaultVector()
	norm := pv.Normalize(defaults)
	for i, n := range norm {
		if n < 0 || n > 1 {
			t.Errorf("normalized default %d = %v outside [0,1]", i, n)
		}
	}
	back := pv.Denormalize(norm)
	for i := range back {
		if diff := back[i] - defaults[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("round trip param %d: %v != %v", i, back[i], defaults[i])
		}
	}
}

func TestPerturbStaysInBounds(t *testing.T) {
	sets := NewLoop(testConfig(t), nil).Candidates(20, 7)

	for i, p := range sets {
		if p != p.Clamped() {
			t.Errorf("candidate %d out of bounds: %+v", i, p)
		}
	}
	if sets[0] != testConfig(t).Params {
		t.Errorf("first candidate %+v is not the baseline", sets[0])
	}
}

func TestCandidatesReproducible(t *testing.T) {
	l := NewLoop(testConfig(t), nil)
	a := l.Candidates(5, 11)
	b := l.Candidates(5, 11)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("candidate %d differs across identical seeds", i)
		}
	}
}

func TestRunBaselineIsStable(t *testing.T) {
	if testing.Short() {
		t.Skip("headless sweep")
	}
	cfg := testConfig(t)
	l := NewLoop(cfg, nil)

	report, err := l.Run(context.Background(), []config.Params{cfg.Params}, 5.0, 1)
	if err != nil {
		t.Fatalf("sweep error: %v", err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(report.Results))
	}

	r := report.Results[0]
	if r.Frames != int(5.0/cfg.DT()) {
		t.Errorf("frames = %d, want %d", r.Frames, int(5.0/cfg.DT()))
	}
	// The shipped defaults run clean for five seconds.
	if r.Issues != 0 {
		t.Errorf("baseline run produced %d issues", r.Issues)
	}
	if r.StabilityScore != 1.0 {
		t.Errorf("baseline stability = %v, want 1.0", r.StabilityScore)
	}
}

func TestRunPicksBest(t *testing.T) {
	if testing.Short() {
		t.Skip("headless sweep")
	}
	cfg := testConfig(t)
	l := NewLoop(cfg, nil)
	sets := l.Candidates(4, 3)

	report, err := l.Run(context.Background(), sets, 1.0, 2)
	if err != nil {
		t.Fatalf("sweep error: %v", err)
	}
	if len(report.Results) != len(sets) {
		t.Fatalf("got %d results, want %d", len(report.Results), len(sets))
	}
	for _, r := range report.Results {
		if report.Best.StabilityScore < r.StabilityScore {
			t.Errorf("best score %v below run %d score %v", report.Best.StabilityScore, r.RunID, r.StabilityScore)
		}
	}
	if report.BestParams != report.BestParams.Clamped() {
		t.Errorf("best params out of bounds: %+v", report.BestParams)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg := testConfig(t)
	l := NewLoop(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := l.Run(ctx, l.Candidates(8, 1), 1.0, 1)
	if err == nil {
		t.Error("expected context error from canceled sweep")
	}
	if len(report.Results) >= 8 {
		t.Errorf("canceled sweep completed all %d runs", len(report.Results))
	}
}
