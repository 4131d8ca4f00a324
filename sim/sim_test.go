package sim

import (
	"math"
	"testing"

	"github.com/pthm-cable/hexarena/config"
)

// countingRecorder tallies events by kind for assertions.
type countingRecorder struct {
	ticks      int
	collisions int
	issues     map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{issues: make(map[string]int)}
}

func (r *countingRecorder) RecordTick(speedA, speedB float64) { r.ticks++ }
func (r *countingRecorder) RecordIssue(kind string)           { r.issues[kind]++ }
func (r *countingRecorder) RecordCollision()                  { r.collisions++ }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return cfg
}

func TestVelocityCapHolds(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 1)

	for i := 0; i < 600; i++ {
		if _, ended := s.Step(); ended {
			s.Reset()
		}
		for _, snap := range s.Snapshots() {
			if speed := snap.Vel.Len(); speed > cfg.Body.MaxSpeed+1e-9 {
				t.Fatalf("tick %d: %s speed %v exceeds cap %v", i, snap.Role, speed, cfg.Body.MaxSpeed)
			}
		}
	}
}

func TestBodiesStayInsideArena(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 2)

	for i := 0; i < 600; i++ {
		if _, ended := s.Step(); ended {
			s.Reset()
		}
		for _, snap := range s.Snapshots() {
			if d := snap.Pos.Len(); d > cfg.Arena.Circumradius {
				t.Fatalf("tick %d: %s at distance %v from center, circumradius %v", i, snap.Role, d, cfg.Arena.Circumradius)
			}
		}
	}
}

func TestDeterministicWithSameSeed(t *testing.T) {
	cfg := testConfig(t)
	a := New(cfg, 99)
	b := New(cfg, 99)

	for i := 0; i < 300; i++ {
		if _, ended := a.Step(); ended {
			a.Reset()
		}
		if _, ended := b.Step(); ended {
			b.Reset()
		}
	}
	if a.Snapshots() != b.Snapshots() {
		t.Errorf("same seed diverged:\n%+v\n%+v", a.Snapshots(), b.Snapshots())
	}
}

func TestRoundEndsOnZeroHP(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 3)

	s.bodyOf(s.defender).HP = 0
	summary, ended := s.Step()
	if !ended {
		t.Fatal("round did not end with defender at zero HP")
	}
	if summary.Winner != "attacker" {
		t.Errorf("winner = %q, want attacker", summary.Winner)
	}
	if summary.Ticks < 1 {
		t.Errorf("summary ticks = %d, want >= 1", summary.Ticks)
	}
}

func TestResetRestoresBodies(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 4)

	for i := 0; i < 120; i++ {
		if _, ended := s.Step(); ended {
			break
		}
	}
	s.bodyOf(s.attacker).HP = 0
	s.Reset()

	for _, snap := range s.Snapshots() {
		if snap.HP != cfg.Body.InitialHP {
			t.Errorf("%s HP after reset = %v, want %v", snap.Role, snap.HP, cfg.Body.InitialHP)
		}
		if snap.Radius != cfg.Body.BaseRadius {
			t.Errorf("%s radius after reset = %v, want %v", snap.Role, snap.Radius, cfg.Body.BaseRadius)
		}
		if snap.Vel.Len() == 0 {
			t.Errorf("%s respawned with zero velocity", snap.Role)
		}
	}
}

func TestPendingParamsApplyAtReset(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 5)

	next := cfg.Params
	next.Restitution = 0.95
	s.SetParams(next)

	s.Step()
	if got := s.Params().Restitution; got != cfg.Params.Restitution {
		t.Fatalf("restitution changed mid-round: %v", got)
	}

	s.Reset()
	if got := s.Params().Restitution; got != 0.95 {
		t.Errorf("restitution after reset = %v, want 0.95", got)
	}
}

func TestSetParamsClampsOutOfRange(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 6)

	bad := config.Params{
		DamageCoefficient: 99,
		GrowthFactor:      -1,
		Gravity:           0.5,
		EnergyLossFactor:  2,
		Restitution:       0,
		SafetyMargin:      -3,
	}
	s.SetParams(bad)
	s.Reset()

	p := s.Params()
	if p.DamageCoefficient != 1.5 || p.GrowthFactor != 1.0 || p.Gravity != 0.2 ||
		p.EnergyLossFactor != 1.0 || p.Restitution != 0.5 || p.SafetyMargin != 0.5 {
		t.Errorf("params not clamped: %+v", p)
	}
}

func TestNonFiniteStateRecovers(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 7)
	rec := newCountingRecorder()
	s.SetRecorder(rec)

	s.posOf(s.attacker).Vec.X = math.NaN()
	s.Step()

	snap := s.Snapshots()[0]
	if !snap.Pos.IsFinite() || !snap.Vel.IsFinite() {
		t.Fatalf("state still non-finite after recovery: %+v", snap)
	}
	if rec.issues[IssueNonFinite] == 0 {
		t.Error("non-finite reset not reported as an issue")
	}
}

func TestRadiusChangeBoundedPerTick(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 8)

	// Force a large gap between radius and its HP target.
	s.bodyOf(s.attacker).HP = cfg.Body.MaxHP

	before := s.Snapshots()[0].Radius
	s.Step()
	after := s.Snapshots()[0].Radius
	if diff := math.Abs(after - before); diff > maxRadiusStep+1e-9 {
		t.Errorf("radius moved %v in one tick, cap is %v", diff, maxRadiusStep)
	}
	if after <= before {
		t.Errorf("radius did not grow toward target: %v -> %v", before, after)
	}
}

func TestRecorderSeesTicks(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 9)
	rec := newCountingRecorder()
	s.SetRecorder(rec)

	for i := 0; i < 50; i++ {
		if _, ended := s.Step(); ended {
			s.Reset()
		}
	}
	if rec.ticks != 50 {
		t.Errorf("recorder saw %d ticks, want 50", rec.ticks)
	}
}
