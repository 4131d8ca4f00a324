// Package sim steps one round of the two-body fight inside the rotating
// hexagon. The two combatants live as entities in an ark ECS world; all
// physics is delegated to the arena and physics packages, and every in-run
// fault (runaway velocity, stalled body, non-finite state) is recovered
// locally and reported to the attached Recorder instead of surfacing as an
// error.
package sim

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hexarena/arena"
	"github.com/pthm-cable/hexarena/components"
	"github.com/pthm-cable/hexarena/config"
	"github.com/pthm-cable/hexarena/geom"
	"github.com/pthm-cable/hexarena/physics"
)

// Issue kinds reported to the Recorder.
const (
	IssueVelocityRunaway = "velocity_runaway"
	IssueAntiStick       = "anti_stick"
	IssueNonFinite       = "non_finite_reset"
)

// Mass gained per unit of radius above the base radius.
const massPerRadius = 0.024

// Spin transferred per unit of impact speed.
const (
	boundarySpinFactor = 0.8
	bodySpinFactor     = 1.5
	spinDamping        = 0.98
)

// Radius interpolation cap per tick.
const maxRadiusStep = 1.0

// Recorder receives per-tick telemetry from the simulation. All methods may
// be called once per tick; implementations must not retain the arguments.
type Recorder interface {
	RecordTick(speedA, speedB float64)
	RecordIssue(kind string)
	RecordCollision()
}

// RoundSummary describes a finished round.
type RoundSummary struct {
	Winner     string // role name of the survivor, or "draw"
	Ticks      int
	Collisions int
}

// Sim is one simulation instance: a world with exactly two bodies, the
// rotating arena, and the physics parameter set in effect for the current
// round.
type Sim struct {
	world  *ecs.World
	mapper *ecs.Map4[components.Position, components.Velocity, components.Body, components.Fighter]
	filter *ecs.Filter4[components.Position, components.Velocity, components.Body, components.Fighter]

	attacker ecs.Entity
	defender ecs.Entity

	arena  *arena.Arena
	cfg    *config.Config
	params config.Params
	// pending is applied at the next round boundary, never mid-round.
	pending *config.Params

	rng *rand.Rand
	rec Recorder

	tick       int
	roundTicks int
	collisions int
}

// New creates a simulation from the given configuration and seed. The seed
// drives spawn velocities and anti-stick nudges; two sims with the same
// configuration and seed produce identical runs.
func New(cfg *config.Config, seed int64) *Sim {
	world := ecs.NewWorld()

	s := &Sim{
		world: world,
		mapper: ecs.NewMap4[
			components.Position,
			components.Velocity,
			components.Body,
			components.Fighter,
		](world),
		filter: ecs.NewFilter4[
			components.Position,
			components.Velocity,
			components.Body,
			components.Fighter,
		](world),
		arena:  arena.New(geom.Vec2{}, cfg.Arena.Circumradius, cfg.Arena.RotationRate),
		cfg:    cfg,
		params: cfg.Params.Clamped(),
		rng:    rand.New(rand.NewSource(seed)),
	}

	s.attacker = s.spawn(components.RoleAttacker)
	s.defender = s.spawn(components.RoleDefender)
	return s
}

// SetRecorder attaches a telemetry recorder. A nil recorder disables
// reporting.
func (s *Sim) SetRecorder(rec Recorder) {
	s.rec = rec
}

// SetParams schedules a new parameter set. It takes effect at the next call
// to Reset; the current round keeps running under the old set.
func (s *Sim) SetParams(p config.Params) {
	clamped := p.Clamped()
	s.pending = &clamped
}

// Params returns the parameter set in effect for the current round.
func (s *Sim) Params() config.Params {
	return s.params
}

// Tick returns the total number of ticks stepped since creation.
func (s *Sim) Tick() int {
	return s.tick
}

// ArenaVertices returns the hexagon vertices at the current rotation, for
// rendering front ends.
func (s *Sim) ArenaVertices() [arena.SideCount]geom.Vec2 {
	return s.arena.Vertices()
}

// Snapshot is a read-only view of one body, for rendering front ends.
type Snapshot struct {
	Role      components.Role
	Pos       geom.Vec2
	Vel       geom.Vec2
	Radius    float64
	HP        float64
	MaxSeenHP float64
	Spin      float64
}

// Snapshots returns the current state of both bodies, attacker first.
func (s *Sim) Snapshots() [2]Snapshot {
	out := [2]Snapshot{}
	for i, e := range [2]ecs.Entity{s.attacker, s.defender} {
		pos, vel, body, fighter := s.mapper.Get(e)
		out[i] = Snapshot{
			Role:      fighter.Role,
			Pos:       pos.Vec,
			Vel:       vel.Vec,
			Radius:    body.Radius,
			HP:        body.HP,
			MaxSeenHP: body.MaxSeenHP,
			Spin:      body.Spin,
		}
	}
	return out
}

func (s *Sim) spawn(role components.Role) ecs.Entity {
	cfg := s.cfg
	offset := geom.Vec2{X: cfg.Body.SpawnOffsetX, Y: cfg.Body.SpawnOffsetY}
	if role == components.RoleAttacker {
		offset = offset.Scale(-1)
	}
	pos := components.Position{Vec: s.arena.Center.Add(offset)}
	vel := components.Velocity{Vec: geom.Vec2{
		X: s.spawnAxisSpeed(),
		Y: s.spawnAxisSpeed(),
	}}
	body := components.Body{
		BaseRadius: cfg.Body.BaseRadius,
		Radius:     cfg.Body.BaseRadius,
		Mass:       1,
		HP:         cfg.Body.InitialHP,
		MaxSeenHP:  cfg.Body.InitialHP,
		LastPos:    pos.Vec,
	}
	return s.mapper.NewEntity(&pos, &vel, &body, &components.Fighter{Role: role})
}

// spawnAxisSpeed draws one velocity component in the configured range,
// enforcing the minimum magnitude so bodies never start near-motionless.
func (s *Sim) spawnAxisSpeed() float64 {
	v := (s.rng.Float64()*2 - 1) * s.cfg.Body.SpawnSpeedMax
	if math.Abs(v) < s.cfg.Body.SpawnSpeedMin {
		if v < 0 {
			return -s.cfg.Body.SpawnSpeedMin
		}
		return s.cfg.Body.SpawnSpeedMin
	}
	return v
}

// Reset starts a new round: bodies respawn with fresh velocities and full
// HP, round counters clear, and any pending parameter set takes effect.
// The arena keeps rotating across rounds.
func (s *Sim) Reset() {
	if s.pending != nil {
		s.params = *s.pending
		s.pending = nil
	}
	s.roundTicks = 0
	s.collisions = 0

	query := s.filter.Query()
	for query.Next() {
		pos, vel, body, fighter := query.Get()

		offset := geom.Vec2{X: s.cfg.Body.SpawnOffsetX, Y: s.cfg.Body.SpawnOffsetY}
		if fighter.Role == components.RoleAttacker {
			offset = offset.Scale(-1)
		}
		pos.Vec = s.arena.Center.Add(offset)
		vel.Vec = geom.Vec2{X: s.spawnAxisSpeed(), Y: s.spawnAxisSpeed()}

		body.Radius = body.BaseRadius
		body.Mass = 1
		body.HP = s.cfg.Body.InitialHP
		body.MaxSeenHP = s.cfg.Body.InitialHP
		body.Spin = 0
		body.SpinVel = 0
		body.StuckFrames = 0
		body.LastPos = pos.Vec
	}
}

// Step advances the simulation by one tick. When either body's HP reaches
// zero the round ends and Step returns its summary with ok=true; the caller
// decides whether to Reset and continue.
func (s *Sim) Step() (RoundSummary, bool) {
	s.tick++
	s.roundTicks++
	s.arena.Advance()

	p := s.params
	cfg := s.cfg

	posA := s.posOf(s.attacker)
	velA := s.velOf(s.attacker)
	bodyA := s.bodyOf(s.attacker)
	posB := s.posOf(s.defender)
	velB := s.velOf(s.defender)
	bodyB := s.bodyOf(s.defender)

	// Integrate both bodies: gravity, position, velocity cap, boundary.
	query := s.filter.Query()
	for query.Next() {
		pos, vel, body, _ := query.Get()

		vel.Vec.Y += p.Gravity
		pos.Vec = pos.Vec.Add(vel.Vec)

		if speed := vel.Vec.Len(); speed > cfg.Body.MaxSpeed {
			if speed > cfg.Body.MaxSpeed*cfg.Telemetry.ClampIssueFactor {
				s.recordIssue(IssueVelocityRunaway)
			}
			vel.Vec = vel.Vec.ClampLen(cfg.Body.MaxSpeed)
		}

		out := physics.ResolveBoundary(pos.Vec, vel.Vec, body.Radius, s.arena, p, cfg.Sim.HPGainPerBounce)
		if out.Collided {
			n, _ := s.arena.ClosestEdgeNormal(pos.Vec)
			body.SpinVel += math.Abs(vel.Vec.Dot(n)) * boundarySpinFactor
			body.HP = math.Min(body.HP+out.HPGain, cfg.Body.MaxHP)
			if body.HP > body.MaxSeenHP {
				body.MaxSeenHP = body.HP
			}
		}
		pos.Vec = out.Position
		vel.Vec = out.Velocity

		s.updateStuck(pos, vel, body)
	}

	// Pairwise collision, once per tick.
	pair := physics.ResolveBodies(
		posA.Vec, velA.Vec, bodyA.Radius, bodyA.Mass,
		posB.Vec, velB.Vec, bodyB.Radius, bodyB.Mass,
		p,
	)
	if pair.Collided {
		s.collisions++
		if s.rec != nil {
			s.rec.RecordCollision()
		}
		posA.Vec, posB.Vec = pair.PosA, pair.PosB
		velA.Vec, velB.Vec = pair.VelA, pair.VelB

		bodyA.HP = math.Max(0, bodyA.HP-pair.Damage)
		bodyB.HP = math.Max(0, bodyB.HP-pair.Damage)
		bodyA.SpinVel += pair.Damage * bodySpinFactor
		bodyB.SpinVel -= pair.Damage * bodySpinFactor

		// Separation can shove a body back into the wall; correct without
		// granting another bounce.
		velA.Vec, posA.Vec, _ = s.arena.Reflect(posA.Vec, velA.Vec, bodyA.Radius, p.SafetyMargin, p.Restitution)
		velB.Vec, posB.Vec, _ = s.arena.Reflect(posB.Vec, velB.Vec, bodyB.Radius, p.SafetyMargin, p.Restitution)
	}

	// Growth, spin, fault recovery.
	query = s.filter.Query()
	for query.Next() {
		pos, vel, body, _ := query.Get()
		s.updateGrowth(body)

		// Impulses and nudges can overshoot the cap; enforce it before the
		// tick ends.
		vel.Vec = vel.Vec.ClampLen(cfg.Body.MaxSpeed)

		body.Spin += body.SpinVel
		body.SpinVel *= spinDamping

		if !pos.Vec.IsFinite() || !vel.Vec.IsFinite() {
			pos.Vec = s.arena.Center
			vel.Vec = geom.Vec2{}
			body.StuckFrames = 0
			s.recordIssue(IssueNonFinite)
		}
		body.LastPos = pos.Vec
	}

	if s.rec != nil {
		s.rec.RecordTick(velA.Vec.Len(), velB.Vec.Len())
	}

	if bodyA.HP <= 0 || bodyB.HP <= 0 {
		return RoundSummary{
			Winner:     s.winner(bodyA.HP, bodyB.HP),
			Ticks:      s.roundTicks,
			Collisions: s.collisions,
		}, true
	}
	return RoundSummary{}, false
}

// updateStuck counts consecutive near-motionless ticks while in the boundary
// contact zone and fires the anti-stick nudge past the threshold. Each
// activation counts as one issue.
func (s *Sim) updateStuck(pos *components.Position, vel *components.Velocity, body *components.Body) {
	inContact := s.arena.EdgeClearance(pos.Vec)-body.Radius <= s.params.SafetyMargin+1
	moved := pos.Vec.Sub(body.LastPos).Len()

	if inContact && moved < s.cfg.Sim.StuckEpsilon {
		body.StuckFrames++
	} else {
		body.StuckFrames = 0
	}

	if body.StuckFrames > s.cfg.Sim.StuckThreshold {
		n, _ := s.arena.ClosestEdgeNormal(pos.Vec)
		vel.Vec = physics.AntiStick(vel.Vec, n, s.cfg.Sim.NudgeStrength, s.rng)
		body.StuckFrames = 0
		s.recordIssue(IssueAntiStick)
	}
}

// updateGrowth moves the radius toward its HP-derived target, bounded per
// tick, and refreshes mass from the new radius.
func (s *Sim) updateGrowth(body *components.Body) {
	target := body.BaseRadius + (body.HP-s.cfg.Body.InitialHP)*s.params.GrowthFactor/2
	if target < 1 {
		target = 1
	}
	step := (target - body.Radius) * s.cfg.Sim.GrowthSmoothing
	if step > maxRadiusStep {
		step = maxRadiusStep
	} else if step < -maxRadiusStep {
		step = -maxRadiusStep
	}
	body.Radius += step
	body.Mass = 1 + (body.Radius-body.BaseRadius)*massPerRadius
}

func (s *Sim) winner(hpA, hpB float64) string {
	switch {
	case hpA <= 0 && hpB <= 0:
		return "draw"
	case hpA <= 0:
		return components.RoleDefender.String()
	default:
		return components.RoleAttacker.String()
	}
}

func (s *Sim) recordIssue(kind string) {
	if s.rec != nil {
		s.rec.RecordIssue(kind)
	}
}

func (s *Sim) posOf(e ecs.Entity) *components.Position {
	pos, _, _, _ := s.mapper.Get(e)
	return pos
}

func (s *Sim) velOf(e ecs.Entity) *components.Velocity {
	_, vel, _, _ := s.mapper.Get(e)
	return vel
}

func (s *Sim) bodyOf(e ecs.Entity) *components.Body {
	_, _, body, _ := s.mapper.Get(e)
	return body
}
