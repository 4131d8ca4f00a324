// Package physics implements pure collision resolution: boundary response,
// pairwise impulse response, and the anti-stick correction. Functions here
// compute outcomes from values; applying them to simulation state is the
// caller's job.
package physics

import (
	"math/rand"

	"github.com/pthm-cable/hexarena/arena"
	"github.com/pthm-cable/hexarena/config"
	"github.com/pthm-cable/hexarena/geom"
)

// separationRetries bounds the positional separation passes before the two
// bodies are snapped to exact minimum distance.
const separationRetries = 3

// BoundaryOutcome is the result of resolving one body against the arena wall.
type BoundaryOutcome struct {
	Velocity geom.Vec2
	Position geom.Vec2
	HPGain   float64
	Collided bool
}

// ResolveBoundary resolves a body of the given radius against the arena.
// On a genuine reflection the post-bounce speed is damped multiplicatively
// by the energy loss factor and the body earns the configured HP gain.
func ResolveBoundary(pos, vel geom.Vec2, radius float64, ar *arena.Arena, p config.Params, hpGain float64) BoundaryOutcome {
	newVel, newPos, collided := ar.Reflect(pos, vel, radius, p.SafetyMargin, p.Restitution)
	out := BoundaryOutcome{Velocity: newVel, Position: newPos, Collided: collided}
	if collided {
		out.Velocity = newVel.Scale(p.EnergyLossFactor)
		out.HPGain = hpGain
	}
	return out
}

// PairOutcome is the result of resolving the two bodies against each other.
type PairOutcome struct {
	VelA, VelB geom.Vec2
	PosA, PosB geom.Vec2
	Damage     float64 // symmetric HP loss applied to both bodies
	Collided   bool
}

// ResolveBodies resolves a potential collision between two circular bodies.
// Contact triggers when the center distance is at most the radius sum.
// Separating bodies get positional correction only; approaching bodies get
// the standard impulse along the center line, parameterized by restitution
// and both masses, plus symmetric damage proportional to impact speed.
func ResolveBodies(posA, velA geom.Vec2, radiusA, massA float64,
	posB, velB geom.Vec2, radiusB, massB float64, p config.Params) PairOutcome {

	out := PairOutcome{VelA: velA, VelB: velB, PosA: posA, PosB: posB}

	delta := posB.Sub(posA)
	dist := delta.Len()
	minDist := radiusA + radiusB
	if dist > minDist {
		return out
	}

	// Coincident centers: no meaningful normal, separate along x.
	normal := geom.Vec2{X: 1}
	if dist > 1e-9 {
		normal = delta.Scale(1 / dist)
	}

	invA := 1 / massA
	invB := 1 / massB

	out.PosA, out.PosB = separate(posA, posB, radiusA, radiusB, invA, invB)
	out.Collided = true

	relVel := velB.Sub(velA)
	vn := relVel.Dot(normal)
	if vn > 0 {
		return out // already separating, no impulse
	}

	j := -(1 + p.Restitution) * vn / (invA + invB)
	impulse := normal.Scale(j)
	out.VelA = velA.Sub(impulse.Scale(invA))
	out.VelB = velB.Add(impulse.Scale(invB))

	out.Damage = -vn * p.DamageCoefficient
	return out
}

// separate pushes two overlapping bodies apart along their center line,
// each proportionally to its inverse mass. If overlap persists after the
// retry budget, positions are snapped to exact minimum distance.
func separate(posA, posB geom.Vec2, radiusA, radiusB, invA, invB float64) (geom.Vec2, geom.Vec2) {
	minDist := radiusA + radiusB
	invSum := invA + invB

	for i := 0; i < separationRetries; i++ {
		delta := posB.Sub(posA)
		dist := delta.Len()
		overlap := minDist - dist
		if overlap <= 0 {
			return posA, posB
		}
		normal := geom.Vec2{X: 1}
		if dist > 1e-9 {
			normal = delta.Scale(1 / dist)
		}
		posA = posA.Sub(normal.Scale(overlap * invA / invSum))
		posB = posB.Add(normal.Scale(overlap * invB / invSum))
	}

	// Force a minimum-distance snap around the midpoint.
	delta := posB.Sub(posA)
	dist := delta.Len()
	if dist >= minDist {
		return posA, posB
	}
	normal := geom.Vec2{X: 1}
	if dist > 1e-9 {
		normal = delta.Scale(1 / dist)
	}
	mid := posA.Add(delta.Scale(0.5))
	posA = mid.Sub(normal.Scale(minDist / 2))
	posB = mid.Add(normal.Scale(minDist / 2))
	return posA, posB
}

// AntiStick returns the velocity with a small randomized tangential nudge,
// applied when a body has stalled against the boundary. The nudge direction
// comes from the caller-supplied seeded generator so runs stay reproducible.
func AntiStick(vel, inwardNormal geom.Vec2, strength float64, rng *rand.Rand) geom.Vec2 {
	tangent := inwardNormal.Perp()
	if rng.Intn(2) == 0 {
		tangent = tangent.Scale(-1)
	}
	// Jitter the magnitude and add a small inward component so the body
	// leaves the contact zone instead of sliding along it.
	mag := strength * (0.5 + rng.Float64())
	nudge := tangent.Scale(mag).Add(inwardNormal.Scale(strength * 0.5))
	return vel.Add(nudge)
}
