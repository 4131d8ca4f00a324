// Package components defines the ECS components carried by the two bodies.
package components

import "github.com/pthm-cable/hexarena/geom"

// Role tags a body for rendering and reporting. All physics is role-agnostic.
type Role uint8

const (
	RoleAttacker Role = iota // the "sword"
	RoleDefender             // the "shield"
)

// String returns the display name of the role.
func (r Role) String() string {
	if r == RoleAttacker {
		return "attacker"
	}
	return "defender"
}

// Position is a body's world position.
type Position struct {
	Vec geom.Vec2
}

// Velocity is a body's velocity in units per tick.
type Velocity struct {
	Vec geom.Vec2
}

// Body holds the mutable physical state of a combatant.
type Body struct {
	BaseRadius float64
	Radius     float64 // current radius, smoothly interpolated toward the HP target
	Mass       float64
	HP         float64
	MaxSeenHP  float64 // high-water mark, for reporting
	Spin       float64 // render-facing rotation, radians
	SpinVel    float64 // rotation accumulated from impacts

	StuckFrames int       // consecutive near-zero-displacement ticks in the contact zone
	LastPos     geom.Vec2 // position at the previous tick, for stall detection
}

// Fighter identifies which combatant a body is.
type Fighter struct {
	Role Role
}
