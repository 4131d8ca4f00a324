// Package arena implements the rotating regular-hexagon boundary that
// confines both bodies. The arena owns only geometry and rotation state;
// collision response parameters (restitution, safety margin) are supplied
// by the caller per query.
package arena

import (
	"math"

	"github.com/pthm-cable/hexarena/geom"
)

// SideCount is the number of polygon sides. The geometry generalizes to any
// regular polygon but the arena is a hexagon.
const SideCount = 6

// cornerTieEpsilon is the edge-distance difference below which two edges
// count as equally close (corner contact).
const cornerTieEpsilon = 1e-6

// Arena is a rotating regular hexagon centered at Center.
type Arena struct {
	Center       geom.Vec2
	Circumradius float64
	RotationRate float64 // radians per tick

	rotation float64 // current angle, kept in [0, 2pi)
}

// New creates an arena with the given center, circumradius and per-tick
// rotation rate.
func New(center geom.Vec2, circumradius, rotationRate float64) *Arena {
	return &Arena{
		Center:       center,
		Circumradius: circumradius,
		RotationRate: rotationRate,
	}
}

// Rotation returns the current rotation angle in [0, 2pi).
func (a *Arena) Rotation() float64 {
	return a.rotation
}

// Advance rotates the arena by RotationRate for one tick, wrapping the
// angle into [0, 2pi).
func (a *Arena) Advance() {
	a.rotation = math.Mod(a.rotation+a.RotationRate, 2*math.Pi)
	if a.rotation < 0 {
		a.rotation += 2 * math.Pi
	}
}

// VerticesAt returns the six vertices for an arbitrary rotation angle,
// ordered counter-clockwise. Pure function of the angle.
func (a *Arena) VerticesAt(rotation float64) [SideCount]geom.Vec2 {
	var vs [SideCount]geom.Vec2
	for i := 0; i < SideCount; i++ {
		angle := rotation + float64(i)*(2*math.Pi/SideCount)
		sin, cos := math.Sincos(angle)
		vs[i] = geom.Vec2{
			X: a.Center.X + a.Circumradius*cos,
			Y: a.Center.Y + a.Circumradius*sin,
		}
	}
	return vs
}

// Vertices returns the vertices at the current rotation.
func (a *Arena) Vertices() [SideCount]geom.Vec2 {
	return a.VerticesAt(a.rotation)
}

// ContainsPoint reports whether p lies inside the arena at its current
// rotation. Points exactly on an edge count as inside.
func (a *Arena) ContainsPoint(p geom.Vec2) bool {
	vs := a.Vertices()
	return geom.PointInConvexPolygon(p, vs[:])
}

// EdgeClearance returns the signed distance from p to the nearest edge:
// positive inside the arena, negative outside.
func (a *Arena) EdgeClearance(p geom.Vec2) float64 {
	vs := a.Vertices()
	min := math.Inf(1)
	for i := 0; i < SideCount; i++ {
		d := geom.PointSegmentDistance(p, vs[i], vs[(i+1)%SideCount])
		if d < min {
			min = d
		}
	}
	if !geom.PointInConvexPolygon(p, vs[:]) {
		return -min
	}
	return min
}

// ClosestEdgeNormal returns the inward unit normal of the edge nearest to p
// and the distance to that edge. When p is equally close to two edges
// (corner contact) the normal is the normalized sum of both edge normals.
func (a *Arena) ClosestEdgeNormal(p geom.Vec2) (geom.Vec2, float64) {
	vs := a.Vertices()

	minDist := math.Inf(1)
	var normals []geom.Vec2

	for i := 0; i < SideCount; i++ {
		v1 := vs[i]
		v2 := vs[(i+1)%SideCount]

		closest := geom.ClosestPointOnSegment(p, v1, v2)
		dist := p.Sub(closest).Len()

		n := v2.Sub(v1).Perp().Normalize()
		// Orient inward.
		if n.Dot(a.Center.Sub(closest)) < 0 {
			n = n.Scale(-1)
		}

		switch {
		case dist < minDist-cornerTieEpsilon:
			minDist = dist
			normals = normals[:0]
			normals = append(normals, n)
		case dist <= minDist+cornerTieEpsilon:
			normals = append(normals, n)
		}
	}

	if len(normals) == 1 {
		return normals[0], minDist
	}
	sum := geom.Vec2{}
	for _, n := range normals {
		sum = sum.Add(n)
	}
	return sum.Normalize(), minDist
}

// Reflect resolves boundary contact for a body of the given radius. A body
// is in contact when its edge clearance minus radius and margin is <= 0.
// On contact the position is pushed along the inward normal until the margin
// is satisfied; velocity is mirrored about the normal and scaled by
// restitution, but only when the body is actually moving toward the edge
// (suppressing double-bounce jitter when it already moves inward).
//
// Returns the new velocity, new position, and whether a reflection happened.
func (a *Arena) Reflect(pos, vel geom.Vec2, radius, margin, restitution float64) (geom.Vec2, geom.Vec2, bool) {
	normal, _ := a.ClosestEdgeNormal(pos)
	clearance := a.EdgeClearance(pos)

	if radius+margin-clearance <= 0 {
		return vel, pos, false
	}

	// Push inward until the margin is satisfied. Near a corner the averaged
	// normal under-corrects, so repeat with a recomputed normal.
	newPos := pos
	for i := 0; i < 8; i++ {
		pen := radius + margin - a.EdgeClearance(newPos)
		if pen <= 1e-9 {
			break
		}
		n, _ := a.ClosestEdgeNormal(newPos)
		newPos = newPos.Add(n.Scale(pen))
	}

	// Moving inward already: reposition only.
	if vel.Dot(normal) >= 0 {
		return vel, newPos, false
	}

	newVel := vel.Reflect(normal).Scale(restitution)
	return newVel, newPos, true
}
