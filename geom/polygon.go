package geom

// PointInConvexPolygon reports whether p lies inside the convex polygon
// described by vertices in counter-clockwise or clockwise order. Points
// exactly on an edge count as inside (closed region), which avoids
// containment flicker for bodies resting against a boundary.
func PointInConvexPolygon(p Vec2, vertices []Vec2) bool {
	n := len(vertices)
	if n < 3 {
		return false
	}

	// Half-plane test: p must be on the same side of every edge.
	sign := 0.0
	for i := 0; i < n; i++ {
		a := vertices[i]
		b := vertices[(i+1)%n]
		edge := b.Sub(a)
		toP := p.Sub(a)
		cross := edge.X*toP.Y - edge.Y*toP.X
		if cross == 0 {
			continue // on the edge line, counts as inside
		}
		if sign == 0 {
			sign = cross
		} else if (sign > 0) != (cross > 0) {
			return false
		}
	}
	return true
}

// ClosestPointOnSegment returns the point on segment [a, b] closest to p.
// A degenerate segment (a == b) yields a.
func ClosestPointOnSegment(p, a, b Vec2) Vec2 {
	ab := b.Sub(a)
	lenSq := ab.LenSq()
	if lenSq < 1e-12 {
		return a
	}
	t := p.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t))
}

// PointSegmentDistance returns the distance from p to segment [a, b].
func PointSegmentDistance(p, a, b Vec2) float64 {
	return p.Sub(ClosestPointOnSegment(p, a, b)).Len()
}
