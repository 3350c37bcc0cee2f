package geometry

import "math"

// Line is the implicit line A*x + B*y + C = 0. Lines built by this package
// keep (A, B) at unit length, so Dist is a true pixel distance. The zero
// Line is invalid.
type Line struct {
	A, B, C float64
}

// LineThrough returns the line through p and q, or the invalid line when the
// points coincide.
func LineThrough(p, q Point) Line {
	d := q.Sub(p)
	n := Point{d.Y, -d.X}.Norm()
	if n == (Point{}) {
		return Line{}
	}
	return Line{A: n.X, B: n.Y, C: -(n.X*p.X + n.Y*p.Y)}
}

// LineFromNormal returns the line with unit normal n through p.
func LineFromNormal(n, p Point) Line {
	n = n.Norm()
	return Line{A: n.X, B: n.Y, C: -(n.X*p.X + n.Y*p.Y)}
}

// Valid reports whether l describes a line.
func (l Line) Valid() bool {
	return (l.A != 0 || l.B != 0) && !math.IsNaN(l.A+l.B+l.C)
}

// Normal returns (A, B).
func (l Line) Normal() Point { return Point{l.A, l.B} }

// Direction returns a vector along the line.
func (l Line) Direction() Point { return Point{-l.B, l.A} }

// Dist returns the signed distance of p from l.
func (l Line) Dist(p Point) float64 {
	n := math.Hypot(l.A, l.B)
	if n == 0 {
		return math.NaN()
	}
	return (l.A*p.X + l.B*p.Y + l.C) / n
}

// Project returns the foot of the perpendicular from p onto l.
func (l Line) Project(p Point) Point {
	n := l.Normal().Norm()
	return p.Sub(n.Mul(l.Dist(p)))
}

// XAt returns x on l at height y; ok is false for horizontal lines.
func (l Line) XAt(y float64) (x float64, ok bool) {
	if l.A == 0 {
		return 0, false
	}
	return -(l.B*y + l.C) / l.A, true
}

// YAt returns y on l at column x; ok is false for vertical lines.
func (l Line) YAt(x float64) (y float64, ok bool) {
	if l.B == 0 {
		return 0, false
	}
	return -(l.A*x + l.C) / l.B, true
}

// Offset returns l shifted by d along its normal.
func (l Line) Offset(d float64) Line {
	n := math.Hypot(l.A, l.B)
	return Line{l.A, l.B, l.C - d*n}
}

// parallelEps bounds the sine of the angle below which lines are parallel.
const parallelEps = 1e-9

// Intersect returns the crossing point of l and m. ok is false when either
// line is invalid or the two are parallel.
func Intersect(l, m Line) (p Point, ok bool) {
	if !l.Valid() || !m.Valid() {
		return Point{}, false
	}
	det := l.A*m.B - m.A*l.B
	scale := math.Hypot(l.A, l.B) * math.Hypot(m.A, m.B)
	if math.Abs(det) <= parallelEps*scale {
		return Point{}, false
	}
	return Point{
		X: (l.B*m.C - m.B*l.C) / det,
		Y: (m.A*l.C - l.A*m.C) / det,
	}, true
}

// SegmentsIntersect reports whether the closed segments pq and rs share a
// point.
func SegmentsIntersect(p, q, r, s Point) bool {
	d1 := CrossZ(r, s, p)
	d2 := CrossZ(r, s, q)
	d3 := CrossZ(p, q, r)
	d4 := CrossZ(p, q, s)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	onSegment := func(a, b, c Point) bool {
		return math.Min(a.X, b.X) <= c.X && c.X <= math.Max(a.X, b.X) &&
			math.Min(a.Y, b.Y) <= c.Y && c.Y <= math.Max(a.Y, b.Y)
	}
	switch {
	case d1 == 0 && onSegment(r, s, p):
		return true
	case d2 == 0 && onSegment(r, s, q):
		return true
	case d3 == 0 && onSegment(p, q, r):
		return true
	case d4 == 0 && onSegment(p, q, s):
		return true
	}
	return false
}
