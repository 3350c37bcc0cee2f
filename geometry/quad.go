package geometry

import (
	"image"
	"math"
)

// Quad is a quadrilateral with corners in drawing order: A top-left, B
// top-right, C bottom-right, D bottom-left in symbol space.
type Quad struct {
	A, B, C, D Point
}

// Corners returns the corners in order A, B, C, D.
func (q Quad) Corners() [4]Point { return [4]Point{q.A, q.B, q.C, q.D} }

// QuadOf builds a Quad from four corners in order.
func QuadOf(c [4]Point) Quad { return Quad{c[0], c[1], c[2], c[3]} }

// Edge returns side i (0 = AB, 1 = BC, 2 = CD, 3 = DA).
func (q Quad) Edge(i int) (Point, Point) {
	c := q.Corners()
	i &= 3
	return c[i], c[(i+1)&3]
}

// Rotate90 shifts the corner labels k steps, turning the symbol frame by k
// quarter turns. Rotate90(1) makes the old B the new A.
func (q Quad) Rotate90(k int) Quad {
	c := q.Corners()
	k = ((k % 4) + 4) % 4
	return Quad{c[k], c[(k+1)&3], c[(k+2)&3], c[(k+3)&3]}
}

// Area returns the signed shoelace area, positive for clockwise on screen.
func (q Quad) Area() float64 {
	c := q.Corners()
	var s float64
	for i := 0; i < 4; i++ {
		s += c[i].Cross(c[(i+1)&3])
	}
	return s / 2
}

// IsSimple reports whether the four sides do not cross each other and the
// quad encloses a nonzero area.
func (q Quad) IsSimple() bool {
	c := q.Corners()
	for _, p := range c {
		if !p.IsFinite() {
			return false
		}
	}
	if math.Abs(q.Area()) < 1e-9 {
		return false
	}
	if SegmentsIntersect(c[0], c[1], c[2], c[3]) || SegmentsIntersect(c[1], c[2], c[3], c[0]) {
		return false
	}
	return true
}

// Diagonals returns the lengths of AC and BD.
func (q Quad) Diagonals() (ac, bd float64) {
	return q.A.Dist(q.C), q.B.Dist(q.D)
}

// Center returns the crossing of the diagonals, or the corner mean when they
// are parallel.
func (q Quad) Center() Point {
	if p, ok := Intersect(LineThrough(q.A, q.C), LineThrough(q.B, q.D)); ok {
		return p
	}
	return Centroid(q.A, q.B, q.C, q.D)
}

// Bounds returns the smallest pixel rectangle covering all corners.
func (q Quad) Bounds() image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range q.Corners() {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
}

// Contains reports whether p lies inside a convex quad or on its border.
func (q Quad) Contains(p Point) bool {
	c := q.Corners()
	var sign float64
	for i := 0; i < 4; i++ {
		z := CrossZ(c[i], c[(i+1)&3], p)
		if z == 0 {
			continue
		}
		if sign == 0 {
			sign = z
		} else if (z > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

// Near reports whether every corner of q is within tol of the corresponding
// corner of o.
func (q Quad) Near(o Quad, tol float64) bool {
	a, b := q.Corners(), o.Corners()
	for i := range a {
		if !a[i].Near(b[i], tol) {
			return false
		}
	}
	return true
}

// OrientedRect is a rectangle rotated by Angle around its center.
type OrientedRect struct {
	Center       Point
	HalfW, HalfH float64
	Angle        float64
}

// Corners returns the rectangle as a Quad, A being the corner at (-HalfW,
// -HalfH) in the rectangle's own frame.
func (r OrientedRect) Corners() Quad {
	u := Point{1, 0}.Rotate(r.Angle).Mul(r.HalfW)
	v := Point{0, 1}.Rotate(r.Angle).Mul(r.HalfH)
	return Quad{
		A: r.Center.Sub(u).Sub(v),
		B: r.Center.Add(u).Sub(v),
		C: r.Center.Add(u).Add(v),
		D: r.Center.Sub(u).Add(v),
	}
}

// Contains reports whether p lies inside r.
func (r OrientedRect) Contains(p Point) bool {
	d := p.Sub(r.Center).Rotate(-r.Angle)
	return math.Abs(d.X) <= r.HalfW && math.Abs(d.Y) <= r.HalfH
}
