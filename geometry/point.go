// Package geometry provides the planar primitives shared by the locators:
// points doubling as vectors, implicit lines, quadrilaterals, oriented
// rectangles and integer line walks. All types are plain values.
package geometry

import (
	"fmt"
	"math"
)

// Point is a position in image space, x to the right and y down. It doubles
// as a 2D vector.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{x, y} }

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Mul(s float64) Point   { return Point{p.X * s, p.Y * s} }
func (p Point) Dot(q Point) float64   { return p.X*q.X + p.Y*q.Y }
func (p Point) Cross(q Point) float64 { return p.X*q.Y - p.Y*q.X }
func (p Point) Len() float64          { return math.Hypot(p.X, p.Y) }
func (p Point) Dist(q Point) float64  { return math.Hypot(p.X-q.X, p.Y-q.Y) }
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Norm returns p scaled to unit length, or the zero vector.
func (p Point) Norm() Point {
	l := p.Len()
	if l == 0 {
		return Point{}
	}
	return Point{p.X / l, p.Y / l}
}

// Perp returns p rotated by +90 degrees (clockwise on screen).
func (p Point) Perp() Point { return Point{-p.Y, p.X} }

// Rotate returns p rotated by theta radians around the origin.
func (p Point) Rotate(theta float64) Point {
	s, c := math.Sincos(theta)
	return Point{p.X*c - p.Y*s, p.X*s + p.Y*c}
}

// Angle returns the direction of p in radians, in (-pi, pi].
func (p Point) Angle() float64 { return math.Atan2(p.Y, p.X) }

// Round returns the nearest integer pixel.
func (p Point) Round() (x, y int) {
	return int(math.Floor(p.X + 0.5)), int(math.Floor(p.Y + 0.5))
}

// Floor returns the pixel that contains p.
func (p Point) Floor() (x, y int) {
	return int(math.Floor(p.X)), int(math.Floor(p.Y))
}

// Near reports whether p and q are within tol of each other.
func (p Point) Near(q Point, tol float64) bool { return p.Dist(q) <= tol }

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func (p Point) String() string { return fmt.Sprintf("(%.2f,%.2f)", p.X, p.Y) }

// CrossZ is the z component of (b-a) x (c-a). It is positive when a, b, c
// turn clockwise on screen.
func CrossZ(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// Centroid returns the mean of pts, or the origin when there are none.
func Centroid(pts ...Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(pts)))
}
