// Package transform maps between quadrilaterals with plane projective
// transforms.
package transform

import (
	"math"

	"github.com/ericlevine/symscan/geometry"
)

// Perspective is a 3x3 projective transform. Points are row vectors, so
// (x, y, 1) maps to ((a11 x + a21 y + a31) / w, (a12 x + a22 y + a32) / w)
// with w = a13 x + a23 y + a33.
type Perspective struct {
	a11, a12, a13 float64
	a21, a22, a23 float64
	a31, a32, a33 float64
}

// Identity returns the transform that maps every point onto itself.
func Identity() *Perspective {
	return &Perspective{a11: 1, a22: 1, a33: 1}
}

// SquareToQuad maps the unit square (0,0), (1,0), (1,1), (0,1) onto the
// corners A, B, C, D of q. A parallelogram gives an affine transform.
func SquareToQuad(q geometry.Quad) *Perspective {
	p0, p1, p2, p3 := q.A, q.B, q.C, q.D
	d3 := p0.Sub(p1).Add(p2).Sub(p3)
	if d3.X == 0 && d3.Y == 0 {
		return &Perspective{
			a11: p1.X - p0.X, a21: p2.X - p1.X, a31: p0.X,
			a12: p1.Y - p0.Y, a22: p2.Y - p1.Y, a32: p0.Y,
			a33: 1,
		}
	}
	d1 := p1.Sub(p2)
	d2 := p3.Sub(p2)
	den := d1.Cross(d2)
	a13 := d3.Cross(d2) / den
	a23 := d1.Cross(d3) / den
	return &Perspective{
		a11: p1.X - p0.X + a13*p1.X, a21: p3.X - p0.X + a23*p3.X, a31: p0.X,
		a12: p1.Y - p0.Y + a13*p1.Y, a22: p3.Y - p0.Y + a23*p3.Y, a32: p0.Y,
		a13: a13, a23: a23, a33: 1,
	}
}

// QuadToSquare is the inverse of SquareToQuad, up to scale.
func QuadToSquare(q geometry.Quad) *Perspective {
	return SquareToQuad(q).Adjoint()
}

// QuadToQuad maps the corners of from onto the corners of to.
func QuadToQuad(from, to geometry.Quad) *Perspective {
	return SquareToQuad(to).Times(QuadToSquare(from))
}

// Adjoint returns the transposed cofactor matrix, which inverts t up to a
// scale factor that projective coordinates ignore.
func (t *Perspective) Adjoint() *Perspective {
	return &Perspective{
		a11: t.a22*t.a33 - t.a23*t.a32,
		a21: t.a23*t.a31 - t.a21*t.a33,
		a31: t.a21*t.a32 - t.a22*t.a31,
		a12: t.a13*t.a32 - t.a12*t.a33,
		a22: t.a11*t.a33 - t.a13*t.a31,
		a32: t.a12*t.a31 - t.a11*t.a32,
		a13: t.a12*t.a23 - t.a13*t.a22,
		a23: t.a13*t.a21 - t.a11*t.a23,
		a33: t.a11*t.a22 - t.a12*t.a21,
	}
}

// Times returns the transform that applies o first and then t.
func (t *Perspective) Times(o *Perspective) *Perspective {
	return &Perspective{
		a11: t.a11*o.a11 + t.a21*o.a12 + t.a31*o.a13,
		a21: t.a11*o.a21 + t.a21*o.a22 + t.a31*o.a23,
		a31: t.a11*o.a31 + t.a21*o.a32 + t.a31*o.a33,
		a12: t.a12*o.a11 + t.a22*o.a12 + t.a32*o.a13,
		a22: t.a12*o.a21 + t.a22*o.a22 + t.a32*o.a23,
		a32: t.a12*o.a31 + t.a22*o.a32 + t.a32*o.a33,
		a13: t.a13*o.a11 + t.a23*o.a12 + t.a33*o.a13,
		a23: t.a13*o.a21 + t.a23*o.a22 + t.a33*o.a23,
		a33: t.a13*o.a31 + t.a23*o.a32 + t.a33*o.a33,
	}
}

// Transform maps p. Points on the line at infinity come out non-finite.
func (t *Perspective) Transform(p geometry.Point) geometry.Point {
	w := t.a13*p.X + t.a23*p.Y + t.a33
	return geometry.Pt(
		(t.a11*p.X+t.a21*p.Y+t.a31)/w,
		(t.a12*p.X+t.a22*p.Y+t.a32)/w,
	)
}

// TransformPoints maps pts in place.
func (t *Perspective) TransformPoints(pts []geometry.Point) {
	for i, p := range pts {
		pts[i] = t.Transform(p)
	}
}

// Valid reports whether t is finite and invertible.
func (t *Perspective) Valid() bool {
	det := t.a11*(t.a22*t.a33-t.a23*t.a32) -
		t.a12*(t.a21*t.a33-t.a23*t.a31) +
		t.a13*(t.a21*t.a32-t.a22*t.a31)
	return det != 0 && !math.IsNaN(det) && !math.IsInf(det, 0)
}
