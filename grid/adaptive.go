package grid

import "github.com/ericlevine/symscan/geometry"

// profile spaces n modules along an edge whose module width changes from w0
// at the start to w1 at the end. The first and last span modules keep their
// end width; in between the width changes linearly, so positions follow a
// quadratic.
type profile struct {
	n, w0, w1, span float64
}

func newProfile(n int, w0, w1 float64, span int) profile {
	if w0 <= 0 || w1 <= 0 {
		w0, w1 = 1, 1
	}
	s := min(float64(span), float64(n)/2)
	return profile{n: float64(n), w0: w0, w1: w1, span: max(s, 0)}
}

// integral returns the summed width of the modules before position x.
func (p profile) integral(x float64) float64 {
	s := p.span
	if x <= s {
		return p.w0 * x
	}
	acc := p.w0 * s
	m := p.n - 2*s
	if x <= p.n-s {
		t := x - s
		if m <= 0 {
			return acc
		}
		return acc + p.w0*t + (p.w1-p.w0)*t*t/(2*m)
	}
	acc += m * (p.w0 + p.w1) / 2
	return acc + p.w1*(x-(p.n-s))
}

// at returns position x as a fraction of the edge.
func (p profile) at(x float64) float64 {
	total := p.integral(p.n)
	if total == 0 {
		return 0
	}
	return p.integral(x) / total
}

// AdaptiveGrid spaces modules by the module width and height measured at
// each corner. ModuleW and ModuleH are indexed like Quad.Corners.
type AdaptiveGrid struct {
	Quad             geometry.Quad
	Cols, Rows       int
	ModuleW, ModuleH [4]float64

	span int
}

// NewAdaptiveGrid creates a grid from per-corner module sizes.
func NewAdaptiveGrid(q geometry.Quad, cols, rows int, moduleW, moduleH [4]float64) *AdaptiveGrid {
	return &AdaptiveGrid{Quad: q, Cols: cols, Rows: rows, ModuleW: moduleW, ModuleH: moduleH}
}

func (g *AdaptiveGrid) Size() (cols, rows int) { return g.Cols, g.Rows }

// SamplePoint crosses the line joining the interpolated points on the top
// and bottom edges with the line joining those on the left and right edges.
func (g *AdaptiveGrid) SamplePoint(col, row int) geometry.Point {
	q := g.Quad
	x, y := float64(col)+0.5, float64(row)+0.5
	top := q.A.Lerp(q.B, newProfile(g.Cols, g.ModuleW[0], g.ModuleW[1], g.span).at(x))
	bottom := q.D.Lerp(q.C, newProfile(g.Cols, g.ModuleW[3], g.ModuleW[2], g.span).at(x))
	left := q.A.Lerp(q.D, newProfile(g.Rows, g.ModuleH[0], g.ModuleH[3], g.span).at(y))
	right := q.B.Lerp(q.C, newProfile(g.Rows, g.ModuleH[1], g.ModuleH[2], g.span).at(y))
	if p, ok := geometry.Intersect(geometry.LineThrough(top, bottom), geometry.LineThrough(left, right)); ok {
		return p
	}
	return top.Lerp(bottom, y/float64(g.Rows))
}

// NotUniformGrid samples a symbol located by three finders of Span modules
// at its upper left, lower left and upper right corners, each with its own
// module length. Modules inside a finder's span keep that finder's length;
// between finders the length changes linearly. The lower right corner
// takes the module length the other three imply.
type NotUniformGrid struct {
	AdaptiveGrid
}

// NewNotUniformGrid creates a grid from the module lengths of the three
// finders.
func NewNotUniformGrid(q geometry.Quad, cols, rows, span int, upperLeft, lowerLeft, upperRight float64) *NotUniformGrid {
	lowerRight := lowerLeft + upperRight - upperLeft
	if lowerRight <= 0 {
		lowerRight = (lowerLeft + upperRight) / 2
	}
	m := [4]float64{upperLeft, upperRight, lowerRight, lowerLeft}
	return &NotUniformGrid{AdaptiveGrid{Quad: q, Cols: cols, Rows: rows, ModuleW: m, ModuleH: m, span: span}}
}
