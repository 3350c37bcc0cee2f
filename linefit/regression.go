// Package linefit estimates edges: least-squares fits of paired parallel
// edges and a Hough accumulator for dominant lines.
package linefit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/geometry"
)

// sideFit is the least-squares line through one point set.
type sideFit struct {
	normal   geometry.Point // unit length
	mean     geometry.Point
	residual float64 // RMS perpendicular distance
	n        int
}

// fitSide fits the points with y = a + b*x when x spreads wider than y and
// with x = a + b*y otherwise. Coordinates are centered on their mean first.
func fitSide(pts []geometry.Point) (sideFit, bool) {
	if len(pts) < 2 {
		return sideFit{}, false
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	mx, vx := stat.MeanVariance(xs, nil)
	my, vy := stat.MeanVariance(ys, nil)
	if vx == 0 && vy == 0 {
		return sideFit{}, false
	}
	floats.AddConst(-mx, xs)
	floats.AddConst(-my, ys)
	var normal geometry.Point
	if vx >= vy {
		_, slope := stat.LinearRegression(xs, ys, nil, true)
		normal = geometry.Pt(-slope, 1).Norm()
	} else {
		_, slope := stat.LinearRegression(ys, xs, nil, true)
		normal = geometry.Pt(1, -slope).Norm()
	}
	var ss float64
	for i := range xs {
		d := normal.X*xs[i] + normal.Y*ys[i]
		ss += d * d
	}
	return sideFit{
		normal:   normal,
		mean:     geometry.Pt(mx, my),
		residual: math.Sqrt(ss / float64(len(xs))),
		n:        len(xs),
	}, true
}

// FitLine fits a single line through pts and returns it with the RMS
// perpendicular residual.
func FitLine(pts []geometry.Point) (geometry.Line, float64, error) {
	f, ok := fitSide(pts)
	if !ok {
		return geometry.Line{}, 0, fmt.Errorf("fit over %d points: %w", len(pts), symscan.ErrDegenerateGeometry)
	}
	return geometry.LineFromNormal(f.normal, f.mean), f.residual, nil
}

// Regression fits two roughly parallel edges that share one normal. The
// normal comes from whichever edge fits its points better; each edge keeps
// its own offset.
type Regression struct {
	a, b []geometry.Point

	normal         geometry.Point
	lineA, lineB   geometry.Line
	residual       float64
	fitted, useful bool
}

// AddA adds a point of the first edge.
func (r *Regression) AddA(p geometry.Point) {
	r.a = append(r.a, p)
	r.fitted = false
}

// AddB adds a point of the second edge.
func (r *Regression) AddB(p geometry.Point) {
	r.b = append(r.b, p)
	r.fitted = false
}

// Count returns the number of points on each edge.
func (r *Regression) Count() (a, b int) { return len(r.a), len(r.b) }

// Reset drops all points, keeping the allocations.
func (r *Regression) Reset() {
	r.a, r.b = r.a[:0], r.b[:0]
	r.fitted, r.useful = false, false
}

// Fit computes both lines. An edge with fewer than two points borrows the
// other edge's normal; one point is then enough to place it. With no usable
// edge Fit returns ErrDegenerateGeometry and both lines are invalid.
func (r *Regression) Fit() error {
	r.fitted = true
	r.useful = false
	r.lineA, r.lineB = geometry.Line{}, geometry.Line{}
	fa, okA := fitSide(r.a)
	fb, okB := fitSide(r.b)
	var best sideFit
	switch {
	case okA && okB:
		best = fa
		if fb.residual < fa.residual {
			best = fb
		}
	case okA:
		best = fa
	case okB:
		best = fb
	default:
		return fmt.Errorf("regression over %d+%d points: %w", len(r.a), len(r.b), symscan.ErrDegenerateGeometry)
	}
	n := best.normal
	if len(r.a) > 0 && len(r.b) > 0 {
		// Orient the normal from edge A towards edge B.
		if n.Dot(geometry.Centroid(r.b...).Sub(geometry.Centroid(r.a...))) < 0 {
			n = n.Mul(-1)
		}
	}
	r.normal = n
	r.residual = best.residual
	if len(r.a) > 0 {
		r.lineA = geometry.LineFromNormal(n, geometry.Centroid(r.a...))
	}
	if len(r.b) > 0 {
		r.lineB = geometry.LineFromNormal(n, geometry.Centroid(r.b...))
	}
	r.useful = true
	return nil
}

func (r *Regression) ensure() {
	if !r.fitted {
		_ = r.Fit()
	}
}

// LineA returns the first edge, invalid when it could not be fitted.
func (r *Regression) LineA() geometry.Line { r.ensure(); return r.lineA }

// LineB returns the second edge, invalid when it could not be fitted.
func (r *Regression) LineB() geometry.Line { r.ensure(); return r.lineB }

// Normal returns the shared unit normal, pointing from A to B.
func (r *Regression) Normal() geometry.Point { r.ensure(); return r.normal }

// Residual returns the RMS residual of the edge that set the normal.
func (r *Regression) Residual() float64 { r.ensure(); return r.residual }

// Valid reports whether the last fit succeeded.
func (r *Regression) Valid() bool { r.ensure(); return r.useful }

// DistA returns the signed distance of p from edge A.
func (r *Regression) DistA(p geometry.Point) float64 { return r.LineA().Dist(p) }

// DistB returns the signed distance of p from edge B.
func (r *Regression) DistB(p geometry.Point) float64 { return r.LineB().Dist(p) }

// Spacing returns the distance between the two edges, or NaN when either is
// missing.
func (r *Regression) Spacing() float64 {
	a, b := r.LineA(), r.LineB()
	if !a.Valid() || !b.Valid() {
		return math.NaN()
	}
	return math.Abs(a.C - b.C)
}
