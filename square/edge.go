// Package square confirms four-sided finders from two opposite edge
// estimates and measures their corners and module vectors.
package square

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/geometry"
	"github.com/ericlevine/symscan/linefit"
)

// EdgeVar is one tracked side of a finder: the edge points found on it and
// the local slopes between neighbours.
type EdgeVar struct {
	// Outward is the unit normal pointing away from the finder.
	Outward geometry.Point
	Points  []geometry.Point

	line       geometry.Line
	localSlope []float64
}

// NewEdgeVar creates an empty edge facing outward.
func NewEdgeVar(outward geometry.Point) *EdgeVar {
	return &EdgeVar{Outward: outward.Norm()}
}

// Add appends an edge point.
func (e *EdgeVar) Add(p geometry.Point) { e.Points = append(e.Points, p) }

// Len returns the number of points.
func (e *EdgeVar) Len() int { return len(e.Points) }

// Fit fits a line through the points with its normal facing outward, so
// Dist is positive outside the finder.
func (e *EdgeVar) Fit() (geometry.Line, error) {
	l, _, err := linefit.FitLine(e.Points)
	if err != nil {
		return geometry.Line{}, err
	}
	if l.Normal().Dot(e.Outward) < 0 {
		l = geometry.Line{A: -l.A, B: -l.B, C: -l.C}
	}
	e.line = l
	return l, nil
}

// Line returns the last fitted line.
func (e *EdgeVar) Line() geometry.Line { return e.line }

// envelopeRounds bounds the refits of Envelope.
const envelopeRounds = 4

// Envelope refits the edge on its outer envelope: points more than tol
// inside the fit are dropped and the line refitted until no point falls
// away. A side made of alternating modules has its white modules found one
// module in or deeper; they fall away here. The slope statistics are
// recomputed over the remaining points.
func (e *EdgeVar) Envelope(tol float64) error {
	l, err := e.Fit()
	if err != nil {
		return err
	}
	for range envelopeRounds {
		kept := e.Points[:0]
		for _, p := range e.Points {
			if l.Dist(p) >= -tol {
				kept = append(kept, p)
			}
		}
		dropped := len(e.Points) - len(kept)
		e.Points = kept
		if len(kept) < 2 {
			return fmt.Errorf("edge envelope of %d points: %w", len(kept), symscan.ErrDegenerateGeometry)
		}
		if dropped == 0 {
			break
		}
		if l, err = e.Fit(); err != nil {
			return err
		}
	}
	e.slopes(l)
	return nil
}

// slopes records the slopes between neighbouring points, ordered along l.
func (e *EdgeVar) slopes(l geometry.Line) {
	dir := l.Direction()
	pts := slices.Clone(e.Points)
	slices.SortFunc(pts, func(a, b geometry.Point) int { return cmp.Compare(a.Dot(dir), b.Dot(dir)) })
	e.localSlope = e.localSlope[:0]
	for i := 1; i < len(pts); i++ {
		dt := pts[i].Dot(dir) - pts[i-1].Dot(dir)
		if dt == 0 {
			continue
		}
		e.localSlope = append(e.localSlope, (l.Dist(pts[i])-l.Dist(pts[i-1]))/dt)
	}
}

// Slope returns the mean and population variance of the local slope
// relative to the fitted line. A straight edge has both near zero.
func (e *EdgeVar) Slope() (mean, variance float64) {
	if len(e.localSlope) == 0 {
		return 0, 0
	}
	return stat.PopMeanVariance(e.localSlope, nil)
}

// side is where a finder edge is searched for.
type side struct {
	mid, out, tan geometry.Point
	half          float64
	reach         float64
}

// probes per side length.
const probesPerSide = 60

// probe walks rays from outside the expected edge inward and records where
// each first meets a black pixel. Rays that start on black are skipped.
// Probes cover the middle 80% of the side, clear of the corners.
func probe(bm symscan.Bitmap, s side) *EdgeVar {
	e := NewEdgeVar(s.out)
	step := max(1, 2*s.half/probesPerSide)
	for t := -0.8 * s.half; t <= 0.8*s.half; t += step {
		base := s.mid.Add(s.tan.Mul(t))
		if symscan.IsBlackAt(bm, base.Add(s.out.Mul(s.reach))) {
			continue
		}
		for d := s.reach; d >= -s.reach; d -= 0.5 {
			if symscan.IsBlackAt(bm, base.Add(s.out.Mul(d))) {
				e.Add(base.Add(s.out.Mul(d + 0.25)))
				break
			}
		}
	}
	return e
}

func relDiff(a, b float64) float64 {
	m := math.Max(a, b)
	if m == 0 {
		return 0
	}
	return math.Abs(a-b) / m
}
