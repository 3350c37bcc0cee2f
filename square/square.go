package square

import (
	"fmt"
	"math"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/geometry"
	"github.com/ericlevine/symscan/linefit"
)

// Options tune Validate. Zero fields select the defaults.
type Options struct {
	// Height is the expected length of the left and right sides. Zero
	// assumes a square.
	Height float64

	// Tolerance bounds the relative difference of the diagonals and of
	// opposite sides.
	Tolerance float64

	// MaxCos bounds the cosine of every corner angle.
	MaxCos float64

	// MaxSlopeVariance bounds the slope variance of each side after the
	// envelope refit.
	MaxSlopeVariance float64

	// EnvelopeTolerance is how far, in pixels, an edge point may lie inside
	// the first fit and still be kept.
	EnvelopeTolerance float64
}

// Defaults for Options.
const (
	DefaultTolerance         = 0.3
	DefaultMaxCos            = 0.2
	DefaultMaxSlopeVariance  = 1.0
	DefaultEnvelopeTolerance = 1.0
)

func (o *Options) withDefaults() Options {
	var c Options
	if o != nil {
		c = *o
	}
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.MaxCos <= 0 {
		c.MaxCos = DefaultMaxCos
	}
	if c.MaxSlopeVariance <= 0 {
		c.MaxSlopeVariance = DefaultMaxSlopeVariance
	}
	if c.EnvelopeTolerance <= 0 {
		c.EnvelopeTolerance = DefaultEnvelopeTolerance
	}
	return c
}

// minSide is the shortest side, in pixels, Validate looks at.
const minSide = 4

// Validate confirms a finder whose left and right edges pass through left
// and right, and returns it with measured corners. Each side is located by
// rays cast from outside, refitted on its outer envelope, and the opposite
// pairs are fitted with a shared normal. The search runs twice, the second
// time along the sides found by the first. The finder is rejected with
// ErrGeometryRejected unless its diagonals and opposite sides agree within
// Tolerance, its corners are near right angles and the quad is simple.
func Validate(bm symscan.Bitmap, left, right geometry.Point, opts *Options) (*SquareFinder, error) {
	o := opts.withDefaults()
	w := left.Dist(right)
	if w < minSide || !left.IsFinite() || !right.IsFinite() {
		return nil, fmt.Errorf("finder width %.1f: %w", w, symscan.ErrGeometryRejected)
	}
	h := o.Height
	if h <= 0 {
		h = w
	}
	u := right.Sub(left).Norm()
	v := u.Perp()
	c := left.Lerp(right, 0.5)
	sides := [4]side{
		{mid: c.Sub(v.Mul(h / 2)), out: v.Mul(-1), tan: u, half: w / 2, reach: max(minSide, 0.25*h)},
		{mid: right, out: u, tan: v, half: h / 2, reach: max(minSide, 0.1*w)},
		{mid: c.Add(v.Mul(h / 2)), out: v, tan: u, half: w / 2, reach: max(minSide, 0.25*h)},
		{mid: left, out: u.Mul(-1), tan: v, half: h / 2, reach: max(minSide, 0.1*w)},
	}
	q, edges, err := fitQuad(bm, sides, o.EnvelopeTolerance)
	if err != nil {
		return nil, err
	}
	center := q.Center()
	for i := range sides {
		a, b := q.Edge(i)
		tan := b.Sub(a).Norm()
		out := tan.Perp()
		mid := a.Lerp(b, 0.5)
		if out.Dot(mid.Sub(center)) < 0 {
			out = out.Mul(-1)
		}
		l := a.Dist(b)
		sides[i] = side{mid: mid, out: out, tan: tan, half: l / 2, reach: max(3, 0.08*l)}
	}
	if q, edges, err = fitQuad(bm, sides, o.EnvelopeTolerance); err != nil {
		return nil, err
	}
	if err := check(q, edges, &o); err != nil {
		return nil, err
	}
	return newSquareFinder(q), nil
}

func rejected(format string, args ...any) error {
	return fmt.Errorf("finder "+format+": %w", append(args, symscan.ErrGeometryRejected)...)
}

// fitQuad probes the four sides (top, right, bottom, left) and intersects
// the fitted lines.
func fitQuad(bm symscan.Bitmap, sides [4]side, envelope float64) (geometry.Quad, [4]*EdgeVar, error) {
	var edges [4]*EdgeVar
	for i, s := range sides {
		e := probe(bm, s)
		if err := e.Envelope(envelope); err != nil {
			return geometry.Quad{}, edges, rejected("side %d: %v", i, err)
		}
		edges[i] = e
	}
	var tb, lr linefit.Regression
	for _, p := range edges[0].Points {
		tb.AddA(p)
	}
	for _, p := range edges[2].Points {
		tb.AddB(p)
	}
	for _, p := range edges[3].Points {
		lr.AddA(p)
	}
	for _, p := range edges[1].Points {
		lr.AddB(p)
	}
	if err := tb.Fit(); err != nil {
		return geometry.Quad{}, edges, rejected("top and bottom: %v", err)
	}
	if err := lr.Fit(); err != nil {
		return geometry.Quad{}, edges, rejected("left and right: %v", err)
	}
	top, bottom := tb.LineA(), tb.LineB()
	l, r := lr.LineA(), lr.LineB()
	var q geometry.Quad
	var ok [4]bool
	q.A, ok[0] = geometry.Intersect(l, top)
	q.B, ok[1] = geometry.Intersect(top, r)
	q.C, ok[2] = geometry.Intersect(r, bottom)
	q.D, ok[3] = geometry.Intersect(bottom, l)
	for i, k := range ok {
		if !k {
			return geometry.Quad{}, edges, rejected("corner %d: parallel sides", i)
		}
	}
	return q, edges, nil
}

func check(q geometry.Quad, edges [4]*EdgeVar, o *Options) error {
	if !q.IsSimple() {
		return rejected("quad %v is not simple", q)
	}
	ac, bd := q.Diagonals()
	if d := relDiff(ac, bd); d > o.Tolerance {
		return rejected("diagonals %.1f and %.1f", ac, bd)
	}
	var lens [4]float64
	for i := range lens {
		a, b := q.Edge(i)
		lens[i] = a.Dist(b)
	}
	if relDiff(lens[0], lens[2]) > o.Tolerance || relDiff(lens[1], lens[3]) > o.Tolerance {
		return rejected("sides %.1f %.1f %.1f %.1f", lens[0], lens[1], lens[2], lens[3])
	}
	for i := range 4 {
		a, b := q.Edge(i)
		_, c := q.Edge(i + 1)
		cos := b.Sub(a).Norm().Dot(c.Sub(b).Norm())
		if math.Abs(cos) > o.MaxCos {
			return rejected("corner %d cosine %.2f", i+1, cos)
		}
	}
	for i, e := range edges {
		if _, v := e.Slope(); v > o.MaxSlopeVariance {
			return rejected("side %d slope variance %.2f", i, v)
		}
	}
	return nil
}

// SquareFinder is a confirmed finder. Corner A is the top left of the
// finder's own frame, B the top right, C the bottom right and D the bottom
// left.
type SquareFinder struct {
	geometry.Quad

	// Right and Down are unit vectors along the top and left sides.
	Right, Down geometry.Point

	// Width and Height are the mean lengths of opposite sides.
	Width, Height float64

	// ModuleX and ModuleY step one module along Right and Down once
	// SetModules has been called.
	ModuleX, ModuleY geometry.Point
	Cols, Rows       int
}

func newSquareFinder(q geometry.Quad) *SquareFinder {
	s := &SquareFinder{Quad: q}
	s.measure()
	return s
}

func (s *SquareFinder) measure() {
	q := s.Quad
	s.Right = q.B.Sub(q.A).Add(q.C.Sub(q.D)).Norm()
	s.Down = q.D.Sub(q.A).Add(q.C.Sub(q.B)).Norm()
	s.Width = (q.A.Dist(q.B) + q.D.Dist(q.C)) / 2
	s.Height = (q.A.Dist(q.D) + q.B.Dist(q.C)) / 2
	if s.Cols > 0 && s.Rows > 0 {
		s.ModuleX = s.Right.Mul(s.Width / float64(s.Cols))
		s.ModuleY = s.Down.Mul(s.Height / float64(s.Rows))
	}
}

// NewSquareFinder wraps corners that were measured elsewhere.
func NewSquareFinder(q geometry.Quad) *SquareFinder { return newSquareFinder(q) }

// SetModules divides the sides into cols by rows modules.
func (s *SquareFinder) SetModules(cols, rows int) {
	s.Cols, s.Rows = cols, rows
	s.measure()
}

// ModuleLength returns the mean module side in pixels, or 0 before
// SetModules.
func (s *SquareFinder) ModuleLength() float64 {
	if s.Cols <= 0 || s.Rows <= 0 {
		return 0
	}
	return (s.Width/float64(s.Cols) + s.Height/float64(s.Rows)) / 2
}

// Rotate90 relabels the corners k quarter turns, as geometry.Quad.Rotate90
// does, and swaps the module counts on odd turns.
func (s *SquareFinder) Rotate90(k int) {
	s.Quad = s.Quad.Rotate90(k)
	if k%2 != 0 {
		s.Cols, s.Rows = s.Rows, s.Cols
	}
	s.measure()
}

// Angle returns the direction of the top side in radians.
func (s *SquareFinder) Angle() float64 { return s.Right.Angle() }
