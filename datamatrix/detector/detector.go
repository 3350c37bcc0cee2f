// Package detector locates Data Matrix symbols among the connected
// components of a bitmap.
//
// A symbol has an L-shaped finder of two solid sides, left and bottom, and
// two timing sides, top and right, whose modules alternate. The strongest
// straight edges of a component give the orientation of a candidate, its
// outermost boundary pixels the extent. The candidate is confirmed as a
// square finder, turned so that the solid corner is at the lower left, and
// the module counts are read off the timing sides.
package detector

import (
	"fmt"
	"image"
	"math"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/datamatrix/decoder"
	"github.com/ericlevine/symscan/geometry"
	"github.com/ericlevine/symscan/grid"
	"github.com/ericlevine/symscan/linefit"
	"github.com/ericlevine/symscan/slicer"
	"github.com/ericlevine/symscan/square"
)

// Hough accumulator resolution.
const (
	angleBuckets = 45
	distBucket   = 3.0
)

// Side classification.
const (
	// minSolid is the black fraction a solid side reaches.
	minSolid = 0.85
	// maxTimingBlack is the black fraction a timing side stays under.
	maxTimingBlack = 0.8
	// minTiming is the fraction of timing modules a grid must read right.
	minTiming = 0.85
	// inset is how far inside an edge the sides are sampled, in pixels.
	inset = 1.5
)

// normalRadius is the half width of the window over which the outward
// normal of a boundary pixel is estimated.
const normalRadius = 2

// Symbol is a located candidate. Corner A is the top left of the symbol,
// where the top timing side meets the solid left side, and D is the corner
// of the L.
type Symbol struct {
	*square.SquareFinder

	Version *decoder.Version

	// Timing is the fraction of timing modules that matched.
	Timing float64

	// ModuleW and ModuleH are the module sizes measured on the timing
	// sides near each corner, indexed like Quad.Corners.
	ModuleW, ModuleH [4]float64
}

func rejected(format string, args ...any) error {
	return fmt.Errorf("datamatrix: "+format+": %w", append(args, symscan.ErrPatternNotMatched)...)
}

// Locate finds the symbol whose finder belongs to seg, a component of the
// last run of s over bm.
func Locate(bm symscan.Bitmap, s *slicer.Slicer, seg slicer.Segment) (*Symbol, error) {
	left, right, height, err := Seed(s, seg)
	if err != nil {
		return nil, err
	}
	sq, err := square.Validate(bm, left, right, &square.Options{Height: height})
	if err != nil {
		return nil, err
	}
	if err := orient(bm, sq); err != nil {
		return nil, err
	}
	sym := &Symbol{SquareFinder: sq}
	if err := sym.dimension(bm); err != nil {
		return nil, err
	}
	sym.measureModules(bm)
	return sym, nil
}

// Seed estimates the left and right edge midpoints and the side height of
// the rectangle around seg. The two strongest line directions of the
// boundary come from a Hough accumulator fed with the local outward normal
// of every boundary pixel; the boundary pixels furthest along each normal
// place the sides.
func Seed(s *slicer.Slicer, seg slicer.Segment) (left, right geometry.Point, height float64, err error) {
	pts := s.Boundary(seg)
	if len(pts) < 8 {
		return left, right, 0, rejected("component %d has %d boundary pixels", seg.ID, len(pts))
	}
	b := seg.Bounds
	diag := math.Hypot(float64(b.Dx()), float64(b.Dy()))
	h := linefit.NewHough(angleBuckets, max(8, int((diag+2)/distBucket)), b)
	for _, p := range pts {
		n := outwardNormal(s, seg.ID, p)
		if n == (geometry.Point{}) {
			continue
		}
		h.AddDirected(pixelCenter(p), n.Angle(), 1, nil)
	}
	cells := h.Cells()
	if len(cells) == 0 {
		return left, right, 0, rejected("component %d has no edges", seg.ID)
	}
	first := cells[0]
	var second *linefit.HoughCell
	for _, c := range cells[1:] {
		if h.AngleDiff(first.Angle, c.Angle) >= angleBuckets/4 {
			second = c
			break
		}
	}
	if second == nil {
		return left, right, 0, rejected("component %d has a single edge direction", seg.ID)
	}

	n1 := h.CellLine(first).Normal().Norm()
	n2 := h.CellLine(second).Normal().Norm()
	lo1, hi1 := extent(pts, n1)
	lo2, hi2 := extent(pts, n2)
	corner := func(a, b float64) (geometry.Point, bool) {
		return geometry.Intersect(geometry.LineFromNormal(n1, n1.Mul(a)), geometry.LineFromNormal(n2, n2.Mul(b)))
	}
	var c [4]geometry.Point
	var ok [4]bool
	c[0], ok[0] = corner(lo1, lo2)
	c[1], ok[1] = corner(lo1, hi2)
	c[2], ok[2] = corner(hi1, lo2)
	c[3], ok[3] = corner(hi1, hi2)
	for _, k := range ok {
		if !k {
			return left, right, 0, rejected("component %d: parallel edges", seg.ID)
		}
	}
	// The sides on the lines of n1 are left and right when n1 is closer
	// to horizontal.
	m1, m2 := c[0].Lerp(c[1], 0.5), c[2].Lerp(c[3], 0.5)
	height = c[0].Dist(c[1])
	if math.Abs(n1.X) < math.Abs(n1.Y) {
		m1, m2 = c[0].Lerp(c[2], 0.5), c[1].Lerp(c[3], 0.5)
		height = c[0].Dist(c[2])
	}
	if m1.X > m2.X {
		m1, m2 = m2, m1
	}
	return m1, m2, height, nil
}

func pixelCenter(p image.Point) geometry.Point {
	return geometry.Pt(float64(p.X)+0.5, float64(p.Y)+0.5)
}

// outwardNormal sums the offsets of the pixels around p that lie outside
// component id.
func outwardNormal(s *slicer.Slicer, id int, p image.Point) geometry.Point {
	var n geometry.Point
	for dy := -normalRadius; dy <= normalRadius; dy++ {
		for dx := -normalRadius; dx <= normalRadius; dx++ {
			if s.LabelAt(p.X+dx, p.Y+dy) != id {
				n = n.Add(geometry.Pt(float64(dx), float64(dy)))
			}
		}
	}
	return n
}

// extent returns the smallest and largest projection of the pixel centers
// on n.
func extent(pts []image.Point, n geometry.Point) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		d := pixelCenter(p).Dot(n)
		lo, hi = min(lo, d), max(hi, d)
	}
	return lo, hi
}

// profile is a side sampled just inside the symbol.
type profile struct {
	black       float64
	transitions int
	// runs are the lengths in pixels of the runs of one colour.
	runs []float64
}

// sampleSide walks side i of q at depth pixels inside the quad.
func sampleSide(bm symscan.Bitmap, q geometry.Quad, i int, depth float64) profile {
	a, b := q.Edge(i)
	l := a.Dist(b)
	if l == 0 {
		return profile{}
	}
	dir := b.Sub(a).Norm()
	in := dir.Perp()
	if in.Dot(q.Center().Sub(a)) < 0 {
		in = in.Mul(-1)
	}
	const step = 0.5
	var p profile
	black, middle := 0, 0
	run := 0.0
	var prev bool
	for t := step; t < l; t += step {
		pt := a.Add(dir.Mul(t)).Add(in.Mul(depth))
		cur := symscan.In(bm, pt) && symscan.IsBlackAt(bm, pt)
		if t > 0.1*l && t < 0.9*l {
			middle++
			if cur {
				black++
			}
		}
		if t > step && cur != prev {
			p.transitions++
			p.runs = append(p.runs, run)
			run = 0
		}
		run += step
		prev = cur
	}
	p.runs = append(p.runs, run)
	if middle > 0 {
		p.black = float64(black) / float64(middle)
	}
	return p
}

// orient turns sq so that its two solid sides are the left and the
// bottom.
func orient(bm symscan.Bitmap, sq *square.SquareFinder) error {
	var black [4]float64
	for i := range black {
		black[i] = sampleSide(bm, sq.Quad, i, inset).black
	}
	best := 0
	for i := 1; i < 4; i++ {
		if black[i]+black[(i+1)%4] > black[best]+black[(best+1)%4] {
			best = i
		}
	}
	// Sides best and best+1 meet at corner best+1, which becomes D.
	s1, s2 := black[best], black[(best+1)%4]
	t1, t2 := black[(best+2)%4], black[(best+3)%4]
	if s1 < minSolid || s2 < minSolid {
		return rejected("no solid corner, sides %.2f %.2f %.2f %.2f", black[0], black[1], black[2], black[3])
	}
	if t1 > maxTimingBlack || t2 > maxTimingBlack {
		return rejected("no timing sides, sides %.2f %.2f %.2f %.2f", black[0], black[1], black[2], black[3])
	}
	sq.Rotate90((best + 2) % 4)
	return nil
}

// dimension picks the symbol size whose timing pattern the top and right
// sides match best. The transitions along those sides narrow the sizes
// tried.
func (s *Symbol) dimension(bm symscan.Bitmap) error {
	estCols := sampleSide(bm, s.Quad, 0, inset).transitions + 1
	estRows := sampleSide(bm, s.Quad, 1, inset).transitions + 1
	near := func(n, est int) bool {
		return abs(n-est) <= max(2, est/5)
	}
	bestScore, bestDiff := 0.0, 0
	for _, v := range decoder.Versions() {
		if !near(v.Cols, estCols) || !near(v.Rows, estRows) {
			continue
		}
		g := grid.NewPerspectiveGrid(s.Quad, v.Cols, v.Rows, false)
		ml := (s.Width/float64(v.Cols) + s.Height/float64(v.Rows)) / 2
		score := timingScore(bm, g, ml)
		diff := abs(v.Cols-estCols) + abs(v.Rows-estRows)
		if score > bestScore || (score == bestScore && s.Version != nil && diff < bestDiff) {
			s.Version, bestScore, bestDiff = v, score, diff
		}
	}
	if s.Version == nil || bestScore < minTiming {
		return rejected("no symbol size fits timing of about %dx%d modules", estRows, estCols)
	}
	s.Timing = bestScore
	s.SetModules(s.Version.Cols, s.Version.Rows)
	return nil
}

// timingScore returns the fraction of the top and right side modules of g
// that read as the timing pattern: dark on even columns along the top and
// on odd rows down the right.
func timingScore(bm symscan.Bitmap, g grid.Grid, moduleLength float64) float64 {
	cols, rows := g.Size()
	match := 0
	read := func(col, row int) bool {
		p := g.SamplePoint(col, row)
		return symscan.In(bm, p) && symscan.IsBlackSample(bm, p, moduleLength)
	}
	for c := 0; c < cols; c++ {
		if read(c, 0) == (c%2 == 0) {
			match++
		}
	}
	for r := 0; r < rows; r++ {
		if read(cols-1, r) == (r%2 == 1) {
			match++
		}
	}
	return float64(match) / float64(cols+rows)
}

// measureModules measures the module size near each corner from the runs
// of the timing sides. The solid sides have no runs and take the size of
// the opposite timing side.
func (s *Symbol) measureModules(bm symscan.Bitmap) {
	ml := s.ModuleLength()
	top := sampleSide(bm, s.Quad, 0, ml/2).runs
	right := sampleSide(bm, s.Quad, 1, ml/2).runs
	ws, we := runMean(top, ml, false), runMean(top, ml, true)
	hs, he := runMean(right, ml, false), runMean(right, ml, true)
	s.ModuleW = [4]float64{ws, we, we, ws}
	s.ModuleH = [4]float64{hs, hs, he, he}
}

// runMean averages up to three runs next to one end of a timing side,
// skipping the run at the corner. It falls back to def when the side has
// too few runs or they disagree with def by more than half.
func runMean(runs []float64, def float64, fromEnd bool) float64 {
	const n = 3
	if len(runs) < n+2 {
		return def
	}
	sum := 0.0
	for i := 1; i <= n; i++ {
		j := i
		if fromEnd {
			j = len(runs) - 1 - i
		}
		sum += runs[j]
	}
	m := sum / n
	if m < def/2 || m > 2*def {
		return def
	}
	return m
}

// Grids returns the sampling grids to try, most regular first: the
// bilinear and the projective interpolation of the corners, the grid
// spaced by the measured module sizes, and the grid that keeps the corner
// module sizes for two modules.
func (s *Symbol) Grids() []grid.Grid {
	q, cols, rows := s.Quad, s.Cols, s.Rows
	corner := func(i int) float64 { return (s.ModuleW[i] + s.ModuleH[i]) / 2 }
	return []grid.Grid{
		grid.NewPerspectiveGrid(q, cols, rows, false),
		grid.NewProjectiveGrid(q, cols, rows, false),
		grid.NewAdaptiveGrid(q, cols, rows, s.ModuleW, s.ModuleH),
		grid.NewNotUniformGrid(q, cols, rows, 2, corner(0), corner(3), corner(1)),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
