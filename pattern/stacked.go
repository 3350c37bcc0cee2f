package pattern

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/geometry"
	"github.com/ericlevine/symscan/linefit"
)

var errDegenerate = fmt.Errorf("stacked pattern edges: %w", symscan.ErrDegenerateGeometry)

// Hit is one decoded scan line of a stacked or linear symbol.
type Hit struct {
	Row int

	// Left is where the first element starts and Right where the last one
	// ends, in image coordinates.
	Left, Right geometry.Point

	// StartID identifies the start pattern; hits only join candidates with
	// the same id.
	StartID int

	ModuleLength float64
	Confidence   float64
	Codewords    []int
}

// StackedPattern collects the hits of one symbol over successive rows.
type StackedPattern struct {
	StartID           int
	FirstRow, LastRow int
	Left, Right       []geometry.Point

	// MeanModule is the running mean module length.
	MeanModule float64
	Confidence float64
	Hits       int

	lengths map[int]int
	votes   map[int][]map[int]int
}

func newStacked(h Hit) *StackedPattern {
	p := &StackedPattern{
		StartID:  h.StartID,
		FirstRow: h.Row,
		LastRow:  h.Row,
		lengths:  map[int]int{},
		votes:    map[int][]map[int]int{},
	}
	p.add(h)
	return p
}

func (p *StackedPattern) add(h Hit) {
	p.Hits++
	p.LastRow = max(p.LastRow, h.Row)
	p.FirstRow = min(p.FirstRow, h.Row)
	p.Left = append(p.Left, h.Left)
	p.Right = append(p.Right, h.Right)
	p.MeanModule += (h.ModuleLength - p.MeanModule) / float64(p.Hits)
	p.Confidence += (h.Confidence - p.Confidence) / float64(p.Hits)
	if len(h.Codewords) == 0 {
		return
	}
	n := len(h.Codewords)
	p.lengths[n]++
	v := p.votes[n]
	if v == nil {
		v = make([]map[int]int, n)
		for i := range v {
			v[i] = map[int]int{}
		}
		p.votes[n] = v
	}
	for i, c := range h.Codewords {
		v[i][c]++
	}
}

// Majority returns the codewords voted for by most rows, and how many rows
// decoded a sequence of that length. The most frequent length is taken
// first, then the most frequent codeword at each position; ties go to the
// longer sequence and the smaller codeword.
func (p *StackedPattern) Majority() ([]int, int) {
	bestLen, support := 0, 0
	for n, c := range p.lengths {
		if c > support || (c == support && n > bestLen) {
			bestLen, support = n, c
		}
	}
	if support == 0 {
		return nil, 0
	}
	out := make([]int, bestLen)
	for i, counts := range p.votes[bestLen] {
		best, votes := 0, 0
		for c, v := range counts {
			if v > votes || (v == votes && c < best) {
				best, votes = c, v
			}
		}
		out[i] = best
	}
	return out, support
}

// Corners fits the left and right edges through the hit end points and
// closes them with lines across the first and last hits, padded by half a
// pixel. With a single row the edges are taken perpendicular to the row.
func (p *StackedPattern) Corners() (geometry.Quad, error) {
	var r linefit.Regression
	for i := range p.Left {
		r.AddA(p.Left[i])
		r.AddB(p.Right[i])
	}
	n := r.Normal()
	left, right := r.LineA(), r.LineB()
	if p.Hits < 2 || !r.Valid() {
		n = geometry.Centroid(p.Right...).Sub(geometry.Centroid(p.Left...)).Norm()
		left = geometry.LineFromNormal(n, geometry.Centroid(p.Left...))
		right = geometry.LineFromNormal(n, geometry.Centroid(p.Right...))
	}
	if !left.Valid() || !right.Valid() {
		return geometry.Quad{}, errDegenerate
	}
	// Along-edge direction, pointing down the image.
	d := n.Perp()
	if d.Y < 0 || (d.Y == 0 && d.X < 0) {
		d = d.Mul(-1)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	var top, bottom geometry.Point
	for _, q := range slices.Concat(p.Left, p.Right) {
		t := q.Dot(d)
		if t < lo {
			lo, top = t, q
		}
		if t > hi {
			hi, bottom = t, q
		}
	}
	topLine := geometry.LineFromNormal(d, top.Sub(d.Mul(0.5)))
	bottomLine := geometry.LineFromNormal(d, bottom.Add(d.Mul(0.5)))
	var q geometry.Quad
	var ok [4]bool
	q.A, ok[0] = geometry.Intersect(left, topLine)
	q.B, ok[1] = geometry.Intersect(right, topLine)
	q.C, ok[2] = geometry.Intersect(right, bottomLine)
	q.D, ok[3] = geometry.Intersect(left, bottomLine)
	if !ok[0] || !ok[1] || !ok[2] || !ok[3] {
		return geometry.Quad{}, errDegenerate
	}
	return q, nil
}

// Accumulator groups hits into stacked candidates. A hit joins the closest
// live candidate with the same start id whose last edges lie within a few
// modules; otherwise it opens a new one. Candidates live in a slice whose
// indices stay valid until Prune or Flush compacts it.
type Accumulator struct {
	// MaxGap is the number of rows a candidate may go without hits.
	MaxGap int

	// TimeConstant extends MaxGap to this fraction of the candidate height.
	TimeConstant float64

	// MinRows is the number of hits a candidate needs to be reported.
	MinRows int

	patterns []*StackedPattern
	active   []bool
}

// edgeModules is how far, in modules, a hit may stray from the last edges
// of a candidate.
const edgeModules = 4

// Add files h under a candidate.
func (a *Accumulator) Add(h Hit) {
	best, bestDist := -1, math.Inf(1)
	for i, p := range a.patterns {
		if !a.active[i] || p.StartID != h.StartID || h.Row < p.LastRow {
			continue
		}
		tol := edgeModules * max(p.MeanModule, h.ModuleLength, 1)
		l, r := p.Left[len(p.Left)-1], p.Right[len(p.Right)-1]
		dl, dr := math.Abs(h.Left.X-l.X), math.Abs(h.Right.X-r.X)
		if dl > tol || dr > tol {
			continue
		}
		if d := dl + dr; d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		a.patterns[best].add(h)
		return
	}
	a.patterns = append(a.patterns, newStacked(h))
	a.active = append(a.active, true)
}

// Len returns the number of live candidates.
func (a *Accumulator) Len() int { return len(a.patterns) }

// LiveSince reports whether a live candidate began before row.
func (a *Accumulator) LiveSince(row int) bool {
	for i, p := range a.patterns {
		if a.active[i] && p.FirstRow < row {
			return true
		}
	}
	return false
}

// Prune finalizes candidates that have seen no hit for too long before row
// and returns those with enough rows.
func (a *Accumulator) Prune(row int) []*StackedPattern {
	for i, p := range a.patterns {
		limit := max(float64(a.MaxGap), a.TimeConstant*float64(p.LastRow-p.FirstRow+1))
		if float64(row-p.LastRow) > limit {
			a.active[i] = false
		}
	}
	return a.compact()
}

// Flush finalizes every candidate.
func (a *Accumulator) Flush() []*StackedPattern {
	for i := range a.active {
		a.active[i] = false
	}
	return a.compact()
}

// compact swap-removes inactive candidates and returns the reportable ones
// in row order.
func (a *Accumulator) compact() []*StackedPattern {
	var out []*StackedPattern
	for i := 0; i < len(a.patterns); {
		if a.active[i] {
			i++
			continue
		}
		if p := a.patterns[i]; p.Hits >= a.MinRows {
			out = append(out, p)
		}
		last := len(a.patterns) - 1
		a.patterns[i], a.active[i] = a.patterns[last], a.active[last]
		a.patterns[last] = nil
		a.patterns, a.active = a.patterns[:last], a.active[:last]
	}
	slices.SortFunc(out, func(x, y *StackedPattern) int {
		if c := cmp.Compare(x.FirstRow, y.FirstRow); c != 0 {
			return c
		}
		return cmp.Compare(x.Left[0].X, y.Left[0].X)
	})
	return out
}
