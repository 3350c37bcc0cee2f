package linefit

import (
	"cmp"
	"image"
	"math"
	"slices"

	"github.com/ericlevine/symscan/geometry"
)

// HoughCell is one (angle, distance) bucket of a Hough accumulator.
type HoughCell struct {
	Angle, Dist int
	// Count is the number of direct votes.
	Count int
	// Weight sums direct and neighbour votes.
	Weight float64
	// Objects holds the values passed with direct votes.
	Objects []any
}

// Hough accumulates line votes over angle buckets in [0, pi) and signed
// distance buckets measured from the center of Bounds. Cells are created on
// their first vote and never removed.
type Hough struct {
	angles, dists int
	bounds        image.Rectangle
	center        geometry.Point
	radius        float64
	cos, sin      []float64
	cells         map[int]*HoughCell
}

// directedWindow is the half width, in angle buckets, of AddDirected.
const directedWindow = 3

// NewHough creates an accumulator with the given bucket counts covering
// lines that cross bounds.
func NewHough(angleBuckets, distBuckets int, bounds image.Rectangle) *Hough {
	angleBuckets = max(angleBuckets, 1)
	distBuckets = max(distBuckets, 1)
	h := &Hough{
		angles: angleBuckets,
		dists:  distBuckets,
		bounds: bounds,
		center: geometry.Pt(float64(bounds.Min.X+bounds.Max.X)/2, float64(bounds.Min.Y+bounds.Max.Y)/2),
		radius: math.Hypot(float64(bounds.Dx()), float64(bounds.Dy()))/2 + 1,
		cos:    make([]float64, angleBuckets),
		sin:    make([]float64, angleBuckets),
		cells:  make(map[int]*HoughCell),
	}
	for i := range h.cos {
		h.sin[i], h.cos[i] = math.Sincos(h.theta(i))
	}
	return h
}

func (h *Hough) theta(i int) float64 { return float64(i) * math.Pi / float64(h.angles) }

// Size returns the number of angle and distance buckets.
func (h *Hough) Size() (angles, dists int) { return h.angles, h.dists }

// Reset removes all votes, keeping the cell map's storage.
func (h *Hough) Reset() { clear(h.cells) }

func (h *Hough) vote(i, j int, weight float64, direct bool, obj any) {
	if j < 0 || j >= h.dists {
		return
	}
	key := i*h.dists + j
	c := h.cells[key]
	if c == nil {
		c = &HoughCell{Angle: i, Dist: j}
		h.cells[key] = c
	}
	c.Weight += weight
	if direct {
		c.Count++
		if obj != nil {
			c.Objects = append(c.Objects, obj)
		}
	}
}

// voteAngle votes p into angle bucket i. A point within a quarter bucket of
// a distance boundary also gives half its weight to the neighbour bucket.
func (h *Hough) voteAngle(p geometry.Point, i int, weight float64, obj any) {
	d := p.Sub(h.center)
	rho := d.X*h.cos[i] + d.Y*h.sin[i]
	f := (rho + h.radius) / (2 * h.radius) * float64(h.dists)
	j := int(math.Floor(f))
	frac := f - float64(j)
	h.vote(i, j, weight, true, obj)
	switch {
	case frac < 0.25:
		h.vote(i, j-1, weight/2, false, nil)
	case frac > 0.75:
		h.vote(i, j+1, weight/2, false, nil)
	}
}

// Add votes p for every angle bucket.
func (h *Hough) Add(p geometry.Point, weight float64, obj any) {
	for i := 0; i < h.angles; i++ {
		h.voteAngle(p, i, weight, obj)
	}
}

// AddDirected votes p only near the line normal angle, which is usually
// the local gradient direction. The seven buckets around it get the
// weights 1/4, 2/4, 3/4, 1, 3/4, 2/4, 1/4.
func (h *Hough) AddDirected(p geometry.Point, normalAngle, weight float64, obj any) {
	t := math.Mod(normalAngle, math.Pi)
	if t < 0 {
		t += math.Pi
	}
	ic := int(math.Round(t / math.Pi * float64(h.angles)))
	for k := -directedWindow; k <= directedWindow; k++ {
		i := ((ic+k)%h.angles + h.angles) % h.angles
		w := weight * float64(directedWindow+1-abs(k)) / float64(directedWindow+1)
		h.voteAngle(p, i, w, obj)
	}
}

// Cells returns all cells, strongest first. Ties fall back to the direct
// vote count and then to the bucket position.
func (h *Hough) Cells() []*HoughCell {
	out := make([]*HoughCell, 0, len(h.cells))
	for _, c := range h.cells {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *HoughCell) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Angle, b.Angle); c != 0 {
			return c
		}
		return cmp.Compare(a.Dist, b.Dist)
	})
	return out
}

// Theta returns the normal angle of a cell in [0, pi).
func (h *Hough) Theta(c *HoughCell) float64 { return h.theta(c.Angle) }

// Rho returns the signed distance at the middle of a cell's bucket.
func (h *Hough) Rho(c *HoughCell) float64 {
	return (float64(c.Dist)+0.5)/float64(h.dists)*2*h.radius - h.radius
}

// AngleDiff returns the distance between two angle buckets on the circle of
// undirected lines.
func (h *Hough) AngleDiff(a, b int) int {
	d := abs(a-b) % h.angles
	return min(d, h.angles-d)
}

// CellLine returns the line a cell stands for.
func (h *Hough) CellLine(c *HoughCell) geometry.Line {
	n := geometry.Pt(h.cos[c.Angle], h.sin[c.Angle])
	return geometry.Line{A: n.X, B: n.Y, C: -n.Dot(h.center) - h.Rho(c)}
}

// Segment clips a cell's line to rect and returns the two end points. A
// line that is closer to horizontal is clipped first against the left and
// right borders, a steeper one against the top and bottom; the cut then
// moves to the crossing borders when it leaves rect. ok is false when the
// line misses rect.
func (h *Hough) Segment(c *HoughCell, rect image.Rectangle) (p, q geometry.Point, ok bool) {
	l := h.CellLine(c)
	x0, x1 := float64(rect.Min.X), float64(rect.Max.X-1)
	y0, y1 := float64(rect.Min.Y), float64(rect.Max.Y-1)
	const eps = 1e-9
	inY := func(y float64) bool { return y >= y0-eps && y <= y1+eps }
	inX := func(x float64) bool { return x >= x0-eps && x <= x1+eps }

	if math.Abs(l.B) >= math.Abs(l.A) {
		// Mostly horizontal: start from the left and right borders.
		ya, _ := l.YAt(x0)
		yb, _ := l.YAt(x1)
		p, q = geometry.Pt(x0, ya), geometry.Pt(x1, yb)
		if !inY(ya) {
			p, ok = clipToRows(l, ya, y0, y1)
			if !ok || !inX(p.X) {
				return p, q, false
			}
		}
		if !inY(yb) {
			q, ok = clipToRows(l, yb, y0, y1)
			if !ok || !inX(q.X) {
				return p, q, false
			}
		}
		return p, q, true
	}
	// Mostly vertical: start from the top and bottom borders.
	xa, _ := l.XAt(y0)
	xb, _ := l.XAt(y1)
	p, q = geometry.Pt(xa, y0), geometry.Pt(xb, y1)
	if !inX(xa) {
		p, ok = clipToCols(l, xa, x0, x1)
		if !ok || !inY(p.Y) {
			return p, q, false
		}
	}
	if !inX(xb) {
		q, ok = clipToCols(l, xb, x0, x1)
		if !ok || !inY(q.Y) {
			return p, q, false
		}
	}
	return p, q, true
}

// clipToRows moves an end point that left through the top or bottom border
// back onto that border.
func clipToRows(l geometry.Line, y, y0, y1 float64) (geometry.Point, bool) {
	row := y0
	if y > y1 {
		row = y1
	}
	x, ok := l.XAt(row)
	return geometry.Pt(x, row), ok
}

// clipToCols moves an end point that left through the left or right border
// back onto that border.
func clipToCols(l geometry.Line, x, x0, x1 float64) (geometry.Point, bool) {
	col := x0
	if x > x1 {
		col = x1
	}
	y, ok := l.YAt(col)
	return geometry.Pt(col, y), ok
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
