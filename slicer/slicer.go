// Package slicer labels connected groups of black pixels and filters them by
// size, aspect ratio and texture.
package slicer

import (
	"cmp"
	"context"
	"image"
	"slices"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

// Options bound the components a Slicer reports.
type Options struct {
	// MinDist is the lookback, in pixels, within which two black pixels are
	// connected. 1 gives 8-connectivity.
	MinDist int

	// MinRad and MaxRad bound the larger side of the bounding box. Zero
	// MaxRad means no upper bound.
	MinRad, MaxRad int

	// MinRatio and MaxRatio bound the ratio of the longer to the shorter
	// side. Zero MaxRatio skips the upper check.
	MinRatio, MaxRatio float64

	// MaxEntropy bounds the mean number of colour transitions per row and
	// column of the bounding box. Zero disables the check.
	MaxEntropy float64
}

// Segment is one connected component.
type Segment struct {
	ID      int
	Bounds  image.Rectangle
	Count   int
	Entropy float64
}

type stats struct {
	minX, minY, maxX, maxY int
	count                  int
}

// Slicer labels a bitmap band by band. It keeps its label buffer between
// runs and is not safe for concurrent use; workers each own one.
type Slicer struct {
	Options

	width  int
	y0, y1 int
	labels []int32
	parent []int32
	row    *bitutil.BitArray
}

// New creates a slicer. A MinDist below 1 is raised to 1.
func New(opts Options) *Slicer {
	opts.MinDist = max(opts.MinDist, 1)
	return &Slicer{Options: opts}
}

func (s *Slicer) find(l int32) int32 {
	for s.parent[l] != l {
		s.parent[l] = s.parent[s.parent[l]]
		l = s.parent[l]
	}
	return l
}

// union joins two roots under the smaller label and returns it.
func (s *Slicer) union(a, b int32) int32 {
	if a > b {
		a, b = b, a
	}
	s.parent[b] = a
	return a
}

// Run labels the black pixels of bm and returns the components whose top
// row lies within rows, in row order. Rows up to MaxRad beyond the band are
// read so that owned components are seen whole.
func (s *Slicer) Run(ctx context.Context, bm symscan.Bitmap, rows symscan.RowRange) ([]Segment, error) {
	ext := s.MaxRad
	if ext <= 0 {
		ext = bm.Height()
	}
	s.width = bm.Width()
	s.y0 = max(rows.Start-ext, 0)
	s.y1 = min(rows.End+ext, bm.Height())
	n := s.width * max(s.y1-s.y0, 0)
	if cap(s.labels) < n {
		s.labels = make([]int32, n)
	}
	s.labels = s.labels[:n]
	clear(s.labels)
	s.parent = append(s.parent[:0], 0)

	for y := s.y0; y < s.y1; y++ {
		if (y-s.y0)%32 == 0 {
			if err := symscan.CheckContext(ctx); err != nil {
				return nil, err
			}
		}
		s.row = bm.Row(y, s.row)
		for x := s.row.NextSet(0); x < s.width; x = s.row.NextSet(x + 1) {
			s.labels[(y-s.y0)*s.width+x] = s.label(x, y)
		}
	}

	st := make([]stats, len(s.parent))
	for i, l := range s.labels {
		if l == 0 {
			continue
		}
		r := s.find(l)
		s.labels[i] = r
		x, y := i%s.width, s.y0+i/s.width
		c := &st[r]
		if c.count == 0 {
			*c = stats{minX: x, minY: y, maxX: x, maxY: y}
		}
		c.minX, c.maxX = min(c.minX, x), max(c.maxX, x)
		c.minY, c.maxY = min(c.minY, y), max(c.maxY, y)
		c.count++
	}

	var out []Segment
	for id, c := range st {
		if c.count == 0 || !rows.Contains(c.minY) {
			continue
		}
		b := image.Rect(c.minX, c.minY, c.maxX+1, c.maxY+1)
		if !s.fits(b) {
			continue
		}
		e, ok := s.entropy(int32(id), b)
		if !ok {
			continue
		}
		out = append(out, Segment{ID: id, Bounds: b, Count: c.count, Entropy: e})
	}
	slices.SortFunc(out, func(a, b Segment) int {
		if c := cmp.Compare(a.Bounds.Min.Y, b.Bounds.Min.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.Bounds.Min.X, b.Bounds.Min.X)
	})
	return out, nil
}

// label returns the label for the black pixel (x, y): that of an earlier
// pixel within MinDist, merging labels the pixel connects, or a new one.
func (s *Slicer) label(x, y int) int32 {
	var lbl int32
	for dy := 0; dy <= s.MinDist; dy++ {
		yy := y - dy
		if yy < s.y0 {
			break
		}
		base := (yy - s.y0) * s.width
		for dx := -s.MinDist; dx <= s.MinDist; dx++ {
			if dy == 0 && dx >= 0 {
				break
			}
			xx := x + dx
			if xx < 0 || xx >= s.width {
				continue
			}
			l := s.labels[base+xx]
			if l == 0 {
				continue
			}
			r := s.find(l)
			switch {
			case lbl == 0:
				lbl = r
			case r != lbl:
				lbl = s.union(lbl, r)
			}
		}
	}
	if lbl == 0 {
		lbl = int32(len(s.parent))
		s.parent = append(s.parent, lbl)
	}
	return lbl
}

func (s *Slicer) fits(b image.Rectangle) bool {
	long, short := max(b.Dx(), b.Dy()), min(b.Dx(), b.Dy())
	if long < s.MinRad || (s.MaxRad > 0 && long > s.MaxRad) {
		return false
	}
	ratio := float64(long) / float64(short)
	if ratio < s.MinRatio {
		return false
	}
	return s.MaxRatio == 0 || ratio <= s.MaxRatio
}

// entropy counts the transitions between id and anything else along every
// row and column of b, and returns their mean. Counting stops as soon as
// the mean is certain to exceed MaxEntropy; ok is then false.
func (s *Slicer) entropy(id int32, b image.Rectangle) (float64, bool) {
	lines := b.Dx() + b.Dy()
	limit := -1
	if s.MaxEntropy > 0 {
		limit = int(s.MaxEntropy * float64(lines))
	}
	t := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		prev := false
		for x := b.Min.X; x < b.Max.X; x++ {
			cur := s.at(x, y) == id
			if cur != prev {
				t++
			}
			prev = cur
		}
		if prev {
			t++
		}
		if limit >= 0 && t > limit {
			return float64(t) / float64(lines), false
		}
	}
	for x := b.Min.X; x < b.Max.X; x++ {
		prev := false
		for y := b.Min.Y; y < b.Max.Y; y++ {
			cur := s.at(x, y) == id
			if cur != prev {
				t++
			}
			prev = cur
		}
		if prev {
			t++
		}
		if limit >= 0 && t > limit {
			return float64(t) / float64(lines), false
		}
	}
	return float64(t) / float64(lines), true
}

func (s *Slicer) at(x, y int) int32 {
	if x < 0 || x >= s.width || y < s.y0 || y >= s.y1 {
		return 0
	}
	return s.labels[(y-s.y0)*s.width+x]
}

// LabelAt returns the component label of (x, y) after Run, or 0 for white
// pixels and pixels outside the scanned rows.
func (s *Slicer) LabelAt(x, y int) int { return int(s.at(x, y)) }

// Boundary returns the pixels of seg that have a 4-neighbour outside it, in
// row-major order.
func (s *Slicer) Boundary(seg Segment) []image.Point {
	id := int32(seg.ID)
	var out []image.Point
	for y := seg.Bounds.Min.Y; y < seg.Bounds.Max.Y; y++ {
		for x := seg.Bounds.Min.X; x < seg.Bounds.Max.X; x++ {
			if s.at(x, y) != id {
				continue
			}
			if s.at(x-1, y) != id || s.at(x+1, y) != id || s.at(x, y-1) != id || s.at(x, y+1) != id {
				out = append(out, image.Pt(x, y))
			}
		}
	}
	return out
}
