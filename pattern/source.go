package pattern

import (
	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/geometry"
)

// Source is a scan line of black and white pixels.
type Source interface {
	Len() int
	Black(i int) bool
}

// GraySource is a Source that can also report the gray level of a pixel,
// 0 being black.
type GraySource interface {
	Source
	Gray(i int) float64
}

type rowSource struct {
	row *bitutil.BitArray
	n   int
}

// RowSource reads the first n bits of row. A reused row may be longer than
// the line it holds, so the length is explicit.
func RowSource(row *bitutil.BitArray, n int) Source {
	return rowSource{row: row, n: min(n, row.Size())}
}

func (s rowSource) Len() int         { return s.n }
func (s rowSource) Black(i int) bool { return s.row.Get(i) }

// BitmapRow reads row y of bm, including gray levels.
func BitmapRow(bm symscan.Bitmap, y int) GraySource {
	return bitmapRow{bm: bm, y: y}
}

type bitmapRow struct {
	bm symscan.Bitmap
	y  int
}

func (s bitmapRow) Len() int           { return s.bm.Width() }
func (s bitmapRow) Black(i int) bool   { return s.bm.IsBlack(i, s.y) }
func (s bitmapRow) Gray(i int) float64 { return s.bm.Gray(i, s.y) }

type reversed struct {
	src Source
}

// Reversed reads src from its last pixel to its first. Gray levels remain
// available when src has them.
func Reversed(src Source) Source {
	if g, ok := src.(GraySource); ok {
		return reversedGray{reversed{g}, g}
	}
	return reversed{src}
}

func (r reversed) Len() int         { return r.src.Len() }
func (r reversed) Black(i int) bool { return r.src.Black(r.src.Len() - 1 - i) }

type reversedGray struct {
	reversed
	g GraySource
}

func (r reversedGray) Gray(i int) float64 { return r.g.Gray(r.g.Len() - 1 - i) }

// Line is a scan line between two points of a bitmap, rasterized with
// Bresenham's algorithm.
type Line struct {
	bm     symscan.Bitmap
	pixels [][2]int
}

// LineSource rasterizes the segment from p to q over bm.
func LineSource(bm symscan.Bitmap, p, q geometry.Point) *Line {
	return &Line{bm: bm, pixels: geometry.PixelLine(p, q)}
}

func (l *Line) Len() int { return len(l.pixels) }

func (l *Line) Black(i int) bool {
	px := l.pixels[i]
	return l.bm.IsBlack(px[0], px[1])
}

func (l *Line) Gray(i int) float64 {
	px := l.pixels[i]
	return l.bm.Gray(px[0], px[1])
}

// Point returns the pixel center of position i.
func (l *Line) Point(i int) geometry.Point {
	px := l.pixels[min(max(i, 0), len(l.pixels)-1)]
	return geometry.Pt(float64(px[0])+0.5, float64(px[1])+0.5)
}

// Run is a maximal stretch of one colour.
type Run struct {
	Start, Len int
	Black      bool
}

// End returns the position after the run.
func (r Run) End() int { return r.Start + r.Len }

// Runs returns the run-length encoding of src.
func Runs(src Source) []Run {
	n := src.Len()
	if n == 0 {
		return nil
	}
	var runs []Run
	cur := Run{Black: src.Black(0)}
	for i := 1; i < n; i++ {
		if b := src.Black(i); b != cur.Black {
			cur.Len = i - cur.Start
			runs = append(runs, cur)
			cur = Run{Start: i, Black: b}
		}
	}
	cur.Len = n - cur.Start
	return append(runs, cur)
}

// Fold merges runs of at most k pixels into the preceding run, together
// with the run that follows them. The first and last runs are kept.
func Fold(runs []Run, k int) []Run {
	if k <= 0 || len(runs) < 3 {
		return runs
	}
	out := make([]Run, 0, len(runs))
	out = append(out, runs[0])
	for i := 1; i < len(runs); i++ {
		r := runs[i]
		last := &out[len(out)-1]
		if r.Len <= k && i+1 < len(runs) {
			last.Len += r.Len + runs[i+1].Len
			i++
			continue
		}
		out = append(out, r)
	}
	return out
}
