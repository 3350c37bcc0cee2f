// Package grid maps module coordinates of a located symbol to image
// coordinates and samples the modules.
package grid

import (
	"fmt"

	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
	"github.com/ericlevine/symscan/geometry"
	"github.com/ericlevine/symscan/transform"
)

// Grid gives the image position of every module of a symbol.
type Grid interface {
	// SamplePoint returns the image point sampled for module (col, row).
	SamplePoint(col, row int) geometry.Point
	Size() (cols, rows int)
}

// PerspectiveGrid interpolates between the four corners of a quad, A being
// module (0, 0). Center-aligned grids place the corners on the outer edge
// of the corner modules and sample module centers; corner-aligned grids
// sample exactly at the corners. Projective grids follow the perspective
// transform of the quad instead of bilinear interpolation.
type PerspectiveGrid struct {
	Quad          geometry.Quad
	Cols, Rows    int
	CornerAligned bool

	proj *transform.Perspective
}

// NewPerspectiveGrid creates a bilinear grid.
func NewPerspectiveGrid(q geometry.Quad, cols, rows int, cornerAligned bool) *PerspectiveGrid {
	return &PerspectiveGrid{Quad: q, Cols: cols, Rows: rows, CornerAligned: cornerAligned}
}

// NewProjectiveGrid creates a grid that follows the perspective of q.
func NewProjectiveGrid(q geometry.Quad, cols, rows int, cornerAligned bool) *PerspectiveGrid {
	g := NewPerspectiveGrid(q, cols, rows, cornerAligned)
	g.proj = transform.SquareToQuad(q)
	return g
}

func (g *PerspectiveGrid) Size() (cols, rows int) { return g.Cols, g.Rows }

// fractions returns the position of (col, row) in the unit square.
func (g *PerspectiveGrid) fractions(col, row int) (u, v float64) {
	if g.CornerAligned {
		return frac(col, g.Cols-1), frac(row, g.Rows-1)
	}
	return (float64(col) + 0.5) / float64(g.Cols), (float64(row) + 0.5) / float64(g.Rows)
}

func frac(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(i) / float64(n)
}

func (g *PerspectiveGrid) SamplePoint(col, row int) geometry.Point {
	u, v := g.fractions(col, row)
	if g.proj != nil {
		return g.proj.Transform(geometry.Pt(u, v))
	}
	q := g.Quad
	top := q.A.Lerp(q.B, u)
	bottom := q.D.Lerp(q.C, u)
	return top.Lerp(bottom, v)
}

// Sample reads every module of g from bm. Points up to one pixel outside
// the image are pulled back onto its border; anything further out fails
// with ErrNotFound.
func Sample(bm symscan.Bitmap, g Grid, moduleLength float64) (*bitutil.BitMatrix, error) {
	cols, rows := g.Size()
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("grid of %dx%d modules: %w", cols, rows, symscan.ErrNotFound)
	}
	w, h := float64(bm.Width()), float64(bm.Height())
	bits := bitutil.NewBitMatrix(cols, rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			p := g.SamplePoint(col, row)
			if !p.IsFinite() || p.X < -1 || p.Y < -1 || p.X > w+1 || p.Y > h+1 {
				return nil, fmt.Errorf("module (%d, %d) samples %v outside the image: %w", col, row, p, symscan.ErrNotFound)
			}
			p.X = min(max(p.X, 0), w-0.5)
			p.Y = min(max(p.Y, 0), h-0.5)
			if symscan.IsBlackSample(bm, p, moduleLength) {
				bits.Set(col, row)
			}
		}
	}
	return bits, nil
}
