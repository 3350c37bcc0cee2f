package binarizer

import (
	"github.com/ericlevine/symscan"
	"github.com/ericlevine/symscan/bitutil"
)

const (
	blockSizePower   = 3
	blockSize        = 1 << blockSizePower
	minimumDimension = blockSize * 5
	minDynamicRange  = 24
)

// Hybrid thresholds each 8x8 block against the mean black point of the 5x5
// blocks around it, which copes with shadows and gradients. Images smaller
// than 40 pixels on a side fall back to GlobalHistogram.
type Hybrid struct {
	GlobalHistogram
	matrix *bitutil.BitMatrix
}

// NewHybrid creates a Hybrid binarizer over source.
func NewHybrid(source symscan.LuminanceSource) *Hybrid {
	return &Hybrid{GlobalHistogram: GlobalHistogram{source: source}}
}

// BlackMatrix binarizes the image once and caches the result.
func (h *Hybrid) BlackMatrix() (*bitutil.BitMatrix, error) {
	if h.matrix != nil {
		return h.matrix, nil
	}
	w, ht := h.source.Width(), h.source.Height()
	if w < minimumDimension || ht < minimumDimension {
		m, err := h.GlobalHistogram.BlackMatrix()
		if err != nil {
			return nil, err
		}
		h.matrix = m
		return m, nil
	}
	b := newBlocks(h.source.Matrix(), w, ht)
	b.blackPoints()
	h.matrix = b.threshold()
	return h.matrix, nil
}

// blocks tiles the luminance buffer into blockSize squares. The last row
// and column of blocks are shifted back to stay inside the image.
type blocks struct {
	lum           []byte
	width, height int
	cols, rows    int
	points        []int
}

func newBlocks(lum []byte, width, height int) *blocks {
	cols := (width + blockSize - 1) >> blockSizePower
	rows := (height + blockSize - 1) >> blockSizePower
	return &blocks{lum: lum, width: width, height: height, cols: cols, rows: rows, points: make([]int, cols*rows)}
}

// origin returns the top left pixel of block (bx, by).
func (b *blocks) origin(bx, by int) (x, y int) {
	return min(bx<<blockSizePower, b.width-blockSize), min(by<<blockSizePower, b.height-blockSize)
}

func (b *blocks) point(bx, by int) int { return b.points[by*b.cols+bx] }

// blackPoints computes the black point of every block. A block with little
// dynamic range is assumed to be all paper or all ink; it takes half its
// minimum, or the black point of its neighbours when that is higher.
func (b *blocks) blackPoints() {
	for by := 0; by < b.rows; by++ {
		for bx := 0; bx < b.cols; bx++ {
			x0, y0 := b.origin(bx, by)
			sum, lo, hi := 0, 0xFF, 0
			for y := y0; y < y0+blockSize; y++ {
				for _, v := range b.lum[y*b.width+x0 : y*b.width+x0+blockSize] {
					p := int(v)
					sum += p
					lo, hi = min(lo, p), max(hi, p)
				}
			}
			avg := sum >> (2 * blockSizePower)
			if hi-lo <= minDynamicRange {
				avg = lo / 2
				if by > 0 && bx > 0 {
					n := (b.point(bx, by-1) + 2*b.point(bx-1, by) + b.point(bx-1, by-1)) / 4
					if lo < n {
						avg = n
					}
				}
			}
			b.points[by*b.cols+bx] = avg
		}
	}
}

// threshold sets every pixel at or below the mean black point of the 5x5
// blocks centered on its own.
func (b *blocks) threshold() *bitutil.BitMatrix {
	m := bitutil.NewBitMatrix(b.width, b.height)
	for by := 0; by < b.rows; by++ {
		cy := clampBlock(by, b.rows-3)
		for bx := 0; bx < b.cols; bx++ {
			cx := clampBlock(bx, b.cols-3)
			sum := 0
			for dy := -2; dy <= 2; dy++ {
				for dx := -2; dx <= 2; dx++ {
					sum += b.point(cx+dx, cy+dy)
				}
			}
			t := sum / 25
			x0, y0 := b.origin(bx, by)
			for y := y0; y < y0+blockSize; y++ {
				for x := x0; x < x0+blockSize; x++ {
					if int(b.lum[y*b.width+x]) <= t {
						m.Set(x, y)
					}
				}
			}
		}
	}
	return m
}

func clampBlock(v, hi int) int {
	return max(2, min(v, hi))
}
